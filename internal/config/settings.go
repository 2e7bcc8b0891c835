package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ytget/yt-splitter/internal/platform"
)

// Environment keys. Flags override them, they override the .env file.
const (
	EnvPrefix            = "YTS_"
	KeyHost              = "YTS_HOST"
	KeyPort              = "YTS_PORT"
	KeyOutputDir         = "YTS_OUTPUT_DIR"
	KeyTempDir           = "YTS_TEMP_DIR"
	KeyIndexPath         = "YTS_INDEX"
	KeyBackend           = "YTS_BACKEND"
	KeyWorkers           = "YTS_WORKERS"
	KeyMaxSegmentSeconds = "YTS_MAX_SEGMENT_SECONDS"
	KeyMetadataTimeout   = "YTS_METADATA_TIMEOUT"
	KeyDownloadTimeout   = "YTS_DOWNLOAD_TIMEOUT"
	KeyTranscodeTimeout  = "YTS_TRANSCODE_TIMEOUT"
	KeyFFmpegPath        = "YTS_FFMPEG"
	KeyFFprobePath       = "YTS_FFPROBE"
	KeyRateLimit         = "YTS_RATE_LIMIT"
	KeyRateBurst         = "YTS_RATE_BURST"
	KeyLogLevel          = "YTS_LOG_LEVEL"
	KeyLogFormat         = "YTS_LOG_FORMAT"
)

// Default values
const (
	DefaultEnvFile           = ".env"
	DefaultHost              = "0.0.0.0"
	DefaultPort              = 5111
	DefaultOutputDir         = "downloads"
	DefaultBackend           = "auto"
	DefaultWorkers           = 2
	MinWorkers               = 1
	MaxWorkers               = 10
	DefaultMaxSegmentSeconds = 60
	DefaultMetadataTimeout   = 60 * time.Second
	DefaultDownloadTimeout   = 30 * time.Minute
	DefaultTranscodeTimeout  = 10 * time.Minute
	DefaultFFmpegPath        = "ffmpeg"
	DefaultFFprobePath       = "ffprobe"
	DefaultRateLimit         = 5.0
	DefaultRateBurst         = 10
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
)

// Settings holds the server configuration
type Settings struct {
	Host              string
	Port              int
	OutputDir         string
	TempDir           string
	IndexPath         string
	Backend           string
	Workers           int
	MaxSegmentSeconds int
	MetadataTimeout   time.Duration
	DownloadTimeout   time.Duration
	TranscodeTimeout  time.Duration
	FFmpegPath        string
	FFprobePath       string
	RateLimit         float64 // requests per second, 0 disables limiting
	RateBurst         int
	LogLevel          string
	LogFormat         string
}

// NewSettings returns settings populated with defaults
func NewSettings() *Settings {
	return &Settings{
		Host:              DefaultHost,
		Port:              DefaultPort,
		OutputDir:         DefaultOutputDir,
		Backend:           DefaultBackend,
		Workers:           DefaultWorkers,
		MaxSegmentSeconds: DefaultMaxSegmentSeconds,
		MetadataTimeout:   DefaultMetadataTimeout,
		DownloadTimeout:   DefaultDownloadTimeout,
		TranscodeTimeout:  DefaultTranscodeTimeout,
		FFmpegPath:        DefaultFFmpegPath,
		FFprobePath:       DefaultFFprobePath,
		RateLimit:         DefaultRateLimit,
		RateBurst:         DefaultRateBurst,
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
	}
}

// Load resolves settings from defaults, the .env file, the environment and
// finally the flags in args. The flag set gets the server flags registered.
func Load(fs *flag.FlagSet, args []string, envFile string) (*Settings, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	s := NewSettings()
	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	s.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from YTS_* variables
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str(KeyHost, &s.Host)
	integer(KeyPort, &s.Port)
	str(KeyOutputDir, &s.OutputDir)
	str(KeyTempDir, &s.TempDir)
	str(KeyIndexPath, &s.IndexPath)
	str(KeyBackend, &s.Backend)
	integer(KeyWorkers, &s.Workers)
	integer(KeyMaxSegmentSeconds, &s.MaxSegmentSeconds)
	duration(KeyMetadataTimeout, &s.MetadataTimeout)
	duration(KeyDownloadTimeout, &s.DownloadTimeout)
	duration(KeyTranscodeTimeout, &s.TranscodeTimeout)
	str(KeyFFmpegPath, &s.FFmpegPath)
	str(KeyFFprobePath, &s.FFprobePath)
	integer(KeyRateBurst, &s.RateBurst)
	str(KeyLogLevel, &s.LogLevel)
	str(KeyLogFormat, &s.LogFormat)

	if v, ok := lookup(KeyRateLimit); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", KeyRateLimit, err))
		} else {
			s.RateLimit = f
		}
	}

	return errors.Join(errs...)
}

// RegisterFlags binds the server flags to the current field values
func (s *Settings) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&s.Host, "host", s.Host, "interface to bind")
	fs.IntVar(&s.Port, "port", s.Port, "port to listen on; falls back to an ephemeral port if busy")
	fs.StringVar(&s.OutputDir, "output-dir", s.OutputDir, "directory for finished segments")
	fs.StringVar(&s.TempDir, "temp-dir", s.TempDir, "parent of per-request scratch directories (OS default if empty)")
	fs.StringVar(&s.IndexPath, "index", s.IndexPath, "SQLite segment index path (in-memory if empty)")
	fs.StringVar(&s.Backend, "backend", s.Backend, "extraction backend: auto, ytdlp or native")
	fs.IntVar(&s.Workers, "workers", s.Workers, "concurrent download/split jobs (1-10)")
	fs.IntVar(&s.MaxSegmentSeconds, "max-segment", s.MaxSegmentSeconds, "maximum segment length in seconds")
	fs.StringVar(&s.FFmpegPath, "ffmpeg", s.FFmpegPath, "ffmpeg executable")
	fs.StringVar(&s.FFprobePath, "ffprobe", s.FFprobePath, "ffprobe executable")
	fs.Float64Var(&s.RateLimit, "rate-limit", s.RateLimit, "API requests per second (0 disables)")
	fs.IntVar(&s.RateBurst, "rate-burst", s.RateBurst, "API request burst")
	fs.StringVar(&s.LogLevel, "log-level", s.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&s.LogFormat, "log-format", s.LogFormat, "log format: text or json")
}

// Validate normalizes values and rejects the ones that cannot be fixed
func (s *Settings) Validate() error {
	s.SetWorkers(s.Workers)

	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	if strings.TrimSpace(s.Host) == "" {
		s.Host = DefaultHost
	}
	if s.MaxSegmentSeconds <= 0 {
		s.MaxSegmentSeconds = DefaultMaxSegmentSeconds
	}
	if s.MetadataTimeout <= 0 {
		s.MetadataTimeout = DefaultMetadataTimeout
	}
	if s.DownloadTimeout <= 0 {
		s.DownloadTimeout = DefaultDownloadTimeout
	}
	if s.TranscodeTimeout <= 0 {
		s.TranscodeTimeout = DefaultTranscodeTimeout
	}
	if s.RateLimit < 0 {
		s.RateLimit = 0
	}
	if s.RateBurst < 1 {
		s.RateBurst = 1
	}

	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case "":
		s.Backend = DefaultBackend
	case "auto", "ytdlp", "native":
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}

	s.LogFormat = strings.ToLower(strings.TrimSpace(s.LogFormat))
	if s.LogFormat != "text" && s.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", s.LogFormat)
	}

	if s.OutputDir == "" {
		s.OutputDir = DefaultOutputDir
	}
	abs, err := filepath.Abs(s.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}
	s.OutputDir = abs
	return nil
}

// SetWorkers sets the number of concurrent heavy jobs, clamped to 1..10
func (s *Settings) SetWorkers(count int) {
	if count < MinWorkers {
		count = MinWorkers
	}
	if count > MaxWorkers {
		count = MaxWorkers
	}
	s.Workers = count
}

// Addr returns host:port
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EnsureDirs creates the output and temp directories if missing
func (s *Settings) EnsureDirs() error {
	if err := platform.CreateDirectoryIfNotExists(s.OutputDir); err != nil {
		return fmt.Errorf("create output dir %s: %w", s.OutputDir, err)
	}
	if s.TempDir != "" {
		if err := platform.CreateDirectoryIfNotExists(s.TempDir); err != nil {
			return fmt.Errorf("create temp dir %s: %w", s.TempDir, err)
		}
	}
	return nil
}

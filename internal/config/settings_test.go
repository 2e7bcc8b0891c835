package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestNewSettings(t *testing.T) {
	s := NewSettings()

	if s.Host != DefaultHost || s.Port != DefaultPort {
		t.Errorf("unexpected address %s", s.Addr())
	}
	if s.Workers != DefaultWorkers {
		t.Errorf("Expected default workers %d, got %d", DefaultWorkers, s.Workers)
	}
	if s.MaxSegmentSeconds != 60 {
		t.Errorf("Expected 60 second segments, got %d", s.MaxSegmentSeconds)
	}
	if s.IndexPath != "" {
		t.Errorf("Expected in-memory index by default, got %q", s.IndexPath)
	}
}

func TestSetWorkers(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{5, 5},
		{10, 10},
		{15, 10},
	}

	s := NewSettings()
	for _, test := range tests {
		s.SetWorkers(test.input)
		if s.Workers != test.expected {
			t.Errorf("SetWorkers(%d) = %d, expected %d", test.input, s.Workers, test.expected)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	s := NewSettings()
	err := s.ApplyEnv(envMap(map[string]string{
		KeyHost:            "127.0.0.1",
		KeyPort:            "8080",
		KeyBackend:         "native",
		KeyWorkers:         "4",
		KeyDownloadTimeout: "5m",
		KeyRateLimit:       "0.5",
		KeyLogLevel:        "debug",
		KeyOutputDir:       "  ",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Addr() != "127.0.0.1:8080" {
		t.Errorf("Expected 127.0.0.1:8080, got %s", s.Addr())
	}
	if s.Backend != "native" || s.Workers != 4 || s.LogLevel != "debug" {
		t.Errorf("env not applied: %+v", s)
	}
	if s.DownloadTimeout != 5*time.Minute {
		t.Errorf("Expected 5m download timeout, got %v", s.DownloadTimeout)
	}
	if s.RateLimit != 0.5 {
		t.Errorf("Expected rate limit 0.5, got %v", s.RateLimit)
	}
	if s.OutputDir != DefaultOutputDir {
		t.Errorf("blank values should be ignored, got %q", s.OutputDir)
	}
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	s := NewSettings()
	err := s.ApplyEnv(envMap(map[string]string{
		KeyPort:            "http",
		KeyMetadataTimeout: "soon",
	}))
	if err == nil {
		t.Fatal("Expected error for invalid values")
	}
	if s.Port != DefaultPort {
		t.Errorf("invalid value should not be applied, got %d", s.Port)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	s := NewSettings()
	if err := s.ApplyEnv(envMap(map[string]string{KeyPort: "8080", KeyWorkers: "3"})); err != nil {
		t.Fatal(err)
	}

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	s.RegisterFlags(fs)
	if err := fs.Parse([]string{"--port", "9090"}); err != nil {
		t.Fatal(err)
	}

	if s.Port != 9090 {
		t.Errorf("flag should win over env, got port %d", s.Port)
	}
	if s.Workers != 3 {
		t.Errorf("env should survive when flag is absent, got workers %d", s.Workers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Settings)
		expectError bool
		check       func(*testing.T, *Settings)
	}{
		{
			name:   "defaults",
			modify: func(s *Settings) {},
			check: func(t *testing.T, s *Settings) {
				if !filepath.IsAbs(s.OutputDir) {
					t.Errorf("output dir should be absolute, got %s", s.OutputDir)
				}
			},
		},
		{
			name:   "clamps workers and fixes zero values",
			modify: func(s *Settings) { s.Workers = 99; s.MaxSegmentSeconds = 0; s.RateBurst = 0; s.RateLimit = -1 },
			check: func(t *testing.T, s *Settings) {
				if s.Workers != MaxWorkers || s.MaxSegmentSeconds != DefaultMaxSegmentSeconds || s.RateBurst != 1 || s.RateLimit != 0 {
					t.Errorf("unexpected normalization: %+v", s)
				}
			},
		},
		{
			name:   "backend is case insensitive",
			modify: func(s *Settings) { s.Backend = " YTDLP " },
			check: func(t *testing.T, s *Settings) {
				if s.Backend != "ytdlp" {
					t.Errorf("expected ytdlp, got %q", s.Backend)
				}
			},
		},
		{name: "unknown backend", modify: func(s *Settings) { s.Backend = "youtube-dl" }, expectError: true},
		{name: "unknown log format", modify: func(s *Settings) { s.LogFormat = "xml" }, expectError: true},
		{name: "invalid port", modify: func(s *Settings) { s.Port = 70000 }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSettings()
			tt.modify(s)
			err := s.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, s)
		})
	}
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	s := NewSettings()
	s.OutputDir = filepath.Join(root, "out", "segments")
	s.TempDir = filepath.Join(root, "tmp")

	for i := 0; i < 2; i++ {
		if err := s.EnsureDirs(); err != nil {
			t.Fatalf("EnsureDirs call %d failed: %v", i+1, err)
		}
	}
	for _, dir := range []string{s.OutputDir, s.TempDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("directory %s was not created", dir)
		}
	}
}

func TestEnsureDirs_Failure(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, dir := range []string{blocker, filepath.Join(blocker, "sub")} {
		s := NewSettings()
		s.OutputDir = dir
		if err := s.EnsureDirs(); err == nil {
			t.Errorf("Expected error when a file blocks the output dir %s", dir)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "YTS_PORT=7000\nYTS_LOG_FORMAT=json\nYTS_WORKERS=6\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(KeyWorkers, "3")
	// godotenv writes into the process environment; restore after the test.
	t.Setenv(KeyPort, "")
	os.Unsetenv(KeyPort)
	t.Setenv(KeyLogFormat, "")
	os.Unsetenv(KeyLogFormat)

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	s, err := Load(fs, []string{"--log-level", "warn"}, envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.Port != 7000 {
		t.Errorf("expected .env port 7000, got %d", s.Port)
	}
	if s.LogFormat != "json" {
		t.Errorf("expected .env log format json, got %s", s.LogFormat)
	}
	if s.Workers != 3 {
		t.Errorf("environment should win over .env, got workers %d", s.Workers)
	}
	if s.LogLevel != "warn" {
		t.Errorf("flag should win, got %s", s.LogLevel)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
	if err := LoadEnvFile(""); err != nil {
		t.Errorf("empty path should be ignored, got %v", err)
	}
}

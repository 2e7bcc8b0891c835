package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-splitter/internal/config"
	"github.com/ytget/yt-splitter/internal/extract"
	"github.com/ytget/yt-splitter/internal/logger"
	"github.com/ytget/yt-splitter/internal/platform"
	"github.com/ytget/yt-splitter/internal/segment"
	"github.com/ytget/yt-splitter/internal/server"
	"github.com/ytget/yt-splitter/internal/store"
	"github.com/ytget/yt-splitter/internal/transcode"
)

// ShutdownTimeout bounds graceful shutdown
const ShutdownTimeout = 5 * time.Second

func serveCmd(ctx context.Context, args []string, version string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(CmdServe, flag.ContinueOnError)
	fs.SetOutput(stderr)
	selfTest := fs.Bool("test", false, "run the built-in self-checks and exit")
	fs.String("env-file", config.DefaultEnvFile, "optional .env file")

	// The env file has to be read before the environment and flags.
	envFile, err := peekEnvFile(args, config.DefaultEnvFile)
	if err != nil {
		fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
		return ExitUsage
	}

	settings, err := config.Load(fs, args, envFile)
	if errors.Is(err, flag.ErrHelp) {
		return ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return ExitUsage
	}

	if *selfTest {
		return RunSelfTest(stdout)
	}

	log := logger.New(settings.LogLevel, settings.LogFormat)
	log.WithFields(logrus.Fields{
		"version": version,
		"output":  settings.OutputDir,
		"backend": settings.Backend,
		"workers": settings.Workers,
	}).Info("yt-splitter starting")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Serve(ctx, settings, log); err != nil {
		log.WithError(err).Error("server stopped")
		return ExitError
	}
	log.Info("server exited gracefully")
	return ExitOK
}

// peekEnvFile finds --env-file in args ahead of the full flag parse
func peekEnvFile(args []string, fallback string) (string, error) {
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name != "env-file" {
			continue
		}
		if hasValue {
			return value, nil
		}
		if i+1 >= len(args) {
			return "", errors.New("flag needs an argument: -env-file")
		}
		return args[i+1], nil
	}
	return fallback, nil
}

// Serve wires the services from settings and serves HTTP until ctx is done
func Serve(ctx context.Context, settings *config.Settings, log *logrus.Logger) error {
	if err := settings.EnsureDirs(); err != nil {
		return err
	}

	handler, index, err := Wire(settings, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := index.Close(); err != nil {
			log.WithError(err).Warn("failed to close segment index")
		}
	}()

	ln, err := Listen(settings.Host, settings.Port, log)
	if err != nil {
		return err
	}
	return ServeListener(ctx, ln, handler, log)
}

// Wire builds the HTTP handler and the segment index from settings
func Wire(settings *config.Settings, log *logrus.Logger) (http.Handler, store.Index, error) {
	tc := transcode.NewService(transcode.Options{
		FFmpegPath:  settings.FFmpegPath,
		FFprobePath: settings.FFprobePath,
		Timeout:     settings.TranscodeTimeout,
		Logger:      log.WithField("component", "transcode"),
	})

	backend, err := extract.SelectBackend(settings.Backend, tc, &http.Client{}, log.WithField("component", "extract"))
	if err != nil {
		return nil, nil, err
	}
	extractor := extract.NewService(backend, extract.Options{
		TempDir:         settings.TempDir,
		MetadataTimeout: settings.MetadataTimeout,
		DownloadTimeout: settings.DownloadTimeout,
		Logger:          log.WithField("component", "extract"),
	})

	splitter := segment.NewSegmenter(tc, settings.OutputDir, settings.MaxSegmentSeconds, log.WithField("component", "segment"))

	playlists := platform.NewPlaylistParserService()
	playlists.SetTimeout(settings.MetadataTimeout)

	index, err := store.Open(settings.IndexPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open segment index: %w", err)
	}

	srv := server.New(server.Deps{
		Extractor: extractor,
		Splitter:  splitter,
		Playlists: playlists,
		Index:     index,
		Workers:   settings.Workers,
		RateLimit: settings.RateLimit,
		RateBurst: settings.RateBurst,
		Logger:    log.WithField("component", "http"),
	})
	log.WithField("module", extractor.Module()).Info("extraction backend selected")
	return srv, index, nil
}

// Listen binds host:port, falling back to an ephemeral port when the
// requested one is unavailable
func Listen(host string, port int, log logrus.FieldLogger) (net.Listener, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err == nil {
		return ln, nil
	}

	log.WithError(err).Warnf("cannot bind %s, falling back to an ephemeral port", addr)
	ln, err = net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return ln, nil
}

// ServeListener serves handler on ln and shuts down gracefully when ctx is done
func ServeListener(ctx context.Context, ln net.Listener, handler http.Handler, log logrus.FieldLogger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server listening on http://%s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Server is shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

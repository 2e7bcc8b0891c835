package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ytget/yt-splitter/internal/model"
	"github.com/ytget/yt-splitter/internal/platform"
	"github.com/ytget/yt-splitter/internal/progress"
)

// DefaultServerURL is where get looks for a running server
const DefaultServerURL = "http://127.0.0.1:5111"

// PlainInterval throttles --plain progress lines
const PlainInterval = time.Second

type getArgs struct {
	Server      string
	URL         string
	Resolution  string
	Orientation string
	Split       bool
	Out         string
	Quiet       bool
	Plain       bool
}

func parseGetArgs(args []string, stderr io.Writer) (getArgs, error) {
	var ga getArgs
	fs := flag.NewFlagSet(CmdGet, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&ga.Server, "server", DefaultServerURL, "yt-splitter server base URL")
	fs.StringVar(&ga.URL, "url", "", "video URL (required)")
	fs.StringVar(&ga.Resolution, "resolution", "", "quality tier such as 720p (default: best offered)")
	fs.StringVar(&ga.Orientation, "orientation", string(model.DefaultOrientation), "vertical or horizontal (with --split)")
	fs.BoolVar(&ga.Split, "split", false, "split into segments instead of downloading the whole video")
	fs.StringVar(&ga.Out, "out", ".", "directory to save files into")
	fs.BoolVar(&ga.Quiet, "quiet", false, "no progress bar")
	fs.BoolVar(&ga.Plain, "plain", false, "print progress lines instead of a bar")
	if err := fs.Parse(args); err != nil {
		return ga, err
	}
	if ga.URL == "" {
		return ga, errors.New("--url is required")
	}
	return ga, nil
}

func getCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ga, err := parseGetArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
		return ExitUsage
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runGet(ctx, ga, http.DefaultClient, stdout); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}
	return ExitOK
}

func runGet(ctx context.Context, ga getArgs, hc *http.Client, stdout io.Writer) error {
	orientation, err := model.ParseOrientation(ga.Orientation)
	if err != nil {
		return err
	}
	if err := platform.CreateDirectoryIfNotExists(ga.Out); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	client, err := progress.NewClient(ga.Server, hc)
	if err != nil {
		return err
	}

	meta, err := client.Metadata(ctx, ga.URL)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s [%s]\n", meta.Title, meta.Module)

	quality := ga.Resolution
	if quality == "" {
		if len(meta.Qualities) == 0 {
			return errors.New("server offered no qualities")
		}
		// tiers are sorted ascending
		quality = meta.Qualities[len(meta.Qualities)-1]
	}

	report := func(desc string) progress.Reporter {
		if ga.Quiet {
			return nil
		}
		if ga.Plain {
			return progress.Text(stdout, desc, PlainInterval)
		}
		return progress.Bar(desc)
	}

	if !ga.Split {
		path, sample, err := client.Download(ctx, ga.URL, quality, ga.Out, report("downloading "+quality))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\nsaved %s: %s\n", path, progress.Summary(sample))
		return nil
	}

	fmt.Fprintf(stdout, "splitting at %s (%s)...\n", quality, orientation)
	items, err := client.Split(ctx, ga.URL, quality, orientation)
	if err != nil {
		return err
	}

	var total int64
	var failed int
	for _, item := range items {
		if item.URL == "" {
			failed++
			fmt.Fprintf(stdout, "segment %s [%ds-%ds] failed: %s\n", item.Name, item.Start, item.End, item.Error)
			continue
		}
		path, sample, err := client.Fetch(ctx, item.URL, ga.Out, report(item.Name))
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "segment %s: %v\n", item.Name, err)
			continue
		}
		total += sample.Transferred
		fmt.Fprintf(stdout, "\nsaved %s: %s\n", path, progress.Summary(sample))
	}

	fmt.Fprintf(stdout, "%d of %d segments saved (%s)\n", len(items)-failed, len(items), humanize.Bytes(uint64(total)))
	if failed > 0 && failed == len(items) {
		return errors.New("no segment could be saved")
	}
	return nil
}

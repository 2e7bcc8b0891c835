// Package app implements the yt-splitter command line: the HTTP server,
// a streaming download client and the built-in self-checks.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Command names
const (
	CmdServe   = "serve"
	CmdGet     = "get"
	CmdVersion = "version"
	CmdHelp    = "help"
)

// Exit codes
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Run dispatches args (without the program name) and returns the exit code.
// Flags without a command start the server.
func Run(ctx context.Context, args []string, version string, stdout, stderr io.Writer) int {
	cmd, rest := CmdServe, args
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, rest = args[0], args[1:]
	}

	switch cmd {
	case CmdServe:
		return serveCmd(ctx, rest, version, stdout, stderr)
	case CmdGet:
		return getCmd(ctx, rest, stdout, stderr)
	case CmdVersion:
		fmt.Fprintf(stdout, "yt-splitter %s\n", version)
		return ExitOK
	case CmdHelp:
		printUsage(stdout)
		return ExitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		printUsage(stderr)
		return ExitUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  yt-splitter [serve] [flags]   start the HTTP server (default)
  yt-splitter serve --test      run the built-in self-checks
  yt-splitter get [flags]       download or split a video through a running server
  yt-splitter version           print the build version

Run "yt-splitter serve -h" or "yt-splitter get -h" for flags.
`)
}

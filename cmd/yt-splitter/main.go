package main

import (
	"context"
	"os"

	"github.com/ytget/yt-splitter/internal/app"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	os.Exit(app.Run(context.Background(), os.Args[1:], version, os.Stdout, os.Stderr))
}

// Package extract fetches video metadata and downloads muxed MP4 files.
//
// Extraction itself is delegated to a Backend: yt-dlp driven through
// github.com/lrstanley/go-ytdlp when the executable is available, otherwise a
// pure Go client built on github.com/kkdai/youtube/v2 that muxes the picked
// streams with ffmpeg.
package extract

package model

// Package model defines domain data structures shared across the app: video
// metadata, muxed media files, segment plans and results, progress samples,
// playlists, and the error taxonomy surfaced at the HTTP boundary.

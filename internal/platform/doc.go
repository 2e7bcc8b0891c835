// Package platform contains OS integration and extraction glue:
// video URL parsing, filesystem helpers and playlist listing via ytdlp.
package platform

// Package segment partitions a media file into bounded, evenly sized clips
// and transcodes each clip for vertical or horizontal viewing.
package segment

package platform

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ytget/yt-splitter/internal/model"
)

// File permissions
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// File extensions left behind by interrupted downloads
var (
	SkippedExtensions = []string{".part", ".ytdl"}
)

// renameFunc is swapped in tests to simulate cross-device moves.
var renameFunc = os.Rename

// CreateDirectoryIfNotExists creates directory if it doesn't exist and
// fails when the path is taken by something that is not a directory
func CreateDirectoryIfNotExists(dirPath string) error {
	if err := os.MkdirAll(dirPath, DefaultDirPermissions); err != nil {
		return err
	}
	info, err := os.Stat(dirPath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", dirPath)
	}
	return nil
}

// FindOutputFile locates the muxed file in dir. The expected name wins;
// otherwise the first remaining regular file in name order is used.
func FindOutputFile(dir, expected string) (string, error) {
	if expected != "" {
		path := filepath.Join(dir, expected)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", model.NewError(model.KindOutputNotFound, "find output", err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() || isPartialFile(entry.Name()) {
			continue
		}
		return filepath.Join(dir, entry.Name()), nil
	}

	return "", model.Errorf(model.KindOutputNotFound, "find output", "no output file in %s", dir)
}

// isPartialFile reports whether name looks like an unfinished download
func isPartialFile(name string) bool {
	for _, ext := range SkippedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// MoveFile renames src to dst, copying and removing src when the two paths
// live on different filesystems.
func MoveFile(src, dst string) error {
	err := renameFunc(src, dst)
	if err == nil {
		return nil
	}
	if !isEXDEV(err) {
		return fmt.Errorf("failed to move %s: %w", src, err)
	}

	if err := copyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("failed to copy %s across devices: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove %s after copy: %w", src, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, DefaultFilePermissions)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// FileSize returns the size of a regular file
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%s is not a regular file", path)
	}
	return info.Size(), nil
}

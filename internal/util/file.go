package util

import (
	"os"
	"path/filepath"
	"strings"
)

// VideoExtensions is the set of supported video file extensions.
var VideoExtensions = map[string]bool{
	".mkv":  true,
	".wmv":  true,
	".ts":   true,
	".avi":  true,
	".mp4":  true,
	".m4v":  true,
	".mpg":  true,
	".mpeg": true,
	".mov":  true,
	".webm": true,
	".flv":  true,
	".m2ts": true,
	".ogv":  true,
	".vob":  true,
}

// IsVideoFile checks if the given path is a valid video file.
func IsVideoFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	ext := strings.ToLower(filepath.Ext(path))
	return VideoExtensions[ext]
}

// GetFilename returns the filename from a path.
func GetFilename(path string) string {
	return filepath.Base(path)
}

// GetFileStem returns the filename without extension.
func GetFileStem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

// EnsureDirectory creates a directory if it doesn't exist.
func EnsureDirectory(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Package discovery enumerates converted files and resolves their sources.
package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/five82/hevcheck/internal/errors"
	"github.com/five82/hevcheck/internal/util"
)

// Pair binds a converted file to its resolved source. SourcePath is empty
// when no source matched the naming convention.
type Pair struct {
	ConvertedPath string
	SourcePath    string
}

// FindConvertedFiles finds video files in convertedDir whose stem contains
// the marker substring. Returns paths sorted alphabetically by filename,
// which fixes the verdict order for the whole run.
func FindConvertedFiles(convertedDir, marker string) ([]string, error) {
	info, err := os.Stat(convertedDir)
	if err != nil {
		return nil, errors.NewPathError("directory does not exist: " + convertedDir)
	}
	if !info.IsDir() {
		return nil, errors.NewPathError(convertedDir + " is not a directory")
	}

	entries, err := os.ReadDir(convertedDir)
	if err != nil {
		return nil, errors.NewIOError("cannot read directory "+convertedDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		// Skip hidden files
		if strings.HasPrefix(name, ".") {
			continue
		}

		fullPath := filepath.Join(convertedDir, name)
		if util.IsVideoFile(fullPath) && strings.Contains(util.GetFileStem(name), marker) {
			files = append(files, fullPath)
		}
	}

	if len(files) == 0 {
		return nil, errors.NewNoFilesFoundError(convertedDir)
	}

	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(filepath.Base(files[i])) < strings.ToLower(filepath.Base(files[j]))
	})

	return files, nil
}

// FindSourceFiles finds encodable source files in sourceDir: video files
// whose stem does not contain the converted marker. Sorted alphabetically.
func FindSourceFiles(sourceDir, marker string) ([]string, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, errors.NewPathError("directory does not exist: " + sourceDir)
	}
	if !info.IsDir() {
		return nil, errors.NewPathError(sourceDir + " is not a directory")
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, errors.NewIOError("cannot read directory "+sourceDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		fullPath := filepath.Join(sourceDir, name)
		if util.IsVideoFile(fullPath) && !strings.Contains(util.GetFileStem(name), marker) {
			files = append(files, fullPath)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return strings.ToLower(filepath.Base(files[i])) < strings.ToLower(filepath.Base(files[j]))
	})

	return files, nil
}

// ResolveSource maps a converted file back to its source by stripping the
// marker from the stem and trying every known video extension in sourceDir.
// Returns "" when nothing matches.
func ResolveSource(convertedPath, sourceDir, marker string) string {
	// A stem without the marker falls through unchanged: a source sharing
	// the stem in a different container is still a plausible match.
	stem := util.GetFileStem(convertedPath)
	sourceStem := strings.Replace(stem, marker, "", 1)

	// Prefer the converted file's own extension, then the rest.
	convExt := strings.ToLower(filepath.Ext(convertedPath))
	candidates := []string{convExt}
	for ext := range util.VideoExtensions {
		if ext != convExt {
			candidates = append(candidates, ext)
		}
	}
	sort.Strings(candidates[1:])

	for _, ext := range candidates {
		candidate := filepath.Join(sourceDir, sourceStem+ext)
		if util.FileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// ResolvePairs enumerates converted files and resolves each one's source,
// preserving discovery order.
func ResolvePairs(sourceDir, convertedDir, marker string) ([]Pair, error) {
	converted, err := FindConvertedFiles(convertedDir, marker)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, len(converted))
	for _, conv := range converted {
		pairs = append(pairs, Pair{
			ConvertedPath: conv,
			SourcePath:    ResolveSource(conv, sourceDir, marker),
		})
	}
	return pairs, nil
}

// ConvertedName returns the output filename for a source path, inserting the
// marker before the extension and normalizing to .mkv.
func ConvertedName(sourcePath, marker string) string {
	return util.GetFileStem(sourcePath) + marker + ".mkv"
}

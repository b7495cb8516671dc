package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/gobwas/glob"

	"github.com/yanet-platform/tsguard/common/go/xiter"
)

// Discover expands the given paths into a sorted list of capture files.
//
// Regular files are taken as is. Directories are scanned, non-recursively,
// for files whose name matches the glob pattern.
func Discover(paths []string, pattern string) ([]string, error) {
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %q: %w", pattern, err)
	}

	files := []string{}
	for _, path := range paths {
		stat, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}

		if !stat.IsDir() {
			files = append(files, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
		}

		captures := xiter.Filter(slices.Values(entries), func(entry os.DirEntry) bool {
			return entry.Type().IsRegular() && matcher.Match(entry.Name())
		})
		for entry := range captures {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

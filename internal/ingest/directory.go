package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
}

// CollectFiles expands the given paths into the ordered list of source
// files to process. Files are kept in argument order; a directory is walked
// and contributes its matching files sorted by path. Hidden entries inside
// a directory are skipped when skipHidden is set.
func CollectFiles(paths []string, skipHidden bool) ([]string, DirStats, error) {
	var (
		out   []string
		stats DirStats
	)
	if len(paths) == 0 {
		return nil, stats, errors.New("no input paths")
	}

	for _, root := range paths {
		root = strings.TrimSpace(root)
		info, err := os.Stat(root)
		if err != nil {
			return nil, stats, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			stats.Scanned++
			if !AllowedExt(filepath.Ext(root)) {
				return nil, stats, fmt.Errorf("unsupported or missing extension: %q", filepath.Ext(root))
			}
			stats.Matched++
			out = append(out, root)
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			// skip hidden dirs/files if requested
			if skipHidden && path != root && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			stats.Scanned++
			if !AllowedExt(filepath.Ext(path)) {
				stats.Skipped++
				return nil
			}
			stats.Matched++
			found = append(found, path)
			return nil
		})
		if err != nil {
			return nil, stats, fmt.Errorf("walk: %w", err)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, stats, nil
}

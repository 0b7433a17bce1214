package disk

import (
	"cmp"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// staleTempAge is how old an orphaned temporary file must be before Prune
// removes it. Younger files may belong to a writer that is still running.
const staleTempAge = time.Hour

type cacheEntry struct {
	path    string
	size    int64
	modTime time.Time
}

// scan lists the published entries under root and the temporary files left
// behind by writers older than staleBefore. A missing root is empty.
func scan(root, ext string, staleBefore time.Time) (entries []cacheEntry, stale []string, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name := d.Name()
		temp, _ := filepath.Match(tempPattern, name)
		if !temp && !strings.HasSuffix(name, ext) {
			return nil
		}

		info, err := d.Info()
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if temp {
			if info.ModTime().Before(staleBefore) {
				stale = append(stale, path)
			}
			return nil
		}
		entries = append(entries, cacheEntry{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	return entries, stale, err
}

func totalSize(entries []cacheEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.size
	}
	return total
}

func dirSize(root, ext string) (int64, error) {
	entries, _, err := scan(root, ext, time.Time{})
	if err != nil {
		return 0, err
	}
	return totalSize(entries), nil
}

// pruneDir removes the least recently written entries until the entries
// under root total at most targetBytes. Stale temporary files are removed
// on the way and are not counted as freed.
func pruneDir(root, ext string, targetBytes int64) (freed int64, remaining int64, err error) {
	entries, stale, err := scan(root, ext, time.Now().Add(-staleTempAge))
	if err != nil {
		return 0, 0, err
	}
	for _, path := range stale {
		_ = os.Remove(path) //nolint:errcheck // best-effort cleanup
	}

	remaining = totalSize(entries)
	if remaining <= max(targetBytes, 0) {
		return 0, remaining, nil
	}

	slices.SortFunc(entries, func(a, b cacheEntry) int {
		if c := a.modTime.Compare(b.modTime); c != 0 {
			return c
		}
		return cmp.Compare(a.path, b.path)
	})
	for _, e := range entries {
		if remaining <= targetBytes {
			break
		}
		if err := os.Remove(e.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return freed, remaining, err
		}
		remaining -= e.size
		freed += e.size
	}
	return freed, remaining, nil
}

package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"flowfmt/internal/config"
)

// ListFiles exposes the same path expansion FormatPaths performs, so
// callers can show the work list before the run starts.
func ListFiles(ctx context.Context, paths []string, files config.FilesConfig) ([]string, error) {
	return collectSourceFiles(ctx, paths, files)
}

// collectSourceFiles expands the argument list: explicit files are taken
// as-is, directories are walked recursively and filtered through the
// configured include/exclude patterns. The result is sorted and de-duped.
func collectSourceFiles(ctx context.Context, paths []string, files config.FilesConfig) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if files.Matches(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(out)
	return out, nil
}

package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/tempo/internal/driver"
)

// SourceExt is the tempo source file extension.
const SourceExt = ".tempo"

// resolveSources returns the files named by args, or, when args is empty,
// the files matched by the configured source patterns. Directories expand
// to the .tempo files beneath them. The result is sorted and de-duplicated.
func resolveSources(args, patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	if len(args) > 0 {
		for _, arg := range args {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("source not found: %s", arg)
			}
			if !info.IsDir() {
				add(arg)
				continue
			}
			found, err := walkSources(arg, "*"+SourceExt)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f)
			}
		}
		sort.Strings(files)
		return files, nil
	}

	for _, pattern := range patterns {
		found, err := expandPattern(pattern)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	sort.Strings(files)
	return files, nil
}

// expandPattern supports filepath.Match patterns plus a single "**/"
// segment meaning any number of directories.
func expandPattern(pattern string) ([]string, error) {
	root, rest, recursive := strings.Cut(filepath.ToSlash(pattern), "**/")
	if !recursive {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid source pattern %q: %w", pattern, err)
		}
		return matches, nil
	}
	if root == "" {
		root = "."
	}
	if _, err := filepath.Match(rest, ""); err != nil {
		return nil, fmt.Errorf("invalid source pattern %q: %w", pattern, err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, nil
	}
	return walkSources(filepath.FromSlash(root), rest)
}

func walkSources(root, base string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(base, d.Name()); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return files, nil
}

// readUnits loads each file as a compilation unit named by its path.
func readUnits(files []string) ([]driver.Unit, error) {
	units := make([]driver.Unit, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		units = append(units, driver.Unit{Name: f, Source: string(data)})
	}
	return units, nil
}

// loadUnits resolves and reads sources, mapping failures to command errors.
func loadUnits(args []string, opts *RootOptions) ([]driver.Unit, error) {
	files, err := resolveSources(args, opts.Config.Sources)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "resolving sources", err)
	}
	if len(files) == 0 {
		return nil, NewExitError(ExitCommandError, "no .tempo sources found")
	}
	units, err := readUnits(files)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "reading sources", err)
	}
	return units, nil
}

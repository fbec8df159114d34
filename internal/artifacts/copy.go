package artifacts

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Copy performs one post-build copy entry and returns the destination
// paths written.
//
// A relative source is resolved under root and a relative destination under
// exeDir. When the source names a single existing file it is copied to the
// destination (or to exeDir under its own name). Otherwise every file the
// glob matches is copied below the destination (exeDir by default),
// keeping its path relative to the glob's fixed prefix. Directories matched
// without a wildcard are copied recursively. No match is not an error.
func Copy(root, exeDir string, spec Spec) ([]string, error) {
	src := spec.Src
	if !filepath.IsAbs(src) {
		src = filepath.Join(root, src)
	}
	src = filepath.Clean(src)

	dst := spec.Dst
	if dst != "" && !filepath.IsAbs(dst) {
		dst = filepath.Join(exeDir, dst)
	}

	if info, err := os.Stat(src); err == nil && info.Mode().IsRegular() {
		if dst == "" {
			dst = filepath.Join(exeDir, filepath.Base(src))
		}
		if err := copyFile(src, dst); err != nil {
			return nil, err
		}
		return []string{dst}, nil
	}

	if dst == "" {
		dst = exeDir
	}

	matches, err := doublestar.FilepathGlob(src)
	if err != nil {
		return nil, fmt.Errorf("invalid copy pattern %q: %w", spec.Src, err)
	}
	base := fixedPrefix(src)

	var copied []string
	seen := make(map[string]bool)
	copyOne := func(path string) error {
		if seen[path] {
			return nil
		}
		seen[path] = true
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", path, err)
		}
		to := filepath.Join(dst, rel)
		if err := copyFile(path, to); err != nil {
			return err
		}
		copied = append(copied, to)
		return nil
	}

	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			return copied, fmt.Errorf("failed to stat %s: %w", match, err)
		}
		if info.Mode().IsRegular() {
			if err := copyOne(match); err != nil {
				return copied, err
			}
			continue
		}
		if !info.IsDir() || match != src {
			// Directories reached through a wildcard contribute only the
			// files the pattern itself matches.
			continue
		}
		err = filepath.WalkDir(match, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				return copyOne(path)
			}
			return nil
		})
		if err != nil {
			return copied, fmt.Errorf("failed to copy directory %s: %w", match, err)
		}
	}
	return copied, nil
}

// fixedPrefix returns the leading part of a pattern that contains no glob
// metacharacters. For a pattern without any, the pattern itself is returned.
func fixedPrefix(pattern string) string {
	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
	if rest == "" || !hasMeta(rest) {
		return filepath.FromSlash(pattern)
	}
	return filepath.FromSlash(base)
}

func hasMeta(s string) bool {
	for _, c := range s {
		switch c {
		case '*', '?', '[', '{', '\\':
			return true
		}
	}
	return false
}

// copyFile writes src to dst through a temp file and rename so readers never
// see a partial file. The source mode is preserved.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}

	tmpPath := dst + ".tmp"
	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move %s into place: %w", dst, err)
	}
	return nil
}

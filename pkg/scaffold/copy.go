package scaffold

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// artifactDirs are never copied out of a template nor scanned for tokens.
var artifactDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
}

// IsArtifactDir reports whether a directory name is a build artifact.
func IsArtifactDir(name string) bool {
	return artifactDirs[name]
}

// CopyStats summarizes a CopyTree run.
type CopyStats struct {
	Files   int
	Dirs    int
	Bytes   int64
	Skipped int
}

// CopyTree recursively copies src into dest, creating dest if needed.
//
// Artifact directories are pruned at any depth. Symlinks and other
// non-regular entries are skipped so a template cannot point outside its
// own tree. Executable files stay executable; everything else is written
// 0644.
func CopyTree(src fs.FS, dest string) (CopyStats, error) {
	var stats CopyStats

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return stats, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}

		target := filepath.Join(dest, filepath.FromSlash(p))

		if d.IsDir() {
			if IsArtifactDir(d.Name()) {
				stats.Skipped++
				return fs.SkipDir
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", target, err)
			}
			stats.Dirs++
			return nil
		}

		if !d.Type().IsRegular() {
			stats.Skipped++
			return nil
		}

		n, err := copyFile(src, p, d, target)
		if err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += n
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to copy template: %w", err)
	}

	return stats, nil
}

func copyFile(src fs.FS, p string, d fs.DirEntry, target string) (int64, error) {
	info, err := d.Info()
	if err != nil {
		return 0, err
	}

	perm := fs.FileMode(0o644)
	if info.Mode().Perm()&0o111 != 0 {
		perm = 0o755
	}

	in, err := src.Open(p)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", target, err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("failed to copy %s: %w", p, err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("failed to close %s: %w", target, err)
	}

	return n, nil
}

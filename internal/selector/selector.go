// Package selector decides which files of an addon directory are
// distributed and copies them into a staging tree.
package selector

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/wodoo-build/wodoo/internal/output"
	"github.com/wodoo-build/wodoo/internal/pkginfo"
	"github.com/wodoo-build/wodoo/internal/scm"
)

// Selection is the distributable content of an addon directory.
type Selection struct {
	// All is set when the directory is an unpacked sdist: every file is
	// already curated and the whole tree is copied.
	All bool
	// Files are the tracked files, slash separated and relative to the
	// addon directory. Unused when All is set.
	Files []string
}

// Select enumerates the distributable files of addonDir.
// Directories without a PKG-INFO record must be under version control;
// otherwise scm.ErrNoSCMFound is returned and nothing is selected.
func Select(ctx context.Context, addonDir string) (*Selection, error) {
	if pkginfo.Exists(addonDir) {
		output.Debug("PKG-INFO found, selecting the whole tree", "dir", addonDir)
		return &Selection{All: true}, nil
	}

	files, err := scm.LsFiles(ctx, addonDir)
	if err != nil {
		return nil, err
	}
	output.Debug("selected tracked files", "dir", addonDir, "count", len(files))
	return &Selection{Files: files}, nil
}

// CopyTo copies the selected content of addonDir into dst, which must not
// exist yet. Relative subdirectories are preserved.
func (s *Selection) CopyTo(addonDir, dst string) error {
	if s.All {
		return copyTree(addonDir, dst)
	}

	if err := os.Mkdir(dst, 0755); err != nil {
		return err
	}
	for _, f := range s.Files {
		src := filepath.Join(addonDir, filepath.FromSlash(f))
		target := filepath.Join(dst, filepath.FromSlash(f))

		info, err := os.Stat(src)
		if os.IsNotExist(err) {
			// deleted in the working copy but still in the index
			output.Debug("skipping missing tracked file", "file", f)
			continue
		}
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if info.IsDir() {
			// tracked symlink to a directory
			if err := copyTree(src, target); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(src, target, info.Mode().Perm()); err != nil {
			return err
		}
	}
	return nil
}

// copyTree copies src recursively to dst, following symlinks. A symlink
// pointing back to one of the directories being copied is an error.
func copyTree(src, dst string) error {
	return copyDir(src, dst, nil)
}

func copyDir(src, dst string, ancestors []string) error {
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return err
	}
	if slices.Contains(ancestors, resolved) {
		return fmt.Errorf("copying %s: symlink cycle to %s", src, resolved)
	}
	ancestors = append(ancestors, resolved)

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.Mkdir(dst, info.Mode().Perm()|0700); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		s := filepath.Join(src, entry.Name())
		d := filepath.Join(dst, entry.Name())

		info, err := os.Stat(s)
		if err != nil {
			return fmt.Errorf("copying %s: %w", s, err)
		}
		switch {
		case info.IsDir():
			if err := copyDir(s, d, ancestors); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			if err := copyFile(s, d, info.Mode().Perm()); err != nil {
				return err
			}
		default:
			output.Debug("skipping special file", "file", s, "mode", info.Mode().Type())
		}
	}
	return nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}

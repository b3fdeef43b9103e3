// Package scm queries the version control system for tracked files.
package scm

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// ErrNoSCMFound is returned when the directory is not under version control.
var ErrNoSCMFound = errors.New("no SCM found")

// LsFiles returns the files recorded in the git index below dir, relative
// to dir and slash separated. Files deleted from the working copy but
// still staged are listed. Submodules are not.
func LsFiles(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(resolved, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrNoSCMFound, dir, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrNoSCMFound, dir, err)
	}
	prefix, err := indexPrefix(worktree.Filesystem.Root(), resolved)
	if err != nil {
		return nil, err
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("reading git index: %w", err)
	}

	var files []string
	for _, e := range idx.Entries {
		if e.Mode == filemode.Submodule || !strings.HasPrefix(e.Name, prefix) {
			continue
		}
		name := strings.TrimPrefix(e.Name, prefix)
		// unmerged paths have one entry per stage
		if n := len(files); n > 0 && files[n-1] == name {
			continue
		}
		files = append(files, name)
	}
	return files, nil
}

// indexPrefix returns the slash separated path of dir inside the worktree
// at root, with a trailing slash, or "" when dir is the root itself.
func indexPrefix(root, dir string) (string, error) {
	root, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the git worktree %s", dir, root)
	}
	return filepath.ToSlash(rel) + "/", nil
}

package scm

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	return strings.TrimSpace(string(out))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLsFiles(t *testing.T) {
	requireGit(t)

	// Arrange
	repo := t.TempDir()
	runGit(t, repo, "init", "-q")
	addon := filepath.Join(repo, "addon_1")
	writeFile(t, filepath.Join(addon, "__manifest__.py"), "{}")
	writeFile(t, filepath.Join(addon, "models", "a b.py"), "")
	writeFile(t, filepath.Join(addon, "untracked.py"), "")
	writeFile(t, filepath.Join(repo, "setup.cfg"), "")
	writeFile(t, filepath.Join(repo, "addon_10", "__manifest__.py"), "{}")
	runGit(t, repo, "add", "setup.cfg", "addon_10/__manifest__.py",
		"addon_1/__manifest__.py", "addon_1/models/a b.py")

	// Act
	files, err := LsFiles(context.Background(), addon)

	// Assert
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"__manifest__.py", "models/a b.py"}, files)
}

func TestLsFiles_WorktreeRoot(t *testing.T) {
	requireGit(t)

	repo := t.TempDir()
	runGit(t, repo, "init", "-q")
	writeFile(t, filepath.Join(repo, "__manifest__.py"), "{}")
	writeFile(t, filepath.Join(repo, "models", "x.py"), "")
	runGit(t, repo, "add", ".")

	files, err := LsFiles(context.Background(), repo)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"__manifest__.py", "models/x.py"}, files)
}

func TestLsFiles_DeletedButStaged(t *testing.T) {
	requireGit(t)

	repo := t.TempDir()
	runGit(t, repo, "init", "-q")
	writeFile(t, filepath.Join(repo, "gone.py"), "")
	runGit(t, repo, "add", "gone.py")
	require.NoError(t, os.Remove(filepath.Join(repo, "gone.py")))

	files, err := LsFiles(context.Background(), repo)

	require.NoError(t, err)
	assert.Equal(t, []string{"gone.py"}, files)
}

func TestLsFiles_SkipsSubmodules(t *testing.T) {
	requireGit(t)

	// Arrange
	repo := t.TempDir()
	runGit(t, repo, "init", "-q")
	writeFile(t, filepath.Join(repo, "addon_1", "__manifest__.py"), "{}")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-q", "-m", "init")
	head := runGit(t, repo, "rev-parse", "HEAD")
	runGit(t, repo, "update-index", "--add", "--cacheinfo", "160000,"+head+",addon_1/vendor")

	// Act
	files, err := LsFiles(context.Background(), filepath.Join(repo, "addon_1"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"__manifest__.py"}, files)
}

func TestLsFiles_NoRepository(t *testing.T) {
	dir := t.TempDir()

	_, err := LsFiles(context.Background(), dir)

	assert.True(t, errors.Is(err, ErrNoSCMFound))
}

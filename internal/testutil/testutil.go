// Package testutil holds helpers shared by package tests.
package testutil

import (
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireGit skips the test when git is not installed.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// Git runs git in dir and fails the test on error.
func Git(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

// WriteFiles creates files below dir from a slash-path -> content map.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// ListFiles returns the regular files below dir as sorted slash paths.
func ListFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)
	return files
}

// Addon1Manifest is the manifest of the addon_1 fixture.
const Addon1Manifest = `{
    "name": "Addon 1",
    "summary": "Addon 1 summary",
    "version": "1.0.0",
    "license": "AGPL-3",
    "author": "ACSONE SA/NV",
    "website": "https://github.com/acsone/wodoo",
    "depends": ["base", "mis_builder"],
    "external_dependencies": {"python": ["requests"]},
}
`

// Addon1Pyproject configures addon_1 for the 12.0 series.
const Addon1Pyproject = `[tool.wodoo.options]
odoo_version_override = "12.0"
`

// NewAddon1 creates a git repository holding the addon_1 fixture with
// every file committed, and returns the addon directory.
func NewAddon1(t *testing.T) string {
	t.Helper()
	RequireGit(t)

	repo := t.TempDir()
	Git(t, repo, "init", "-q")
	addon := filepath.Join(repo, "addon_1")
	WriteFiles(t, addon, map[string]string{
		"__manifest__.py":       Addon1Manifest,
		"__init__.py":           "from . import models\n",
		"models/__init__.py":    "",
		"models/res_partner.py": "# partner\n",
		"pyproject.toml":        Addon1Pyproject,
		"README.rst":            "Addon 1\n=======\n",
	})
	Git(t, repo, "add", ".")
	Git(t, repo, "commit", "-q", "-m", "addon_1")
	return addon
}

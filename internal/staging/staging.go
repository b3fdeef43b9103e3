// Package staging assembles the on-disk tree of an artifact in a
// temporary directory before it is archived.
package staging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wodoo-build/wodoo/internal/config"
	"github.com/wodoo-build/wodoo/internal/naming"
	"github.com/wodoo-build/wodoo/internal/output"
	"github.com/wodoo-build/wodoo/internal/pkginfo"
	"github.com/wodoo-build/wodoo/internal/selector"
	"github.com/wodoo-build/wodoo/internal/version"
)

// Namespace is the top-level import package of every addon wheel.
const Namespace = "odoo"

// AddonsDir is the namespace package holding addons, relative to the wheel root.
var AddonsDir = filepath.Join(Namespace, "addons")

// Record files of the dist-info directory.
const (
	WheelFile    = "WHEEL"
	MetadataFile = "METADATA"
	TopLevelFile = "top_level.txt"
)

// Tree is a staged artifact. Root is a private temporary directory that
// Close removes.
type Tree struct {
	Root string
	// DistInfo is the dist-info directory name of wheel trees.
	DistInfo string
	// Base is the top-level directory name of sdist trees.
	Base string
}

// Close removes the staging directory.
func (t *Tree) Close() error {
	return os.RemoveAll(t.Root)
}

func newTree() (*Tree, error) {
	root, err := os.MkdirTemp("", "wodoo-staging-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	return &Tree{Root: root}, nil
}

// WheelMetadata returns the WHEEL record.
func WheelMetadata() *pkginfo.Metadata {
	md := pkginfo.New()
	md.Add("Wheel-Version", "1.0")
	md.Add("Generator", version.Generator())
	md.Add("Root-Is-Purelib", "true")
	md.Add("Tag", naming.Tag)
	return md
}

// NewWheelTree stages a wheel: the dist-info directory and, unless
// distInfoOnly is set, the addon content under odoo/addons/<addonName>.
func NewWheelTree(ctx context.Context, addonDir, addonName string, md *pkginfo.Metadata, distInfoOnly bool) (tree *Tree, err error) {
	distInfo, err := naming.DistInfoDirName(md)
	if err != nil {
		return nil, err
	}

	tree, err = newTree()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tree.Close()
			tree = nil
		}
	}()
	tree.DistInfo = distInfo

	if err := WriteDistInfo(tree.Root, distInfo, md); err != nil {
		return tree, err
	}
	if distInfoOnly {
		return tree, nil
	}

	sel, err := selector.Select(ctx, addonDir)
	if err != nil {
		return tree, err
	}
	addonsPath := filepath.Join(tree.Root, AddonsDir)
	if err := os.MkdirAll(addonsPath, 0755); err != nil {
		return tree, err
	}
	addonPath := filepath.Join(addonsPath, addonName)
	if err := sel.CopyTo(addonDir, addonPath); err != nil {
		return tree, fmt.Errorf("copying addon: %w", err)
	}

	// build inputs are not shipped in wheels
	if err := ensureAbsent(
		filepath.Join(addonPath, config.FileName),
		filepath.Join(addonPath, pkginfo.FileName),
	); err != nil {
		return tree, err
	}

	output.Debug("staged wheel", "root", tree.Root, "addon", addonName)
	return tree, nil
}

// WriteDistInfo creates dir/distInfo holding the WHEEL, METADATA and
// top_level.txt records. A dist-info directory left by a previous run is
// replaced.
func WriteDistInfo(dir, distInfo string, md *pkginfo.Metadata) error {
	path := filepath.Join(dir, distInfo)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing stale dist-info: %w", err)
	}
	if err := os.Mkdir(path, 0755); err != nil {
		return fmt.Errorf("creating dist-info: %w", err)
	}
	if err := pkginfo.WriteFile(filepath.Join(path, WheelFile), WheelMetadata()); err != nil {
		return err
	}
	if err := pkginfo.WriteFile(filepath.Join(path, MetadataFile), md); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(path, TopLevelFile), []byte(Namespace), 0644)
}

// NewSdistTree stages an sdist: the selected addon content under
// <name>-<version>/ with a PKG-INFO record at its root.
func NewSdistTree(ctx context.Context, addonDir string, md *pkginfo.Metadata) (tree *Tree, err error) {
	base, err := naming.SdistBaseName(md)
	if err != nil {
		return nil, err
	}
	sel, err := selector.Select(ctx, addonDir)
	if err != nil {
		return nil, err
	}

	tree, err = newTree()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tree.Close()
			tree = nil
		}
	}()
	tree.Base = base

	content := filepath.Join(tree.Root, base)
	if err := sel.CopyTo(addonDir, content); err != nil {
		return tree, fmt.Errorf("copying addon: %w", err)
	}
	if err := pkginfo.WriteFile(filepath.Join(content, pkginfo.FileName), md); err != nil {
		return tree, err
	}

	output.Debug("staged sdist", "root", tree.Root, "base", base)
	return tree, nil
}

func ensureAbsent(paths ...string) error {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

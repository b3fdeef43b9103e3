// Package buildapi implements the build backend operations: building a
// wheel or an sdist from an addon directory.
package buildapi

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wodoo-build/wodoo/internal/addon"
	"github.com/wodoo-build/wodoo/internal/extractor"
	"github.com/wodoo-build/wodoo/internal/metadata"
	"github.com/wodoo-build/wodoo/internal/naming"
	"github.com/wodoo-build/wodoo/internal/output"
	"github.com/wodoo-build/wodoo/internal/sdist"
	"github.com/wodoo-build/wodoo/internal/staging"
	"github.com/wodoo-build/wodoo/internal/wheelfile"
)

// ErrUnsupportedOperation is returned by hooks this backend does not implement.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// ConfigSettings are the frontend config settings. They are accepted and ignored.
type ConfigSettings map[string]any

// WheelParts is the result of BuildWheelParts.
type WheelParts struct {
	WheelName   string
	DistInfoDir string
	AddonName   string
}

// BuildWheel builds the wheel of the addon in addonDir into wheelDir and
// returns the wheel file name. metadataDirectory is ignored: the dist-info
// is always computed afresh.
func BuildWheel(addonDir, wheelDir string, _ ConfigSettings, metadataDirectory string) (string, error) {
	if metadataDirectory != "" {
		output.Debug("ignoring metadata directory hint", "dir", metadataDirectory)
	}
	parts, err := BuildWheelParts(addonDir, wheelDir, false, "")
	if err != nil {
		return "", err
	}
	return parts.WheelName, nil
}

// BuildWheelParts builds a wheel and reports the wheel file name, the
// dist-info directory name and the addon name. With distInfoOnly the wheel
// carries only the dist-info records. A non-empty localVersion is appended
// to the version of freshly extracted metadata.
func BuildWheelParts(addonDir, wheelDir string, distInfoOnly bool, localVersion string) (*WheelParts, error) {
	addonDir, err := absDir(addonDir)
	if err != nil {
		return nil, err
	}
	addonName, err := addon.Name(addonDir)
	if err != nil {
		return nil, err
	}
	resolved, err := metadata.Resolve(addonDir, localVersion)
	if err != nil {
		return nil, err
	}
	md := resolved.Metadata
	wheelName, err := naming.WheelName(md)
	if err != nil {
		return nil, err
	}

	output.Debug("building wheel", "addon", addonName, "metadata", resolved.Provenance, "dist_info_only", distInfoOnly)
	tree, err := staging.NewWheelTree(context.Background(), addonDir, addonName, md, distInfoOnly)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	if err := wheelfile.Write(tree.Root, tree.DistInfo, filepath.Join(wheelDir, wheelName)); err != nil {
		return nil, fmt.Errorf("writing wheel: %w", err)
	}
	return &WheelParts{WheelName: wheelName, DistInfoDir: tree.DistInfo, AddonName: addonName}, nil
}

// BuildSdist builds the source distribution of the addon in addonDir into
// sdistDir and returns the archive file name.
func BuildSdist(addonDir, sdistDir string, _ ConfigSettings) (string, error) {
	addonDir, err := absDir(addonDir)
	if err != nil {
		return "", err
	}
	resolved, err := metadata.Resolve(addonDir, "")
	if err != nil {
		return "", err
	}
	md := resolved.Metadata
	archiveName, err := naming.SdistArchiveName(md)
	if err != nil {
		return "", err
	}

	output.Debug("building sdist", "dir", addonDir, "metadata", resolved.Provenance)
	tree, err := staging.NewSdistTree(context.Background(), addonDir, md)
	if err != nil {
		return "", err
	}
	defer tree.Close()

	content := filepath.Join(tree.Root, tree.Base)
	if err := sdist.Write(content, tree.Base, filepath.Join(sdistDir, archiveName)); err != nil {
		return "", fmt.Errorf("writing sdist: %w", err)
	}
	return archiveName, nil
}

// PrepareMetadataForBuildWheel writes the dist-info directory of the addon
// into metadataDir and returns its name.
func PrepareMetadataForBuildWheel(addonDir, metadataDir string, _ ConfigSettings) (string, error) {
	addonDir, err := absDir(addonDir)
	if err != nil {
		return "", err
	}
	resolved, err := metadata.Resolve(addonDir, "")
	if err != nil {
		return "", err
	}
	distInfo, err := naming.DistInfoDirName(resolved.Metadata)
	if err != nil {
		return "", err
	}
	if err := staging.WriteDistInfo(metadataDir, distInfo, resolved.Metadata); err != nil {
		return "", err
	}
	return distInfo, nil
}

// BuildWheelFromSdist unpacks the sdist at sdistPath and builds its wheel
// into wheelDir, the way frontends build wheels from source distributions.
func BuildWheelFromSdist(sdistPath, wheelDir string) (*WheelParts, error) {
	tmp, err := os.MkdirTemp("", "wodoo-sdist-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	ext := extractor.NewExtractor()
	md, err := ext.ReadPKGInfo(sdistPath)
	if err != nil {
		return nil, err
	}
	addonName, ok := addon.NameFromPackage(md.Name())
	if !ok {
		return nil, fmt.Errorf("%s: %q is not an addon distribution name", sdistPath, md.Name())
	}
	root, err := ext.Extract(sdistPath, tmp)
	if err != nil {
		return nil, err
	}

	// the addon name is taken from the directory name
	addonDir := filepath.Join(tmp, addonName)
	if err := os.Rename(root, addonDir); err != nil {
		return nil, err
	}
	return BuildWheelParts(addonDir, wheelDir, false, "")
}

// GetRequiresForBuildEditable is not supported: addons cannot be
// installed in editable mode by this backend.
func GetRequiresForBuildEditable(ConfigSettings) ([]string, error) {
	return nil, fmt.Errorf("%w: get_requires_for_build_editable", ErrUnsupportedOperation)
}

// BuildEditable is not supported.
func BuildEditable(string, ConfigSettings, string) (string, error) {
	return "", fmt.Errorf("%w: build_editable", ErrUnsupportedOperation)
}

func absDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

package buildapi

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wodoo-build/wodoo/internal/extractor"
	"github.com/wodoo-build/wodoo/internal/pkginfo"
	"github.com/wodoo-build/wodoo/internal/scm"
	"github.com/wodoo-build/wodoo/internal/testutil"
)

const addon1Wheel = "odoo12_addon_addon_1-12.0.1.0.0-py3-none-any.whl"

// readWheel returns the sorted member names and the METADATA record of a wheel.
func readWheel(t *testing.T, path, distInfo string) ([]string, *pkginfo.Metadata) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	var md *pkginfo.Metadata
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name != distInfo+"/METADATA" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		md, err = pkginfo.NewParser(strings.NewReader(string(data))).Parse()
		require.NoError(t, err)
	}
	sort.Strings(names)
	require.NotNil(t, md, "METADATA missing from %s", path)
	return names, md
}

func TestBuildWheelParts(t *testing.T) {
	// Arrange
	addonDir := testutil.NewAddon1(t)
	wheelDir := t.TempDir()

	// Act
	parts, err := BuildWheelParts(addonDir, wheelDir, false, "")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "addon_1", parts.AddonName)
	assert.Equal(t, addon1Wheel, parts.WheelName)
	assert.Equal(t, "odoo12_addon_addon_1-12.0.1.0.0.dist-info", parts.DistInfoDir)
	assert.FileExists(t, filepath.Join(wheelDir, addon1Wheel))

	names, md := readWheel(t, filepath.Join(wheelDir, addon1Wheel), parts.DistInfoDir)
	assert.Equal(t, []string{
		"odoo/addons/addon_1/README.rst",
		"odoo/addons/addon_1/__init__.py",
		"odoo/addons/addon_1/__manifest__.py",
		"odoo/addons/addon_1/models/__init__.py",
		"odoo/addons/addon_1/models/res_partner.py",
		"odoo12_addon_addon_1-12.0.1.0.0.dist-info/METADATA",
		"odoo12_addon_addon_1-12.0.1.0.0.dist-info/RECORD",
		"odoo12_addon_addon_1-12.0.1.0.0.dist-info/WHEEL",
		"odoo12_addon_addon_1-12.0.1.0.0.dist-info/top_level.txt",
	}, names)
	assert.Equal(t, "odoo12-addon-addon_1", md.Name())
	assert.Equal(t, "12.0.1.0.0", md.Version())
}

func TestBuildWheelParts_DistInfoOnly(t *testing.T) {
	addonDir := testutil.NewAddon1(t)
	wheelDir := t.TempDir()

	parts, err := BuildWheelParts(addonDir, wheelDir, true, "")

	require.NoError(t, err)
	assert.Equal(t, "odoo12_addon_addon_1-12.0.1.0.0.dist-info", parts.DistInfoDir)
	names, _ := readWheel(t, filepath.Join(wheelDir, parts.WheelName), parts.DistInfoDir)
	for _, name := range names {
		assert.True(t, strings.HasPrefix(name, parts.DistInfoDir+"/"), "unexpected member %s", name)
	}
}

func TestBuildWheelParts_LocalVersion(t *testing.T) {
	addonDir := testutil.NewAddon1(t)
	wheelDir := t.TempDir()

	parts, err := BuildWheelParts(addonDir, wheelDir, false, "dev1")

	require.NoError(t, err)
	assert.Equal(t, "odoo12_addon_addon_1-12.0.1.0.0+dev1-py3-none-any.whl", parts.WheelName)
	_, md := readWheel(t, filepath.Join(wheelDir, parts.WheelName), parts.DistInfoDir)
	assert.Equal(t, "12.0.1.0.0+dev1", md.Version())
}

func TestBuildWheelParts_PreservedMetadataIgnoresLocalVersion(t *testing.T) {
	// Arrange
	addonDir := filepath.Join(t.TempDir(), "addon_1")
	testutil.WriteFiles(t, addonDir, map[string]string{
		"PKG-INFO":        "Metadata-Version: 2.1\nName: odoo12-addon-addon_1\nVersion: 12.0.1.0.0\n",
		"__manifest__.py": testutil.Addon1Manifest,
	})
	wheelDir := t.TempDir()

	// Act
	parts, err := BuildWheelParts(addonDir, wheelDir, false, "dev1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, addon1Wheel, parts.WheelName)
	names, md := readWheel(t, filepath.Join(wheelDir, parts.WheelName), parts.DistInfoDir)
	assert.Equal(t, "12.0.1.0.0", md.Version())
	assert.Contains(t, names, "odoo/addons/addon_1/__manifest__.py")
	assert.NotContains(t, names, "odoo/addons/addon_1/PKG-INFO")
}

func TestBuildWheelParts_NoSCM(t *testing.T) {
	// Arrange
	addonDir := filepath.Join(t.TempDir(), "addon_1")
	testutil.WriteFiles(t, addonDir, map[string]string{
		"__manifest__.py": testutil.Addon1Manifest,
		"pyproject.toml":  testutil.Addon1Pyproject,
	})
	wheelDir := t.TempDir()

	// Act
	parts, err := BuildWheelParts(addonDir, wheelDir, false, "")

	// Assert
	assert.Nil(t, parts)
	assert.True(t, errors.Is(err, scm.ErrNoSCMFound))
	entries, err := os.ReadDir(wheelDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildWheelParts_NotADirectory(t *testing.T) {
	_, err := BuildWheelParts(filepath.Join(t.TempDir(), "missing"), t.TempDir(), false, "")
	assert.Error(t, err)
}

func TestBuildWheel(t *testing.T) {
	addonDir := testutil.NewAddon1(t)
	wheelDir := t.TempDir()

	name, err := BuildWheel(addonDir, wheelDir, ConfigSettings{"ignored": true}, "/nonexistent")

	require.NoError(t, err)
	assert.Equal(t, addon1Wheel, name)
	assert.FileExists(t, filepath.Join(wheelDir, name))
}

func TestBuildSdist_RoundTrip(t *testing.T) {
	// Arrange
	addonDir := testutil.NewAddon1(t)
	sdistDir := t.TempDir()

	// Act
	sdistName, err := BuildSdist(addonDir, sdistDir, nil)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "odoo12-addon-addon_1-12.0.1.0.0.tar.gz", sdistName)
	sdistPath := filepath.Join(sdistDir, sdistName)
	root, err := extractor.NewExtractor().Extract(sdistPath, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "odoo12-addon-addon_1-12.0.1.0.0", filepath.Base(root))
	assert.Equal(t, []string{
		"PKG-INFO",
		"README.rst",
		"__init__.py",
		"__manifest__.py",
		"models/__init__.py",
		"models/res_partner.py",
		"pyproject.toml",
	}, testutil.ListFiles(t, root))

	// the unpacked sdist builds the same distribution, even with a local version
	unpacked := filepath.Join(t.TempDir(), "addon_1")
	require.NoError(t, os.Rename(root, unpacked))
	wheelDir := t.TempDir()
	parts, err := BuildWheelParts(unpacked, wheelDir, false, "dev1")
	require.NoError(t, err)
	assert.Equal(t, addon1Wheel, parts.WheelName)
	assert.Equal(t, "addon_1", parts.AddonName)
	_, md := readWheel(t, filepath.Join(wheelDir, parts.WheelName), parts.DistInfoDir)
	assert.Equal(t, "odoo12-addon-addon_1", md.Name())
	assert.Equal(t, "12.0.1.0.0", md.Version())

	// and rebuilding the sdist from it yields the same archive name
	again, err := BuildSdist(unpacked, t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, sdistName, again)
}

func TestBuildWheelFromSdist(t *testing.T) {
	// Arrange
	addonDir := testutil.NewAddon1(t)
	sdistDir := t.TempDir()
	sdistName, err := BuildSdist(addonDir, sdistDir, nil)
	require.NoError(t, err)
	wheelDir := t.TempDir()

	// Act
	parts, err := BuildWheelFromSdist(filepath.Join(sdistDir, sdistName), wheelDir)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "addon_1", parts.AddonName)
	assert.Equal(t, addon1Wheel, parts.WheelName)
	names, _ := readWheel(t, filepath.Join(wheelDir, parts.WheelName), parts.DistInfoDir)
	assert.Contains(t, names, "odoo/addons/addon_1/models/res_partner.py")
	assert.NotContains(t, names, "odoo/addons/addon_1/pyproject.toml")
}

func TestPrepareMetadataForBuildWheel(t *testing.T) {
	// no version control needed for metadata only
	addonDir := filepath.Join(t.TempDir(), "addon_1")
	testutil.WriteFiles(t, addonDir, map[string]string{
		"__manifest__.py": testutil.Addon1Manifest,
		"pyproject.toml":  testutil.Addon1Pyproject,
	})
	metadataDir := t.TempDir()

	distInfo, err := PrepareMetadataForBuildWheel(addonDir, metadataDir, nil)

	require.NoError(t, err)
	assert.Equal(t, "odoo12_addon_addon_1-12.0.1.0.0.dist-info", distInfo)
	assert.Equal(t, []string{
		distInfo + "/METADATA",
		distInfo + "/WHEEL",
		distInfo + "/top_level.txt",
	}, testutil.ListFiles(t, metadataDir))
	md, err := pkginfo.ReadFile(filepath.Join(metadataDir, distInfo, "METADATA"))
	require.NoError(t, err)
	assert.Equal(t, "odoo12-addon-addon_1", md.Name())
}

func TestPrepareMetadataForBuildWheel_Twice(t *testing.T) {
	addonDir := filepath.Join(t.TempDir(), "addon_1")
	testutil.WriteFiles(t, addonDir, map[string]string{
		"__manifest__.py": testutil.Addon1Manifest,
		"pyproject.toml":  testutil.Addon1Pyproject,
	})
	metadataDir := t.TempDir()

	_, err := PrepareMetadataForBuildWheel(addonDir, metadataDir, nil)
	require.NoError(t, err)
	distInfo, err := PrepareMetadataForBuildWheel(addonDir, metadataDir, nil)

	require.NoError(t, err)
	assert.Len(t, testutil.ListFiles(t, metadataDir), 3)
	assert.FileExists(t, filepath.Join(metadataDir, distInfo, "METADATA"))
}

func TestUnsupportedOperations(t *testing.T) {
	_, err := GetRequiresForBuildEditable(nil)
	assert.True(t, errors.Is(err, ErrUnsupportedOperation))

	_, err = BuildEditable(t.TempDir(), nil, "")
	assert.True(t, errors.Is(err, ErrUnsupportedOperation))
}

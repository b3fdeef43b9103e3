// Package naming derives artifact and directory names from package metadata.
package naming

import (
	"strings"

	"github.com/wodoo-build/wodoo/internal/pkginfo"
)

// Tag is the wheel compatibility tag: pure Python 3, any ABI, any platform.
// TODO: Odoo <= 10 runs on Python 2 and should get py2-none-any.
const Tag = "py3-none-any"

// SdistExt is the extension of source distribution archives.
const SdistExt = ".tar.gz"

func wheelSafeName(md *pkginfo.Metadata) string {
	return strings.ReplaceAll(md.Name(), "-", "_")
}

// WheelName returns "<name_>-<version>-<tag>.whl".
func WheelName(md *pkginfo.Metadata) (string, error) {
	if err := md.Validate(); err != nil {
		return "", err
	}
	return wheelSafeName(md) + "-" + md.Version() + "-" + Tag + ".whl", nil
}

// DistInfoDirName returns "<name_>-<version>.dist-info".
func DistInfoDirName(md *pkginfo.Metadata) (string, error) {
	if err := md.Validate(); err != nil {
		return "", err
	}
	return wheelSafeName(md) + "-" + md.Version() + ".dist-info", nil
}

// SdistBaseName returns "<name>-<version>". Unlike wheel names, hyphens in
// the name are kept.
func SdistBaseName(md *pkginfo.Metadata) (string, error) {
	if err := md.Validate(); err != nil {
		return "", err
	}
	return md.Name() + "-" + md.Version(), nil
}

// SdistArchiveName returns "<name>-<version>.tar.gz".
func SdistArchiveName(md *pkginfo.Metadata) (string, error) {
	base, err := SdistBaseName(md)
	if err != nil {
		return "", err
	}
	return base + SdistExt, nil
}

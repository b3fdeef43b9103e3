// Package metadata resolves the core metadata record of the addon being built.
package metadata

import (
	"fmt"
	"path/filepath"

	"github.com/wodoo-build/wodoo/internal/addon"
	"github.com/wodoo-build/wodoo/internal/config"
	"github.com/wodoo-build/wodoo/internal/output"
	"github.com/wodoo-build/wodoo/internal/pkginfo"
)

// Provenance tells where a resolved record comes from.
type Provenance int

const (
	// Extracted records are computed from the addon manifest and the
	// pyproject.toml overrides.
	Extracted Provenance = iota
	// Preserved records are read verbatim from the PKG-INFO of an
	// unpacked sdist.
	Preserved
)

func (p Provenance) String() string {
	switch p {
	case Extracted:
		return "extracted"
	case Preserved:
		return "preserved"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// Resolved is a metadata record together with its provenance.
type Resolved struct {
	Metadata   *pkginfo.Metadata
	Provenance Provenance
}

// Resolve returns the metadata of the addon in addonDir.
//
// If addonDir holds a PKG-INFO record it is returned unchanged and
// localVersion is ignored, so that rebuilding from an sdist keeps the same
// Name and Version. Otherwise the record is extracted from the manifest and
// a non-empty localVersion is appended as "<version>+<localVersion>".
func Resolve(addonDir, localVersion string) (*Resolved, error) {
	if pkginfo.Exists(addonDir) {
		md, err := pkginfo.ReadFile(filepath.Join(addonDir, pkginfo.FileName))
		if err != nil {
			return nil, err
		}
		if err := md.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", pkginfo.FileName, err)
		}
		if localVersion != "" {
			output.Debug("ignoring local version for preserved metadata", "local", localVersion)
		}
		return &Resolved{Metadata: md, Provenance: Preserved}, nil
	}

	opts, err := config.Load(addonDir)
	if err != nil {
		return nil, err
	}
	md, err := addon.GetAddonMetadata(addonDir, opts)
	if err != nil {
		return nil, fmt.Errorf("extracting metadata: %w", err)
	}
	if localVersion != "" {
		md.Set("Version", md.Version()+"+"+localVersion)
	}
	output.Debug("extracted metadata", "name", md.Name(), "version", md.Version())
	return &Resolved{Metadata: md, Provenance: Extracted}, nil
}

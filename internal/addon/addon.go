// Package addon extracts Python package metadata from an Odoo addon
// manifest, following the setuptools-odoo naming conventions.
package addon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/wodoo-build/wodoo/internal/config"
	"github.com/wodoo-build/wodoo/internal/manifest"
	"github.com/wodoo-build/wodoo/internal/pkginfo"
)

var (
	// ErrNotInstallable is returned for manifests with installable=False.
	ErrNotInstallable = errors.New("addon is not installable")
	// ErrBadVersion is returned when no valid version can be computed.
	ErrBadVersion = errors.New("invalid addon version")
)

const metadataVersion = "2.1"

const ocaAuthor = "Odoo Community Association (OCA)"

var licenseClassifiers = map[string]string{
	"AGPL-3":            "License :: OSI Approved :: GNU Affero General Public License v3",
	"GPL-2":             "License :: OSI Approved :: GNU General Public License v2 (GPLv2)",
	"GPL-3":             "License :: OSI Approved :: GNU General Public License v3 (GPLv3)",
	"LGPL-3":            "License :: OSI Approved :: GNU Lesser General Public License v3 (LGPLv3)",
	"MIT":               "License :: OSI Approved :: MIT License",
	"OEEL-1":            "License :: Other/Proprietary License",
	"OPL-1":             "License :: Other/Proprietary License",
	"Other proprietary": "License :: Other/Proprietary License",
}

var developmentStatusClassifiers = map[string]string{
	"alpha":             "Development Status :: 3 - Alpha",
	"beta":              "Development Status :: 4 - Beta",
	"production/stable": "Development Status :: 5 - Production/Stable",
	"stable":            "Development Status :: 5 - Production/Stable",
	"production":        "Development Status :: 5 - Production/Stable",
	"mature":            "Development Status :: 6 - Mature",
}

var readmes = []struct {
	name        string
	contentType string
}{
	{"README.rst", "text/x-rst"},
	{"README.md", "text/markdown"},
	{"README.txt", "text/plain"},
}

// Name returns the addon technical name: the last component of the
// resolved addon directory.
func Name(addonDir string) (string, error) {
	abs, err := filepath.Abs(addonDir)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.Base(abs), nil
}

var packageNameRe = regexp.MustCompile(`^odoo\d+-addon-(.+)$`)

// NameFromPackage returns the addon name of an addon distribution name
// ("odoo12-addon-mis_builder" -> "mis_builder").
func NameFromPackage(pkgName string) (string, bool) {
	m := packageNameRe.FindStringSubmatch(pkgName)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// GetAddonMetadata builds the core metadata record of the addon in addonDir.
func GetAddonMetadata(addonDir string, opts *config.Options) (*pkginfo.Metadata, error) {
	if opts == nil {
		opts = &config.Options{}
	}

	addonName, err := Name(addonDir)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Read(addonDir)
	if err != nil {
		return nil, err
	}
	if !m.Installable {
		return nil, fmt.Errorf("%w: %s", ErrNotInstallable, addonName)
	}

	version, series, err := Version(m.Version, opts.OdooVersionOverride)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", addonName, err)
	}

	md := pkginfo.New()
	md.Add("Metadata-Version", metadataVersion)
	md.Add("Name", series.PackageName(addonName))
	md.Add("Version", version)
	summary := m.Summary
	if summary == "" {
		summary = m.Name
	}
	md.Add("Summary", strings.TrimSpace(summary))
	if m.Website != "" {
		md.Add("Home-page", m.Website)
	}
	if m.Author != "" {
		md.Add("Author", m.Author)
		if strings.Contains(m.Author, ocaAuthor) {
			md.Add("Author-email", "support@odoo-community.org")
		}
	}
	if m.License != "" {
		md.Add("License", m.License)
	}
	md.Add("Requires-Python", series.PythonRequires)
	for _, req := range InstallRequires(m, series, opts) {
		md.Add("Requires-Dist", req)
	}
	for _, c := range Classifiers(m, series) {
		md.Add("Classifier", c)
	}

	body, contentType, err := longDescription(addonDir, m)
	if err != nil {
		return nil, err
	}
	if body != "" {
		md.Add("Description-Content-Type", contentType)
		md.Body = body
	}

	if err := md.Validate(); err != nil {
		return nil, err
	}
	return md, nil
}

// Version computes the distribution version from the manifest version.
// Without override the manifest version must have at least 5 components,
// the first two being the series. With an override, a 3 component version
// is prefixed with it and a longer one must start with it.
func Version(manifestVersion, override string) (string, *Series, error) {
	if manifestVersion == "" {
		return "", nil, fmt.Errorf("%w: no version in manifest", ErrBadVersion)
	}
	parts := strings.Split(manifestVersion, ".")

	if override == "" {
		if len(parts) < 5 {
			return "", nil, fmt.Errorf("%w: %q must have at least 5 components and start with the Odoo series",
				ErrBadVersion, manifestVersion)
		}
		series, err := LookupSeries(parts[0] + "." + parts[1])
		if err != nil {
			return "", nil, err
		}
		return manifestVersion, series, nil
	}

	series, err := LookupSeries(override)
	if err != nil {
		return "", nil, err
	}
	switch {
	case len(parts) == 3:
		return override + "." + manifestVersion, series, nil
	case len(parts) >= 5 && strings.HasPrefix(manifestVersion, override+"."):
		return manifestVersion, series, nil
	default:
		return "", nil, fmt.Errorf("%w: %q does not match series %s", ErrBadVersion, manifestVersion, override)
	}
}

// InstallRequires computes the sorted Requires-Dist entries.
func InstallRequires(m *manifest.Manifest, series *Series, opts *config.Options) []string {
	reqs := map[string]bool{series.OdooRequirement: true}

	for _, dep := range m.Depends {
		switch {
		case opts.DependsOverride[dep] != "":
			reqs[opts.DependsOverride[dep]] = true
		case IsCoreAddon(dep):
			// covered by the Odoo requirement
		default:
			reqs[series.PackageName(dep)+series.AddonDepVersion] = true
		}
	}

	pyOverride := opts.ExternalDependenciesOverride["python"]
	for _, dep := range m.ExternalDependencies["python"] {
		if o, ok := pyOverride[dep]; ok {
			dep = o
		}
		if dep != "" {
			reqs[dep] = true
		}
	}

	out := make([]string, 0, len(reqs))
	for r := range reqs {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Classifiers returns the trove classifiers of the addon.
func Classifiers(m *manifest.Manifest, series *Series) []string {
	classifiers := []string{"Programming Language :: Python"}
	if series.Python3 {
		classifiers = append(classifiers, "Programming Language :: Python :: 3")
	}
	classifiers = append(classifiers,
		"Framework :: Odoo",
		"Framework :: Odoo :: "+series.Version,
	)
	if c, ok := licenseClassifiers[m.License]; ok {
		classifiers = append(classifiers, c)
	}
	if c, ok := developmentStatusClassifiers[strings.ToLower(m.DevelopmentStatus)]; ok {
		classifiers = append(classifiers, c)
	}
	return classifiers
}

// longDescription reads the addon README, falling back to the manifest
// description.
func longDescription(addonDir string, m *manifest.Manifest) (string, string, error) {
	for _, r := range readmes {
		data, err := os.ReadFile(filepath.Join(addonDir, r.name))
		if err == nil {
			return string(data), r.contentType, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", "", fmt.Errorf("reading %s: %w", r.name, err)
		}
	}
	if desc := strings.TrimSpace(m.Description); desc != "" {
		return desc + "\n", "text/x-rst", nil
	}
	return "", "", nil
}

// Package manifest reads Odoo addon manifests (__manifest__.py).
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoManifest is returned when a directory holds no addon manifest.
var ErrNoManifest = errors.New("no addon manifest found")

// FileNames lists the manifest file names in lookup order.
var FileNames = []string{"__manifest__.py", "__openerp__.py", "__terp__.py"}

// Manifest holds the manifest keys used to build package metadata.
type Manifest struct {
	Name                 string
	Version              string
	Summary              string
	Description          string
	Author               string
	Website              string
	License              string
	DevelopmentStatus    string
	Installable          bool
	Depends              []string
	ExternalDependencies map[string][]string
}

// Find returns the path of the manifest inside addonDir.
func Find(addonDir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(addonDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoManifest, addonDir)
}

// Read locates and parses the manifest of the addon in addonDir.
func Read(addonDir string) (*Manifest, error) {
	path, err := Find(addonDir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// Parse evaluates the manifest source, which must be a single dict literal.
func Parse(src string) (*Manifest, error) {
	v, err := parseLiteral(src)
	if err != nil {
		return nil, err
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, &SyntaxError{Line: 1, Msg: fmt.Sprintf("manifest must be a dict, got %T", v)}
	}

	m := &Manifest{
		Installable:          true,
		ExternalDependencies: make(map[string][]string),
	}
	fields := []struct {
		key string
		dst *string
	}{
		{"name", &m.Name},
		{"version", &m.Version},
		{"summary", &m.Summary},
		{"description", &m.Description},
		{"website", &m.Website},
		{"license", &m.License},
		{"development_status", &m.DevelopmentStatus},
	}
	for _, f := range fields {
		if *f.dst, err = stringField(raw, f.key); err != nil {
			return nil, err
		}
	}

	// author may be a string or a list of strings
	switch a := raw["author"].(type) {
	case nil:
	case string:
		m.Author = a
	case []any:
		authors, err := stringList(a, "author")
		if err != nil {
			return nil, err
		}
		m.Author = strings.Join(authors, ", ")
	default:
		return nil, fmt.Errorf("manifest key author: unexpected %T", a)
	}

	if v, ok := raw["installable"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return nil, fmt.Errorf("manifest key installable: expected bool, got %T", v)
		}
		m.Installable = b
	}

	if v, ok := raw["depends"]; ok && v != nil {
		list, isList := v.([]any)
		if !isList {
			return nil, fmt.Errorf("manifest key depends: expected list, got %T", v)
		}
		if m.Depends, err = stringList(list, "depends"); err != nil {
			return nil, err
		}
	}

	if v, ok := raw["external_dependencies"]; ok && v != nil {
		ext, isDict := v.(map[string]any)
		if !isDict {
			return nil, fmt.Errorf("manifest key external_dependencies: expected dict, got %T", v)
		}
		for kind, deps := range ext {
			list, isList := deps.([]any)
			if !isList {
				return nil, fmt.Errorf("manifest key external_dependencies[%s]: expected list, got %T", kind, deps)
			}
			if m.ExternalDependencies[kind], err = stringList(list, "external_dependencies."+kind); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

func stringField(raw map[string]any, key string) (string, error) {
	switch v := raw[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("manifest key %s: expected string, got %T", key, v)
	}
}

func stringList(list []any, key string) ([]string, error) {
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("manifest key %s: expected string items, got %T", key, item)
		}
		out = append(out, s)
	}
	return out, nil
}

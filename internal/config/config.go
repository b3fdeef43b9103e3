// Package config loads build options from the addon's pyproject.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the project configuration file looked up at the addon root.
const FileName = "pyproject.toml"

// Options are the [tool.wodoo.options] settings used during metadata extraction.
type Options struct {
	// DependsOverride maps an addon dependency to the requirement to emit
	// instead of the default one (e.g. "mis_builder" -> "odoo12-addon-mis_builder>=12.0.3").
	DependsOverride map[string]string `toml:"depends_override"`
	// ExternalDependenciesOverride maps a kind ("python") to a map of
	// manifest external dependency -> requirement string.
	ExternalDependenciesOverride map[string]map[string]string `toml:"external_dependencies_override"`
	// OdooVersionOverride is the Odoo series (e.g. "12.0") used when the
	// manifest version does not start with it.
	OdooVersionOverride string `toml:"odoo_version_override"`
}

type pyproject struct {
	Tool struct {
		Wodoo struct {
			Options Options `toml:"options"`
		} `toml:"wodoo"`
	} `toml:"tool"`
}

// Load reads the options of the addon in addonDir.
// Returns empty options if pyproject.toml is absent or has no [tool.wodoo.options].
func Load(addonDir string) (*Options, error) {
	path := filepath.Join(addonDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return empty(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}
	return Parse(data)
}

// Parse decodes pyproject.toml content.
func Parse(data []byte) (*Options, error) {
	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	opts := doc.Tool.Wodoo.Options
	if opts.DependsOverride == nil {
		opts.DependsOverride = make(map[string]string)
	}
	if opts.ExternalDependenciesOverride == nil {
		opts.ExternalDependenciesOverride = make(map[string]map[string]string)
	}
	return &opts, nil
}

func empty() *Options {
	return &Options{
		DependsOverride:              make(map[string]string),
		ExternalDependenciesOverride: make(map[string]map[string]string),
	}
}

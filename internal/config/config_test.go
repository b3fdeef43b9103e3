package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Missing(t *testing.T) {
	opts, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, opts.DependsOverride)
	assert.NotNil(t, opts.DependsOverride)
	assert.Empty(t, opts.ExternalDependenciesOverride)
	assert.Empty(t, opts.OdooVersionOverride)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Options
	}{
		{
			name:    "no tool section",
			content: "[build-system]\nrequires = [\"wodoo\"]\n",
			want: Options{
				DependsOverride:              map[string]string{},
				ExternalDependenciesOverride: map[string]map[string]string{},
			},
		},
		{
			name: "all options",
			content: `[tool.wodoo.options]
odoo_version_override = "12.0"

[tool.wodoo.options.depends_override]
mis_builder = "odoo12-addon-mis_builder>=12.0.3.5"

[tool.wodoo.options.external_dependencies_override.python]
ldap = "python-ldap"
`,
			want: Options{
				DependsOverride: map[string]string{"mis_builder": "odoo12-addon-mis_builder>=12.0.3.5"},
				ExternalDependenciesOverride: map[string]map[string]string{
					"python": {"ldap": "python-ldap"},
				},
				OdooVersionOverride: "12.0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(tt.content), 0644))

			// Act
			opts, err := Load(dir)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.want, *opts)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{{{invalid toml"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

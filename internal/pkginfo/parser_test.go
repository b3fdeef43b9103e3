package pkginfo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	input := `Metadata-Version: 2.1
Name: odoo12-addon-addon_1
Version: 12.0.1.0.0
Summary: Addon 1 summary
Requires-Dist: odoo<12.1dev,>=12.0a
Requires-Dist: odoo12-addon-mis_builder
Classifier: Framework :: Odoo
`

	md, err := NewParser(strings.NewReader(input)).Parse()
	require.NoError(t, err)

	assert.Equal(t, "odoo12-addon-addon_1", md.Name())
	assert.Equal(t, "12.0.1.0.0", md.Version())
	assert.Equal(t, "Addon 1 summary", md.Get("summary"))
	assert.Equal(t, []string{"odoo<12.1dev,>=12.0a", "odoo12-addon-mis_builder"}, md.GetAll("Requires-Dist"))
	assert.Len(t, md.Headers, 7)
	assert.Empty(t, md.Body)
}

func TestParser_Parse_CRLF(t *testing.T) {
	input := "Metadata-Version: 2.1\r\n" +
		"Name: odoo12-addon-addon_1\r\n" +
		"Version: 12.0.1.0.0\r\n" +
		"Description: first\r\n" +
		"        second\r\n" +
		"\r\n" +
		"Long description\r\n"

	md, err := NewParser(strings.NewReader(input)).Parse()
	require.NoError(t, err)

	assert.Equal(t, "odoo12-addon-addon_1", md.Name())
	assert.Equal(t, "12.0.1.0.0", md.Version())
	assert.Equal(t, "first\nsecond", md.Get("Description"))
	assert.Equal(t, "Long description\n", md.Body)
}

func TestParser_Parse_ContinuationAndBody(t *testing.T) {
	input := "Name: foo\n" +
		"Description: first line\n" +
		"        second line\n" +
		"\tthird line\n" +
		"Version: 1.0\n" +
		"\n" +
		"Long description\n" +
		"\n" +
		"with paragraphs\n"

	md, err := NewParser(strings.NewReader(input)).Parse()
	require.NoError(t, err)

	assert.Equal(t, "first line\nsecond line\nthird line", md.Get("Description"))
	assert.Equal(t, "1.0", md.Version())
	assert.Equal(t, "Long description\n\nwith paragraphs\n", md.Body)
}

func TestParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"leading continuation", "  orphan\nName: foo\n"},
		{"no colon", "Name foo\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(strings.NewReader(tt.input)).Parse()
			assert.Error(t, err)
		})
	}
}

func TestReadFile(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "PKG-INFO")
	require.NoError(t, os.WriteFile(path, []byte("Name: foo\nVersion: 2.0\n"), 0644))

	// Act
	md, err := ReadFile(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "foo", md.Name())
	assert.Equal(t, "2.0", md.Version())
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "PKG-INFO"))
	assert.True(t, os.IsNotExist(err))
}

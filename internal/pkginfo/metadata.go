package pkginfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidMetadata is returned when a record lacks a usable Name or Version.
var ErrInvalidMetadata = errors.New("invalid package metadata")

// Header is a single "Key: value" field of a metadata record.
type Header struct {
	Key   string
	Value string
}

// Metadata is a core metadata record as found in PKG-INFO or METADATA files.
// Header order is preserved and keys may repeat (Requires-Dist, Classifier).
type Metadata struct {
	Headers []Header
	Body    string // payload after the blank line, usually the long description
}

// New creates an empty metadata record.
func New() *Metadata {
	return &Metadata{}
}

// Get returns the value of the first header matching key, case-insensitively.
func (m *Metadata) Get(key string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value
		}
	}
	return ""
}

// GetAll returns every value for key in record order.
func (m *Metadata) GetAll(key string) []string {
	var values []string
	for _, h := range m.Headers {
		if strings.EqualFold(h.Key, key) {
			values = append(values, h.Value)
		}
	}
	return values
}

// Add appends a header, keeping any existing ones with the same key.
func (m *Metadata) Add(key, value string) {
	m.Headers = append(m.Headers, Header{Key: key, Value: value})
}

// Set replaces the value of the first header matching key in place.
// The header is appended when absent.
func (m *Metadata) Set(key, value string) {
	for i, h := range m.Headers {
		if strings.EqualFold(h.Key, key) {
			m.Headers[i].Value = value
			return
		}
	}
	m.Add(key, value)
}

// Name returns the distribution name.
func (m *Metadata) Name() string {
	return m.Get("Name")
}

// Version returns the distribution version.
func (m *Metadata) Version() string {
	return m.Get("Version")
}

// Validate checks that Name and Version are present and that Name can be
// used as part of a file name.
func (m *Metadata) Validate() error {
	name := strings.TrimSpace(m.Name())
	if name == "" {
		return fmt.Errorf("%w: missing Name", ErrInvalidMetadata)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: Name %q contains a path separator", ErrInvalidMetadata, name)
	}
	version := strings.TrimSpace(m.Version())
	if version == "" {
		return fmt.Errorf("%w: missing Version", ErrInvalidMetadata)
	}
	if strings.ContainsAny(version, `/\`) {
		return fmt.Errorf("%w: Version %q contains a path separator", ErrInvalidMetadata, version)
	}
	return nil
}

// FileName is the name of the metadata record at the root of an sdist.
const FileName = "PKG-INFO"

// Exists reports whether dir holds a PKG-INFO record, meaning dir is an
// unpacked source distribution.
func Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil && !info.IsDir()
}

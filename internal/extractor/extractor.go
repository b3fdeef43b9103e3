// Package extractor unpacks source distributions.
package extractor

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/wodoo-build/wodoo/internal/pkginfo"
)

// ErrNoPKGInfo is returned for tarballs without a top-level PKG-INFO.
var ErrNoPKGInfo = errors.New("no PKG-INFO found in sdist")

// Extractor reads and unpacks sdist tarballs.
type Extractor struct{}

// NewExtractor creates a new extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ReadPKGInfo reads the PKG-INFO record of an sdist without unpacking it.
func (e *Extractor) ReadPKGInfo(tarballPath string) (*pkginfo.Metadata, error) {
	var md *pkginfo.Metadata
	err := e.walk(tarballPath, func(header *tar.Header, r io.Reader) error {
		// Only look at top-level files (one directory deep)
		parts := strings.Split(strings.TrimPrefix(header.Name, "./"), "/")
		if len(parts) != 2 || parts[1] != pkginfo.FileName {
			return nil
		}
		var err error
		md, err = pkginfo.NewParser(r).Parse()
		if err != nil {
			return fmt.Errorf("parsing %s: %w", header.Name, err)
		}
		return errStop
	})
	if err != nil {
		return nil, err
	}
	if md == nil {
		return nil, ErrNoPKGInfo
	}
	return md, nil
}

// Extract unpacks the tarball into destDir and returns the path of the
// extracted top-level directory.
func (e *Extractor) Extract(tarballPath, destDir string) (string, error) {
	var rootDir string

	err := e.walk(tarballPath, func(header *tar.Header, r io.Reader) error {
		name := strings.TrimPrefix(header.Name, "./")

		// Get the root directory name from the first entry
		parts := strings.SplitN(name, "/", 2)
		if rootDir == "" && parts[0] != "" {
			rootDir = parts[0]
		}
		if parts[0] != rootDir {
			return fmt.Errorf("member %s outside of %s", header.Name, rootDir)
		}

		target := filepath.Join(destDir, filepath.FromSlash(name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("member %s escapes destination", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			return os.MkdirAll(target, 0755)
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode).Perm())
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, r); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", tarballPath, err)
	}
	if rootDir == "" {
		return "", fmt.Errorf("extracting %s: empty archive", tarballPath)
	}

	return filepath.Join(destDir, rootDir), nil
}

var errStop = errors.New("stop")

func (e *Extractor) walk(tarballPath string, fn func(*tar.Header, io.Reader) error) error {
	file, err := os.Open(tarballPath)
	if err != nil {
		return fmt.Errorf("opening tarball: %w", err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("decompressing tarball: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tarball: %w", err)
		}
		if err := fn(header, tarReader); err != nil {
			if err == errStop {
				return nil
			}
			return err
		}
	}
}

package pkginfo

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Emitter writes metadata records in the RFC 822 style used by
// PKG-INFO, METADATA and WHEEL files.
type Emitter struct {
	w io.Writer
}

// NewEmitter creates a new metadata emitter.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes headers in record order, then the body if any.
// Headers are never re-wrapped; multi-line values are folded with an
// indented continuation so that Parse restores them unchanged.
func (e *Emitter) Emit(md *Metadata) error {
	for _, h := range md.Headers {
		value := strings.ReplaceAll(h.Value, "\n", "\n"+continuationIndent)
		if _, err := fmt.Fprintf(e.w, "%s: %s\n", h.Key, value); err != nil {
			return err
		}
	}

	if md.Body == "" {
		return nil
	}

	if _, err := fmt.Fprint(e.w, "\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprint(e.w, md.Body); err != nil {
		return err
	}
	if !strings.HasSuffix(md.Body, "\n") {
		if _, err := fmt.Fprint(e.w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile stores md at path, replacing any existing file.
func WriteFile(path string, md *Metadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := NewEmitter(f).Emit(md); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

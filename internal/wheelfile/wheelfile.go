// Package wheelfile writes wheel archives: zip files carrying a RECORD
// manifest with the hash and size of every member.
package wheelfile

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/wodoo-build/wodoo/internal/output"
)

// RecordFile is the name of the manifest inside the dist-info directory.
const RecordFile = "RECORD"

// minTime is the earliest timestamp representable in a zip entry.
var minTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Writer builds a wheel archive.
type Writer struct {
	zw       *zip.Writer
	distInfo string
	records  [][]string
	mtime    *time.Time
}

// NewWriter creates a wheel writer on w. distInfo is the name of the
// dist-info directory where RECORD is stored on Close.
func NewWriter(w io.Writer, distInfo string) *Writer {
	ww := &Writer{zw: zip.NewWriter(w), distInfo: distInfo}
	if epoch := os.Getenv("SOURCE_DATE_EPOCH"); epoch != "" {
		if secs, err := strconv.ParseInt(epoch, 10, 64); err == nil {
			t := time.Unix(secs, 0).UTC()
			ww.mtime = &t
		}
	}
	return ww
}

// WriteFile adds the file at src as the archive member name.
func (w *Writer) WriteFile(name, src string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	return w.write(name, info.Mode().Perm(), info.ModTime(), f)
}

func (w *Writer) write(name string, perm fs.FileMode, mtime time.Time, r io.Reader) error {
	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: w.timestamp(mtime),
	}
	hdr.SetMode(perm)

	dst, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(dst, h), r)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}

	digest := "sha256=" + base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	w.records = append(w.records, []string{name, digest, strconv.FormatInt(n, 10)})
	return nil
}

func (w *Writer) timestamp(t time.Time) time.Time {
	if w.mtime != nil {
		t = *w.mtime
	}
	if t.Before(minTime) {
		return minTime
	}
	return t.UTC()
}

// Close writes RECORD and finishes the archive.
func (w *Writer) Close() error {
	recordName := path.Join(w.distInfo, RecordFile)

	var sb strings.Builder
	cw := csv.NewWriter(&sb)
	for _, rec := range w.records {
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{recordName, "", ""}); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	hdr := &zip.FileHeader{Name: recordName, Method: zip.Deflate, Modified: w.timestamp(time.Now())}
	hdr.SetMode(0644)
	dst, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(dst, sb.String()); err != nil {
		return err
	}
	return w.zw.Close()
}

// Write archives the staged tree at srcDir into the wheel at outPath.
// distInfo is the dist-info directory inside srcDir. Package content is
// written first, then the dist-info records, then RECORD. Members are
// sorted so that the archive does not depend on directory order.
func Write(srcDir, distInfo, outPath string) (err error) {
	content, records, err := collect(srcDir, distInfo)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(outPath)
		}
	}()

	w := NewWriter(f, distInfo)
	for _, name := range append(content, records...) {
		if err := w.WriteFile(name, filepath.Join(srcDir, filepath.FromSlash(name))); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing wheel: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	output.Debug("wrote wheel", "path", outPath, "members", len(content)+len(records)+1)
	return nil
}

// collect lists regular files below srcDir as slash paths, splitting
// package content from dist-info records.
func collect(srcDir, distInfo string) (content, records []string, err error) {
	recordPath := path.Join(distInfo, RecordFile)
	err = filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return fmt.Errorf("%s: not a regular file", p)
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		switch {
		case name == recordPath:
			// regenerated on Close
		case strings.HasPrefix(name, distInfo+"/"):
			records = append(records, name)
		default:
			content = append(content, name)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", srcDir, err)
	}
	sort.Strings(content)
	sort.Strings(records)
	return content, records, nil
}

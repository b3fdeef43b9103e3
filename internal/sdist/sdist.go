// Package sdist writes source distribution archives: gzip compressed PAX
// tarballs with a single top-level directory.
package sdist

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/wodoo-build/wodoo/internal/output"
)

// Write archives the directory srcDir into the tarball at outPath. Every
// member is placed below arcRoot, whatever the name of srcDir on disk.
func Write(srcDir, arcRoot, outPath string) (err error) {
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

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	mtime := sourceDateEpoch()

	count := 0
	// WalkDir visits entries in lexical order
	err = filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		name := arcRoot
		if rel != "." {
			name = path.Join(arcRoot, filepath.ToSlash(rel))
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			output.Debug("skipping special file", "file", p)
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = name
		hdr.Format = tar.FormatPAX
		normalize(hdr, mtime)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing header for %s: %w", name, err)
		}
		count++
		if info.IsDir() {
			return nil
		}

		src, err := os.Open(p)
		if err != nil {
			return err
		}
		defer src.Close()
		if _, err := io.Copy(tw, src); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	output.Debug("wrote sdist", "path", outPath, "members", count)
	return nil
}

// normalize drops the local ownership and access times that
// tar.FileInfoHeader copies from the file system, so that the archive
// only depends on names, modes, contents and mtime.
func normalize(hdr *tar.Header, mtime *time.Time) {
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""
	hdr.AccessTime = time.Time{}
	hdr.ChangeTime = time.Time{}
	if mtime != nil {
		hdr.ModTime = *mtime
	} else {
		hdr.ModTime = hdr.ModTime.Truncate(time.Second)
	}
}

func sourceDateEpoch() *time.Time {
	epoch := os.Getenv("SOURCE_DATE_EPOCH")
	if epoch == "" {
		return nil
	}
	secs, err := strconv.ParseInt(epoch, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}

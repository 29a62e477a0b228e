// Package archive assembles job clips into zip streams, either for a single
// job or for a batch of jobs with a manifest of per-job problems.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	FlaggedFolder   = "dawOnly"
	UnflaggedFolder = "dawMaybeNotUse"
	AllFolder       = "all"

	ManifestName = "_errors.txt"
)

// ErrNotFound is returned when a job has no clip directory.
var ErrNotFound = errors.New("clips not found")

// Entry is one clip file to be stored in the archive.
type Entry struct {
	JobID string
	// Name is the slash-separated path inside the archive.
	Name string
	// Path is the file on disk.
	Path string
	Size int64
}

// Plan is a fully resolved archive: which files go where, and which problems
// are reported in the manifest. Nothing is read until WriteTo.
type Plan struct {
	fileName     string
	manifestName string
	entries      []Entry
	manifest     []string
}

// FileName is the download name of the archive.
func (p *Plan) FileName() string {
	return p.fileName
}

func (p *Plan) Entries() []Entry {
	return p.entries
}

// Manifest returns the problem lines known at planning time.
func (p *Plan) Manifest() []string {
	return p.manifest
}

// Size is the total size of the planned clip files.
func (p *Plan) Size() int64 {
	var total int64
	for _, e := range p.entries {
		total += e.Size
	}
	return total
}

// WriteTo streams the zip to w, opening one clip at a time. Clips are stored
// without compression since they are already compressed video. A clip that
// disappeared since planning is reported in the manifest instead. Any other
// error leaves w holding a truncated archive.
func (p *Plan) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	manifest := append([]string(nil), p.manifest...)
	for _, e := range p.entries {
		vanished, err := writeEntry(zw, e)
		if err != nil {
			return cw.n, err
		}
		if vanished {
			manifest = append(manifest, fmt.Sprintf("%s: %s missing", e.JobID, baseName(e.Name)))
		}
	}

	if len(manifest) > 0 {
		mw, err := zw.Create(p.manifestName)
		if err != nil {
			return cw.n, fmt.Errorf("create manifest: %w", err)
		}
		if _, err := io.WriteString(mw, strings.Join(manifest, "\n")); err != nil {
			return cw.n, fmt.Errorf("write manifest: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("finish archive: %w", err)
	}
	return cw.n, nil
}

func writeEntry(zw *zip.Writer, e Entry) (vanished bool, err error) {
	f, err := os.Open(e.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("open %s: %w", e.Name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", e.Name, err)
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return false, fmt.Errorf("header %s: %w", e.Name, err)
	}
	hdr.Name = e.Name
	hdr.Method = zip.Store

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", e.Name, err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return false, fmt.Errorf("copy %s: %w", e.Name, err)
	}
	return false, nil
}

func baseName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

package report

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

const DefaultArchiveName = "leaderboards.zip"

type entry struct {
	name string
	data []byte
}

// Entries lists the files an artifact contributes to an archive or output
// directory.
func (a Artifact) Entries() []string {
	var names []string
	for _, e := range a.entries() {
		names = append(names, e.name)
	}
	return names
}

func (a Artifact) entries() []entry {
	out := []entry{{name: a.Base + "_leaderboard.png", data: a.PNG}}
	if len(a.Workbook) > 0 {
		out = append(out, entry{name: a.Base + "_leaderboard.xlsx", data: a.Workbook})
	}
	if len(a.Chart) > 0 {
		out = append(out, entry{name: a.Base + "_chart.png", data: a.Chart})
	}
	return out
}

func (r Result) entries() []entry {
	var out []entry
	for _, art := range r.Artifacts {
		out = append(out, art.entries()...)
	}
	if len(r.Failures) > 0 {
		var b strings.Builder
		for _, f := range r.Failures {
			b.WriteString(f.Error())
			b.WriteString("\n")
		}
		out = append(out, entry{name: "errors.txt", data: []byte(b.String())})
	}
	return out
}

// WriteDir writes every artifact file into dir and returns the paths it
// wrote. Failures are not written; callers report them separately.
func WriteDir(dir string, r Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}
	var paths []string
	for _, art := range r.Artifacts {
		for _, e := range art.entries() {
			path := filepath.Join(dir, e.name)
			if err := os.WriteFile(path, e.data, 0o644); err != nil {
				return paths, fmt.Errorf("write %s: %w", path, err)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// WriteArchive picks zip or tar.xz from the archive name.
func WriteArchive(w io.Writer, name string, r Result) error {
	if IsTarXZ(name) {
		return WriteTarXZ(w, r)
	}
	return WriteZip(w, r)
}

func IsTarXZ(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".tar.xz") || filepath.Ext(lower) == ".txz"
}

func WriteZip(w io.Writer, r Result) error {
	zw := zip.NewWriter(w)
	for _, e := range r.entries() {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("add %s: %w", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			return fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

func WriteTarXZ(w io.Writer, r Result) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("open xz stream: %w", err)
	}
	tw := tar.NewWriter(xw)
	now := time.Now()
	for _, e := range r.entries() {
		hdr := &tar.Header{
			Name:    e.name,
			Mode:    0o644,
			Size:    int64(len(e.data)),
			ModTime: now,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("add %s: %w", e.name, err)
		}
		if _, err := tw.Write(e.data); err != nil {
			return fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("close xz stream: %w", err)
	}
	return nil
}

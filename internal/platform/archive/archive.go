// Package archive writes flat zip archives for downloads.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Entry is one file in an archive. Open is called once while writing.
type Entry struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FromBytes returns an entry backed by data.
func FromBytes(name string, data []byte) Entry {
	return Entry{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Write streams entries into a zip archive on w. Entry names are flattened to
// their base name; duplicates are rejected.
func Write(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		name := path.Base(strings.ReplaceAll(strings.TrimSpace(entry.Name), "\\", "/"))
		if name == "" || name == "." || name == "/" {
			_ = zw.Close()
			return fmt.Errorf("archive entry name is required")
		}
		if _, dup := seen[name]; dup {
			_ = zw.Close()
			return fmt.Errorf("duplicate archive entry %q", name)
		}
		seen[name] = struct{}{}
		if err := writeEntry(zw, name, entry); err != nil {
			_ = zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

// Bytes builds an archive in memory.
func Bytes(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeEntry(zw *zip.Writer, name string, entry Entry) error {
	if entry.Open == nil {
		return fmt.Errorf("archive entry %q has no content", name)
	}
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %q: %w", name, err)
	}
	defer src.Close()

	dst, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("create archive entry %q: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write archive entry %q: %w", name, err)
	}
	return nil
}

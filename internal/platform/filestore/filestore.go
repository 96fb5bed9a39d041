// Package filestore keeps uploaded files in category directories on local
// disk.
package filestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/id"
)

// ErrInvalidName indicates a file name with nothing left after sanitizing.
var ErrInvalidName = apperrors.New(apperrors.CodeInvalidArgument, "file name is invalid")

// ErrNotFound indicates the stored file does not exist.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "file not found")

// Store writes files under Root/<category>/<name>.
type Store struct {
	root  string
	newID id.Func
}

// New returns a store rooted at dir.
func New(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{root: dir, newID: id.NewID}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Save copies at most limit bytes of r into category and returns the stored
// name. A name already taken gets a random prefix. When r holds more than
// limit bytes nothing is kept and the error carries PAYLOAD_TOO_LARGE.
func (s *Store) Save(category, name string, r io.Reader, limit int64) (string, error) {
	dir, err := s.categoryDir(category)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s dir: %w", category, err)
	}
	base := SanitizeName(name)
	if base == "" {
		return "", ErrInvalidName
	}
	file, stored, err := s.reserve(dir, base)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, stored)

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	written, copyErr := io.Copy(file, src)
	closeErr := file.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", stored, copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("close %s: %w", stored, closeErr)
	case limit > 0 && written > limit:
		_ = os.Remove(path)
		return "", apperrors.WithMetadata(apperrors.CodePayloadTooLarge,
			fmt.Sprintf("file %s exceeds %d bytes", base, limit),
			map[string]string{"File": base})
	}
	return stored, nil
}

func (s *Store) reserve(dir, base string) (*os.File, string, error) {
	name := base
	for attempt := 0; attempt < 5; attempt++ {
		file, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", name, err)
		}
		prefix, err := s.newID()
		if err != nil {
			return nil, "", fmt.Errorf("generate file prefix: %w", err)
		}
		name = prefix + "_" + base
	}
	return nil, "", fmt.Errorf("create %s: name collisions exhausted", base)
}

// Open returns a reader for a stored file.
func (s *Store) Open(category, name string) (io.ReadCloser, error) {
	path, err := s.path(category, name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return file, nil
}

// Remove deletes a stored file. Missing files are ignored.
func (s *Store) Remove(category, name string) error {
	path, err := s.path(category, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

func (s *Store) path(category, name string) (string, error) {
	dir, err := s.categoryDir(category)
	if err != nil {
		return "", err
	}
	base := SanitizeName(name)
	if base == "" || base != name {
		return "", ErrInvalidName
	}
	return filepath.Join(dir, base), nil
}

func (s *Store) categoryDir(category string) (string, error) {
	clean := SanitizeName(category)
	if clean == "" || clean != category {
		return "", fmt.Errorf("invalid file category %q", category)
	}
	return filepath.Join(s.root, clean), nil
}

// SanitizeName reduces name to a base name without path separators or
// control characters.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// Dashed lowercases value and joins its words with dashes for use inside
// stored file names. Path separators split words like spaces do.
func Dashed(value string) string {
	value = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return ' '
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, value)
	return strings.Join(strings.Fields(strings.ToLower(value)), "-")
}

// Upload is one client file waiting to be stored.
type Upload struct {
	Name string
	Body io.Reader
}

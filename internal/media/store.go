package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/stashapp/stash/pkg/plugin/common/log"
)

// Kind classifies stored media by extension
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var extensions = map[string]Kind{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".webp": KindImage,
	".bmp":  KindImage,
	".mp4":  KindVideo,
	".mov":  KindVideo,
	".avi":  KindVideo,
	".webm": KindVideo,
	".mkv":  KindVideo,
}

// ErrInvalidHandle is returned for handles that are malformed or escape the
// store directory
var ErrInvalidHandle = errors.New("invalid media handle")

// ErrNotFound is returned for well-formed handles with no stored file
var ErrNotFound = errors.New("media not found")

// ErrUnsupported is returned for uploads whose extension is not a known
// image or video type
var ErrUnsupported = errors.New("unsupported media type")

// Store keeps uploaded assets and generated outputs in one directory. Every
// file is addressed by an opaque handle: a uuid plus its extension.
type Store struct {
	dir string
}

// NewStore opens dir, creating it if needed. An empty dir selects a fresh
// directory under the system temp dir.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "portrait-")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir %s: %w", dir, err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media dir: %w", err)
	}
	log.Infof("Media directory: %s", abs)
	return &Store{dir: abs}, nil
}

// Dir returns the absolute store directory
func (s *Store) Dir() string {
	return s.dir
}

// KindOf classifies a file name by extension
func KindOf(name string) (Kind, bool) {
	kind, ok := extensions[strings.ToLower(filepath.Ext(name))]
	return kind, ok
}

// NewHandle allocates a handle with the given extension
func NewHandle(ext string) string {
	return uuid.NewString() + strings.ToLower(ext)
}

// SaveUpload copies r into the store and returns its handle. The original
// name only contributes its extension.
func (s *Store) SaveUpload(originalName string, r io.Reader) (string, Kind, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	kind, ok := extensions[ext]
	if !ok {
		return "", "", fmt.Errorf("%w %q", ErrUnsupported, ext)
	}

	handle := NewHandle(ext)
	path := filepath.Join(s.dir, handle)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", "", fmt.Errorf("failed to create %s: %w", handle, err)
	}
	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("failed to store upload: %w", err)
	}

	log.Debugf("Stored %s upload %s (%d bytes) as %s", kind, originalName, n, handle)
	return handle, kind, nil
}

// Path returns the absolute path of a handle without checking existence
func (s *Store) Path(handle string) (string, error) {
	if handle == "" || handle != filepath.Base(handle) || strings.Contains(handle, "..") ||
		strings.ContainsAny(handle, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	return filepath.Join(s.dir, handle), nil
}

// Resolve returns the absolute path of an existing stored file
func (s *Store) Resolve(handle string) (string, error) {
	path, err := s.Path(handle)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, handle)
		}
		return "", fmt.Errorf("failed to stat %s: %w", handle, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	return path, nil
}

// Handle maps an absolute path inside the store back to its handle. Paths
// outside the store are reported as not owned.
func (s *Store) Handle(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel != filepath.Base(rel) || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return rel, true
}

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	filedrop_errors "filedrop/pkg/errors"
)

const tmpPrefix = ".tmp-"

// DiskStore keeps artifacts as flat files inside a single directory.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Dir() string {
	return s.dir
}

// Put writes to a temp file, fsyncs it and renames it into place.
func (s *DiskStore) Put(ctx context.Context, originalName string, r io.Reader) (PutResult, error) {
	name := NewStoredName(originalName)
	fullPath := filepath.Join(s.dir, name)
	tmpPath := filepath.Join(s.dir, tmpPrefix+name)

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return PutResult{}, fmt.Errorf("%w: create temp file: %w", filedrop_errors.ErrWriteFailure, err)
	}

	size, err := io.Copy(f, contextReader{ctx: ctx, r: r})
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return PutResult{}, fmt.Errorf("%w: write %s: %w", filedrop_errors.ErrWriteFailure, name, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return PutResult{}, fmt.Errorf("%w: fsync %s: %w", filedrop_errors.ErrWriteFailure, name, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return PutResult{}, fmt.Errorf("%w: close %s: %w", filedrop_errors.ErrWriteFailure, name, err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return PutResult{}, fmt.Errorf("%w: rename %s: %w", filedrop_errors.ErrWriteFailure, name, err)
	}

	return PutResult{
		StoredName: name,
		Location:   name,
		Size:       size,
	}, nil
}

func (s *DiskStore) Exists(_ context.Context, location string) (bool, error) {
	fullPath, ok := s.resolve(location)
	if !ok {
		return false, nil
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", location, err)
	}
	return info.Mode().IsRegular(), nil
}

func (s *DiskStore) Open(_ context.Context, location string) (io.ReadCloser, error) {
	fullPath, ok := s.resolve(location)
	if !ok {
		return nil, filedrop_errors.ErrNotFound
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", filedrop_errors.ErrNotFound, location)
		}
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	return f, nil
}

// resolve maps a location to a path inside dir. Locations are always a
// single path element; anything else (temp files included) was never
// issued by Put.
func (s *DiskStore) resolve(location string) (string, bool) {
	if location == "" || strings.HasPrefix(location, ".") ||
		strings.ContainsAny(location, `/\`) || location != filepath.Base(location) {
		return "", false
	}
	return filepath.Join(s.dir, location), true
}

package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ArtifactStore persists uploaded bytes and hands them back by location.
type ArtifactStore interface {
	// Put streams r into a freshly named artifact. Either the whole stream
	// is committed and a location returned, or nothing is left behind.
	Put(ctx context.Context, originalName string, r io.Reader) (PutResult, error)
	Exists(ctx context.Context, location string) (bool, error)
	// Open fails with ErrNotFound when the artifact is gone.
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

type PutResult struct {
	StoredName string
	Location   string
	Size       int64
}

const maxNameBytes = 200

// NewStoredName builds the collision-free artifact key
// "<uuid>-<original name>".
func NewStoredName(originalName string) string {
	return uuid.NewString() + "-" + SanitizeName(originalName)
}

// SanitizeName reduces a client supplied filename to a single safe path
// element.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == utf8.RuneError, unicode.IsControl(r):
			continue
		case r == '/' || r == ':':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" || out == "." || out == ".." {
		return "file"
	}
	if len(out) > maxNameBytes {
		cut := maxNameBytes
		for cut > 0 && !utf8.RuneStart(out[cut]) {
			cut--
		}
		out = out[:cut]
	}
	return out
}

// contextReader stops a copy as soon as ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

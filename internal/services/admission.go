package services

import (
	"fmt"
	"io"
	"strings"

	"filedrop/internal/domain/file"
	filedrop_errors "filedrop/pkg/errors"
)

// DefaultMaxUploadBytes is the upload ceiling (10 MiB).
const DefaultMaxUploadBytes int64 = 10 * 1024 * 1024

// DefaultContentType is assumed for a part that declares no Content-Type,
// as multipart form parsers conventionally do.
const DefaultContentType = file.MimeTextPlain

// Admission decides whether an upload may reach the artifact store.
type Admission struct {
	maxBytes int64
}

func NewAdmission(maxBytes int64) *Admission {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Admission{maxBytes: maxBytes}
}

func (a *Admission) MaxBytes() int64 {
	return a.maxBytes
}

// Admit checks a declared type and size. An empty type means
// DefaultContentType. size < 0 means unknown; it is then enforced by the
// reader returned from Limit. The size check runs first so an oversized
// upload is always reported as too large.
func (a *Admission) Admit(contentType string, size int64) (file.MimeType, error) {
	if size > a.maxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds the %d byte limit", filedrop_errors.ErrPayloadTooLarge, size, a.maxBytes)
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = string(DefaultContentType)
	}
	mimeType, ok := file.ParseMimeType(contentType)
	if !ok {
		return "", fmt.Errorf("%w: %q", filedrop_errors.ErrUnsupportedType, contentType)
	}
	return mimeType, nil
}

// Limit wraps r so that reading past the ceiling fails with
// ErrPayloadTooLarge instead of returning the extra bytes.
func (a *Admission) Limit(r io.Reader) io.Reader {
	return &limitedReader{r: r, remaining: a.maxBytes}
}

type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, filedrop_errors.ErrPayloadTooLarge
	}
	if len(p) == 0 {
		return 0, nil
	}
	// Ask for one byte more than allowed so overflow is seen immediately.
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	if int64(n) > l.remaining {
		l.exceeded = true
		return 0, filedrop_errors.ErrPayloadTooLarge
	}
	l.remaining -= int64(n)
	return n, err
}

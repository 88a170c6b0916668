package file

import (
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MimeType is one of the admitted upload content types.
type MimeType string

const (
	MimeTextPlain MimeType = "text/plain"
	MimeJPEG      MimeType = "image/jpeg"
	MimePNG       MimeType = "image/png"
	MimeJSON      MimeType = "application/json"
)

// AllowedMimeTypes is the fixed upload allow-list.
var AllowedMimeTypes = []MimeType{MimeTextPlain, MimeJPEG, MimePNG, MimeJSON}

// ParseMimeType normalizes a declared Content-Type and reports whether it
// is on the allow-list. Parameters such as charset are dropped.
func ParseMimeType(contentType string) (MimeType, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	for _, allowed := range AllowedMimeTypes {
		if MimeType(mediaType) == allowed {
			return allowed, true
		}
	}
	return MimeType(mediaType), false
}

// Record represents a row of the files table.
type Record struct {
	ID           uuid.UUID
	StoredName   string
	OriginalName string
	MimeType     MimeType
	SizeBytes    int64
	Location     string
	CreatedAt    time.Time
	// Seq is the catalog insertion order, used to break CreatedAt ties.
	Seq int64
}

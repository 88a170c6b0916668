package repository

import (
	"context"
	"iter"

	"filedrop/internal/domain/file"
)

// FileRepository is the metadata catalog.
type FileRepository interface {
	// Insert assigns ID, CreatedAt and Seq on rec and persists it.
	Insert(ctx context.Context, rec *file.Record) error
	// ListAll yields every record newest first. Each call reads a fresh
	// snapshot; iteration stops at the first error.
	ListAll(ctx context.Context) iter.Seq2[*file.Record, error]
	// GetByID returns ErrNotFound for unknown or malformed ids.
	GetByID(ctx context.Context, id string) (*file.Record, error)
	Ping(ctx context.Context) error
}

// Collect drains ListAll into a slice.
func Collect(seq iter.Seq2[*file.Record, error]) ([]*file.Record, error) {
	var out []*file.Record
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"filedrop/internal/domain/file"
	filedrop_errors "filedrop/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const fileColumns = `id, seq, stored_name, original_name, mime_type, size_bytes, location, created_at`

type PostgresFileRepository struct {
	db DBTX
}

func NewFileRepository(db DBTX) *PostgresFileRepository {
	return &PostgresFileRepository{db: db}
}

func (r *PostgresFileRepository) Insert(ctx context.Context, rec *file.Record) error {
	id := uuid.New()
	err := r.db.QueryRow(ctx, `
		INSERT INTO files (id, stored_name, original_name, mime_type, size_bytes, location)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, seq`,
		id, rec.StoredName, rec.OriginalName, string(rec.MimeType), rec.SizeBytes, rec.Location,
	).Scan(&rec.CreatedAt, &rec.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: stored name %s already recorded", filedrop_errors.ErrWriteFailure, rec.StoredName)
		}
		return fmt.Errorf("%w: insert file: %w", filedrop_errors.ErrWriteFailure, err)
	}
	rec.ID = id
	return nil
}

func (r *PostgresFileRepository) ListAll(ctx context.Context) iter.Seq2[*file.Record, error] {
	return func(yield func(*file.Record, error) bool) {
		rows, err := r.db.Query(ctx, `SELECT `+fileColumns+` FROM files ORDER BY created_at DESC, seq DESC`)
		if err != nil {
			yield(nil, fmt.Errorf("list files: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanFile(rows)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("iterate files: %w", err))
		}
	}
}

func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*file.Record, error) {
	fileID, err := uuid.Parse(id)
	if err != nil {
		return nil, filedrop_errors.ErrNotFound
	}

	rec, err := scanFile(r.db.QueryRow(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, fileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, filedrop_errors.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *PostgresFileRepository) Ping(ctx context.Context) error {
	if p, ok := r.db.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func scanFile(row pgx.Row) (*file.Record, error) {
	var (
		rec      file.Record
		mimeType string
	)
	err := row.Scan(&rec.ID, &rec.Seq, &rec.StoredName, &rec.OriginalName, &mimeType, &rec.SizeBytes, &rec.Location, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan file: %w", err)
	}
	rec.MimeType = file.MimeType(mimeType)
	return &rec, nil
}

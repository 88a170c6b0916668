package repository

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"filedrop/internal/domain/file"
	filedrop_errors "filedrop/pkg/errors"

	"github.com/google/uuid"
)

// MemoryFileRepository is a process-local catalog for development and
// tests. Records live only as long as the process.
type MemoryFileRepository struct {
	mu       sync.RWMutex
	records  []file.Record
	byID     map[uuid.UUID]int
	byStored map[string]struct{}
	now      func() time.Time
}

func NewMemoryFileRepository() *MemoryFileRepository {
	return &MemoryFileRepository{
		byID:     make(map[uuid.UUID]int),
		byStored: make(map[string]struct{}),
		now:      time.Now,
	}
}

func (r *MemoryFileRepository) Insert(_ context.Context, rec *file.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byStored[rec.StoredName]; ok {
		return fmt.Errorf("%w: stored name %s already recorded", filedrop_errors.ErrWriteFailure, rec.StoredName)
	}

	createdAt := r.now().UTC()
	if n := len(r.records); n > 0 && createdAt.Before(r.records[n-1].CreatedAt) {
		createdAt = r.records[n-1].CreatedAt
	}

	rec.ID = uuid.New()
	rec.CreatedAt = createdAt
	rec.Seq = int64(len(r.records) + 1)

	r.byID[rec.ID] = len(r.records)
	r.byStored[rec.StoredName] = struct{}{}
	r.records = append(r.records, *rec)
	return nil
}

// ListAll walks a snapshot taken when iteration starts. Records are kept in
// insertion order with non-decreasing CreatedAt, so newest first is the
// reverse of the slice.
func (r *MemoryFileRepository) ListAll(ctx context.Context) iter.Seq2[*file.Record, error] {
	return func(yield func(*file.Record, error) bool) {
		r.mu.RLock()
		snapshot := make([]file.Record, len(r.records))
		copy(snapshot, r.records)
		r.mu.RUnlock()

		for i := len(snapshot) - 1; i >= 0; i-- {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			rec := snapshot[i]
			if !yield(&rec, nil) {
				return
			}
		}
	}
}

func (r *MemoryFileRepository) GetByID(_ context.Context, id string) (*file.Record, error) {
	fileID, err := uuid.Parse(id)
	if err != nil {
		return nil, filedrop_errors.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[fileID]
	if !ok {
		return nil, filedrop_errors.ErrNotFound
	}
	rec := r.records[idx]
	return &rec, nil
}

func (r *MemoryFileRepository) Ping(context.Context) error {
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"filedrop/internal/domain/file"
	"filedrop/internal/metrics"
	"filedrop/internal/repository"
	"filedrop/internal/storage"
	filedrop_errors "filedrop/pkg/errors"
	"filedrop/pkg/logger"

	"go.uber.org/zap"
)

type UploadInput struct {
	Filename    string
	ContentType string
	// Size is the declared byte count, or -1 when unknown.
	Size int64
	Body io.Reader
}

// UploadService runs Received -> Validated -> Stored -> Recorded -> Complete.
type UploadService struct {
	admission *Admission
	store     storage.ArtifactStore
	repo      repository.FileRepository
	logger    *logger.Logger
}

func NewUploadService(admission *Admission, store storage.ArtifactStore, repo repository.FileRepository, l *logger.Logger) *UploadService {
	return &UploadService{admission: admission, store: store, repo: repo, logger: l}
}

// Upload validates, stores and records one file. Validation failures leave
// no trace. A catalog failure after the bytes were stored leaves an orphan
// artifact, which is logged and counted but not removed.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (*file.Record, error) {
	if in.Body == nil {
		return nil, filedrop_errors.ErrMissingFile
	}

	mimeType, err := s.admission.Admit(in.ContentType, in.Size)
	if err != nil {
		s.reject(ctx, in, err)
		return nil, err
	}

	put, err := s.store.Put(ctx, in.Filename, s.admission.Limit(in.Body))
	if err != nil {
		if errors.Is(err, filedrop_errors.ErrPayloadTooLarge) {
			tooLarge := fmt.Errorf("%w: more than %d bytes", filedrop_errors.ErrPayloadTooLarge, s.admission.MaxBytes())
			s.reject(ctx, in, tooLarge)
			return nil, tooLarge
		}
		metrics.UploadsTotal.WithLabelValues("write_failure").Inc()
		s.logger.Error(ctx, "failed to store artifact", zap.String("original_name", in.Filename), zap.Error(err))
		if !errors.Is(err, filedrop_errors.ErrWriteFailure) {
			err = fmt.Errorf("%w: %w", filedrop_errors.ErrWriteFailure, err)
		}
		return nil, err
	}

	rec := &file.Record{
		StoredName:   put.StoredName,
		OriginalName: in.Filename,
		MimeType:     mimeType,
		SizeBytes:    put.Size,
		Location:     put.Location,
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		metrics.UploadsTotal.WithLabelValues("record_failure").Inc()
		metrics.OrphanedArtifacts.Inc()
		s.logger.Warn(ctx, "artifact stored but not recorded",
			zap.String("location", put.Location),
			zap.Int64("size", put.Size),
			zap.Error(err),
		)
		if !errors.Is(err, filedrop_errors.ErrWriteFailure) {
			err = fmt.Errorf("%w: %w", filedrop_errors.ErrWriteFailure, err)
		}
		return nil, err
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	metrics.UploadedBytes.Add(float64(rec.SizeBytes))
	s.logger.Info(ctx, "file uploaded",
		zap.String("id", rec.ID.String()),
		zap.String("original_name", rec.OriginalName),
		zap.String("mime_type", string(rec.MimeType)),
		zap.Int64("size", rec.SizeBytes),
	)
	return rec, nil
}

func (s *UploadService) reject(ctx context.Context, in UploadInput, err error) {
	result := "unsupported_type"
	if errors.Is(err, filedrop_errors.ErrPayloadTooLarge) {
		result = "too_large"
	}
	metrics.UploadsTotal.WithLabelValues(result).Inc()
	s.logger.Info(ctx, "upload rejected",
		zap.String("original_name", in.Filename),
		zap.String("content_type", in.ContentType),
		zap.String("reason", result),
	)
}

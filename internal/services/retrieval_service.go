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

type RetrievalService struct {
	store  storage.ArtifactStore
	repo   repository.FileRepository
	logger *logger.Logger
}

func NewRetrievalService(store storage.ArtifactStore, repo repository.FileRepository, l *logger.Logger) *RetrievalService {
	return &RetrievalService{store: store, repo: repo, logger: l}
}

// List returns every record newest first.
func (s *RetrievalService) List(ctx context.Context) ([]*file.Record, error) {
	return repository.Collect(s.repo.ListAll(ctx))
}

// Retrieve resolves id to its record and an open stream of its bytes. The
// caller closes the stream. A record whose artifact is gone is reported as
// ErrNotFound.
func (s *RetrievalService) Retrieve(ctx context.Context, id string) (*file.Record, io.ReadCloser, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, filedrop_errors.ErrNotFound) {
			metrics.DownloadsTotal.WithLabelValues("not_found").Inc()
		}
		return nil, nil, err
	}

	exists, err := s.store.Exists(ctx, rec.Location)
	if err != nil {
		return nil, nil, fmt.Errorf("check artifact %s: %w", rec.Location, err)
	}
	if !exists {
		s.missingArtifact(ctx, rec)
		return nil, nil, fmt.Errorf("%w: file not found on disk", filedrop_errors.ErrNotFound)
	}

	body, err := s.store.Open(ctx, rec.Location)
	if err != nil {
		if errors.Is(err, filedrop_errors.ErrNotFound) {
			s.missingArtifact(ctx, rec)
			return nil, nil, fmt.Errorf("%w: file not found on disk", filedrop_errors.ErrNotFound)
		}
		return nil, nil, err
	}

	metrics.DownloadsTotal.WithLabelValues("success").Inc()
	return rec, body, nil
}

func (s *RetrievalService) missingArtifact(ctx context.Context, rec *file.Record) {
	metrics.DownloadsTotal.WithLabelValues("missing_artifact").Inc()
	s.logger.Warn(ctx, "catalog record has no artifact",
		zap.String("id", rec.ID.String()),
		zap.String("location", rec.Location),
	)
}

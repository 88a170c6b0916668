package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"filedrop/internal/domain/file"
	"filedrop/internal/metrics"
	"filedrop/internal/repository"
	"filedrop/internal/storage"
	filedrop_errors "filedrop/pkg/errors"
	"filedrop/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	ctx       context.Context
	dir       string
	store     storage.ArtifactStore
	repo      *repository.MemoryFileRepository
	upload    *UploadService
	retrieval *RetrievalService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := storage.NewDiskStore(dir)
	require.NoError(t, err)
	return newTestEnvWith(t, dir, store, repository.NewMemoryFileRepository())
}

func newTestEnvWith(t *testing.T, dir string, store storage.ArtifactStore, repo *repository.MemoryFileRepository) *testEnv {
	t.Helper()
	l := logger.NewNop()
	return &testEnv{
		ctx:       context.Background(),
		dir:       dir,
		store:     store,
		repo:      repo,
		upload:    NewUploadService(NewAdmission(DefaultMaxUploadBytes), store, repo, l),
		retrieval: NewRetrievalService(store, repo, l),
	}
}

func (e *testEnv) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.dir)
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func (e *testEnv) records(t *testing.T) []*file.Record {
	t.Helper()
	recs, err := repository.Collect(e.repo.ListAll(e.ctx))
	require.NoError(t, err)
	return recs
}

// spyStore counts Put calls and can be told to fail.
type spyStore struct {
	storage.ArtifactStore
	puts int
	err  error
}

func (s *spyStore) Put(ctx context.Context, name string, r io.Reader) (storage.PutResult, error) {
	s.puts++
	if s.err != nil {
		return storage.PutResult{}, s.err
	}
	return s.ArtifactStore.Put(ctx, name, r)
}

// failingRepo fails every insert.
type failingRepo struct {
	repository.FileRepository
}

func (failingRepo) Insert(context.Context, *file.Record) error {
	return errors.New("connection refused")
}

func TestAdmission_Admit(t *testing.T) {
	a := NewAdmission(DefaultMaxUploadBytes)

	mt, err := a.Admit("image/png", 100)
	require.NoError(t, err)
	require.Equal(t, file.MimePNG, mt)

	mt, err = a.Admit("text/plain; charset=utf-8", -1)
	require.NoError(t, err)
	require.Equal(t, file.MimeTextPlain, mt)

	_, err = a.Admit("image/gif", 100)
	require.ErrorIs(t, err, filedrop_errors.ErrUnsupportedType)

	_, err = a.Admit("image/png", DefaultMaxUploadBytes+1)
	require.ErrorIs(t, err, filedrop_errors.ErrPayloadTooLarge)

	_, err = a.Admit("image/gif", DefaultMaxUploadBytes+1)
	require.ErrorIs(t, err, filedrop_errors.ErrPayloadTooLarge)

	_, err = a.Admit("text/plain", DefaultMaxUploadBytes)
	require.NoError(t, err)
}

func TestAdmission_Limit(t *testing.T) {
	a := NewAdmission(8)

	got, err := io.ReadAll(a.Limit(strings.NewReader("12345678")))
	require.NoError(t, err)
	require.Equal(t, "12345678", string(got))

	_, err = io.ReadAll(a.Limit(strings.NewReader("123456789")))
	require.ErrorIs(t, err, filedrop_errors.ErrPayloadTooLarge)
}

func TestAdmission_UndeclaredTypeIsTextPlain(t *testing.T) {
	a := NewAdmission(DefaultMaxUploadBytes)

	for _, ct := range []string{"", "   "} {
		mt, err := a.Admit(ct, -1)
		require.NoError(t, err)
		require.Equal(t, file.MimeTextPlain, mt)
	}
}

func TestUpload_RoundTrip(t *testing.T) {
	// given
	env := newTestEnv(t)
	content := []byte("the quick brown fox")

	// when
	rec, err := env.upload.Upload(env.ctx, UploadInput{
		Filename:    "fox.txt",
		ContentType: "text/plain",
		Size:        int64(len(content)),
		Body:        bytes.NewReader(content),
	})

	// then
	require.NoError(t, err)
	require.Equal(t, "fox.txt", rec.OriginalName)
	require.Equal(t, file.MimeTextPlain, rec.MimeType)
	require.Equal(t, int64(len(content)), rec.SizeBytes)

	got, body, err := env.retrieval.Retrieve(env.ctx, rec.ID.String())
	require.NoError(t, err)
	defer body.Close()
	require.Equal(t, rec.ID, got.ID)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, content, data)
}

func TestUpload_UndeclaredTypeIsTextPlain(t *testing.T) {
	env := newTestEnv(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	blob := []byte{0x00, 0x01, 0xff, 0xfe}

	for name, content := range map[string][]byte{"dot.png": png, "blob.bin": blob, "note": []byte("plain words")} {
		rec, err := env.upload.Upload(env.ctx, UploadInput{Filename: name, Size: -1, Body: bytes.NewReader(content)})
		require.NoError(t, err, name)
		require.Equal(t, file.MimeTextPlain, rec.MimeType, name)
		require.Equal(t, int64(len(content)), rec.SizeBytes, name)
	}
	require.Len(t, env.records(t), 3)
}

func TestUpload_TooLargeDeclared(t *testing.T) {
	env := newTestEnv(t)
	spy := &spyStore{ArtifactStore: env.store}
	env = newTestEnvWith(t, env.dir, spy, env.repo)

	_, err := env.upload.Upload(env.ctx, UploadInput{
		Filename:    "big.json",
		ContentType: "application/json",
		Size:        DefaultMaxUploadBytes + 1,
		Body:        strings.NewReader("{}"),
	})

	require.ErrorIs(t, err, filedrop_errors.ErrPayloadTooLarge)
	require.Zero(t, spy.puts)
	require.Empty(t, env.records(t))
	require.Empty(t, env.files(t))
}

func TestUpload_TooLargeStreamed(t *testing.T) {
	env := newTestEnv(t)
	body := io.LimitReader(zeroReader{}, DefaultMaxUploadBytes+1)

	_, err := env.upload.Upload(env.ctx, UploadInput{
		Filename:    "big.txt",
		ContentType: "text/plain",
		Size:        -1,
		Body:        body,
	})

	require.ErrorIs(t, err, filedrop_errors.ErrPayloadTooLarge)
	require.NotErrorIs(t, err, filedrop_errors.ErrWriteFailure)
	require.Empty(t, env.records(t))
	require.Empty(t, env.files(t))
}

func TestUpload_ExactlyAtLimit(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.upload.Upload(env.ctx, UploadInput{
		Filename:    "edge.txt",
		ContentType: "text/plain",
		Size:        -1,
		Body:        io.LimitReader(zeroReader{}, DefaultMaxUploadBytes),
	})

	require.NoError(t, err)
	require.Equal(t, DefaultMaxUploadBytes, rec.SizeBytes)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'a'
	}
	return len(p), nil
}

func TestUpload_UnsupportedTypeNeverStores(t *testing.T) {
	env := newTestEnv(t)
	spy := &spyStore{ArtifactStore: env.store}
	env = newTestEnvWith(t, env.dir, spy, env.repo)

	for _, ct := range []string{"image/gif", "application/pdf", "text/html", "application/octet-stream"} {
		_, err := env.upload.Upload(env.ctx, UploadInput{
			Filename:    "x",
			ContentType: ct,
			Size:        3,
			Body:        strings.NewReader("abc"),
		})
		require.ErrorIs(t, err, filedrop_errors.ErrUnsupportedType, ct)
	}

	require.Zero(t, spy.puts)
	require.Empty(t, env.records(t))
	require.Empty(t, env.files(t))
}

func TestUpload_MissingBody(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.upload.Upload(env.ctx, UploadInput{Filename: "a.txt", ContentType: "text/plain"})
	require.ErrorIs(t, err, filedrop_errors.ErrMissingFile)
}

func TestUpload_StoreFailureRecordsNothing(t *testing.T) {
	env := newTestEnv(t)
	spy := &spyStore{ArtifactStore: env.store, err: errors.New("disk full")}
	env = newTestEnvWith(t, env.dir, spy, env.repo)

	_, err := env.upload.Upload(env.ctx, UploadInput{
		Filename:    "a.txt",
		ContentType: "text/plain",
		Size:        1,
		Body:        strings.NewReader("a"),
	})

	require.ErrorIs(t, err, filedrop_errors.ErrWriteFailure)
	require.Equal(t, 1, spy.puts)
	require.Empty(t, env.records(t))
}

func TestUpload_CancelledMidStream(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(env.ctx)

	pr, pw := io.Pipe()
	go func() {
		_, _ = pw.Write([]byte("first chunk"))
		cancel()
		_, _ = pw.Write([]byte("second chunk"))
		pw.Close()
	}()

	_, err := env.upload.Upload(ctx, UploadInput{
		Filename:    "a.txt",
		ContentType: "text/plain",
		Size:        -1,
		Body:        pr,
	})

	require.ErrorIs(t, err, filedrop_errors.ErrWriteFailure)
	require.Empty(t, env.records(t))
	require.Empty(t, env.files(t))
}

func TestUpload_CatalogFailureLeavesOrphan(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUploadService(NewAdmission(DefaultMaxUploadBytes), env.store, failingRepo{FileRepository: env.repo}, logger.NewNop())
	orphansBefore := testutil.ToFloat64(metrics.OrphanedArtifacts)

	_, err := svc.Upload(env.ctx, UploadInput{
		Filename:    "a.txt",
		ContentType: "text/plain",
		Size:        1,
		Body:        strings.NewReader("a"),
	})

	require.ErrorIs(t, err, filedrop_errors.ErrWriteFailure)
	require.Empty(t, env.records(t))
	require.Len(t, env.files(t), 1)
	require.Equal(t, orphansBefore+1, testutil.ToFloat64(metrics.OrphanedArtifacts))
}

func TestUpload_ConcurrentSameName(t *testing.T) {
	env := newTestEnv(t)

	var wg sync.WaitGroup
	recs := make([]*file.Record, 2)
	errs := make([]error, 2)
	for i := range recs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recs[i], errs[i] = env.upload.Upload(env.ctx, UploadInput{
				Filename:    "a.txt",
				ContentType: "text/plain",
				Size:        -1,
				Body:        strings.NewReader("payload"),
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.NotEqual(t, recs[0].ID, recs[1].ID)
	require.NotEqual(t, recs[0].StoredName, recs[1].StoredName)
	require.NotEqual(t, recs[0].Location, recs[1].Location)
	require.Len(t, env.records(t), 2)
	require.Len(t, env.files(t), 2)
}

func TestList_NewestFirst(t *testing.T) {
	env := newTestEnv(t)

	var ids []string
	for _, name := range []string{"one.txt", "two.txt", "three.txt"} {
		rec, err := env.upload.Upload(env.ctx, UploadInput{Filename: name, ContentType: "text/plain", Size: -1, Body: strings.NewReader(name)})
		require.NoError(t, err)
		ids = append(ids, rec.ID.String())
	}

	recs, err := env.retrieval.List(env.ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, ids[2], recs[0].ID.String())
	require.Equal(t, ids[1], recs[1].ID.String())
	require.Equal(t, ids[0], recs[2].ID.String())
}

func TestRetrieve_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.retrieval.Retrieve(env.ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, filedrop_errors.ErrNotFound)

	_, _, err = env.retrieval.Retrieve(env.ctx, "garbage")
	require.ErrorIs(t, err, filedrop_errors.ErrNotFound)
}

func TestRetrieve_ArtifactDeletedOutOfBand(t *testing.T) {
	env := newTestEnv(t)
	rec, err := env.upload.Upload(env.ctx, UploadInput{Filename: "a.txt", ContentType: "text/plain", Size: -1, Body: strings.NewReader("a")})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(env.dir, rec.Location)))

	missingBefore := testutil.ToFloat64(metrics.DownloadsTotal.WithLabelValues("missing_artifact"))

	_, _, err = env.retrieval.Retrieve(env.ctx, rec.ID.String())
	require.ErrorIs(t, err, filedrop_errors.ErrNotFound)
	require.Equal(t, missingBefore+1, testutil.ToFloat64(metrics.DownloadsTotal.WithLabelValues("missing_artifact")))
}

package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"filedrop/internal/services"
	"filedrop/internal/transport/httpdto"
	filedrop_errors "filedrop/pkg/errors"
	"filedrop/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipartOverhead is the slack allowed on top of the file ceiling for
// boundaries, part headers and small extra fields.
const multipartOverhead = 1 << 20

const uploadField = "file"

type FileHandler struct {
	upload    *services.UploadService
	retrieval *services.RetrievalService
	maxBytes  int64
	logger    *logger.Logger
}

func NewFileHandler(upload *services.UploadService, retrieval *services.RetrievalService, maxBytes int64, l *logger.Logger) *FileHandler {
	return &FileHandler{upload: upload, retrieval: retrieval, maxBytes: maxBytes, logger: l}
}

// Upload handles POST /upload. The multipart body is streamed: the part's
// declared type is admitted before any byte reaches the store.
func (h *FileHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)

	reader, err := c.Request.MultipartReader()
	if err != nil {
		h.writeError(c, filedrop_errors.ErrMissingFile)
		return
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			h.writeError(c, filedrop_errors.ErrMissingFile)
			return
		}
		if err != nil {
			h.writeError(c, fmt.Errorf("%w: read multipart: %w", filedrop_errors.ErrInvalidInput, err))
			return
		}

		if part.FormName() != uploadField || part.FileName() == "" {
			_, _ = io.Copy(io.Discard, part)
			part.Close()
			continue
		}

		rec, err := h.upload.Upload(c.Request.Context(), services.UploadInput{
			Filename:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Size:        -1,
			Body:        part,
		})
		part.Close()
		if err != nil {
			h.writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, httpdto.NewUploadResponse(rec))
		return
	}
}

// List handles GET /files.
func (h *FileHandler) List(c *gin.Context) {
	recs, err := h.retrieval.List(c.Request.Context())
	if err != nil {
		h.logger.Error(c.Request.Context(), "list files failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("Error fetching files", "INTERNAL_ERROR"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewFileList(recs))
}

// Download handles GET /files/:id. ?inline=true asks for inline
// disposition so browsers can preview images and text.
func (h *FileHandler) Download(c *gin.Context) {
	var query httpdto.DownloadQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid query", "INVALID_REQUEST"))
		return
	}

	rec, body, err := h.retrieval.Retrieve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer body.Close()

	disposition := "attachment"
	if query.Inline {
		disposition = "inline"
	}
	header := mime.FormatMediaType(disposition, map[string]string{"filename": rec.OriginalName})
	if header == "" {
		header = disposition
	}

	c.DataFromReader(http.StatusOK, rec.SizeBytes, string(rec.MimeType), body, map[string]string{
		"Content-Disposition":    header,
		"X-Content-Type-Options": "nosniff",
	})
}

func (h *FileHandler) writeError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, filedrop_errors.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("Invalid file type. Only txt, jpg, png, and json files are allowed.", "UNSUPPORTED_TYPE"))
	case errors.Is(err, filedrop_errors.ErrPayloadTooLarge), errors.As(err, &maxBytesErr):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(
			fmt.Sprintf("File too large. Maximum size is %dMB.", h.maxBytes/(1024*1024)), "PAYLOAD_TOO_LARGE"))
	case errors.Is(err, filedrop_errors.ErrMissingFile):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("No file uploaded", "MISSING_FILE"))
	case errors.Is(err, filedrop_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("Malformed multipart request", "INVALID_REQUEST"))
	case errors.Is(err, filedrop_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("File not found", "NOT_FOUND"))
	case errors.Is(err, filedrop_errors.ErrWriteFailure):
		h.logger.Error(c.Request.Context(), "upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("Error uploading file", "WRITE_FAILURE"))
	default:
		h.logger.Error(c.Request.Context(), "request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("Internal server error", "INTERNAL_ERROR"))
	}
}

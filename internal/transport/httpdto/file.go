package httpdto

import (
	"time"

	"filedrop/internal/domain/file"
)

// UploadResponse is returned by POST /upload
type UploadResponse struct {
	Message string          `json:"message"`
	File    UploadedFileDTO `json:"file"`
}

// UploadedFileDTO deliberately omits the storage location.
type UploadedFileDTO struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	Size         int64     `json:"size"`
	UploadDate   time.Time `json:"uploadDate"`
}

// FileDTO is one entry of GET /files
type FileDTO struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	UploadDate   time.Time `json:"uploadDate"`
}

// DownloadQuery holds query parameters for GET /files/:id
type DownloadQuery struct {
	Inline bool `form:"inline"`
}

func NewUploadResponse(rec *file.Record) UploadResponse {
	return UploadResponse{
		Message: "File uploaded successfully",
		File: UploadedFileDTO{
			ID:           rec.ID.String(),
			OriginalName: rec.OriginalName,
			Size:         rec.SizeBytes,
			UploadDate:   rec.CreatedAt,
		},
	}
}

func NewFileDTO(rec *file.Record) FileDTO {
	return FileDTO{
		ID:           rec.ID.String(),
		OriginalName: rec.OriginalName,
		MimeType:     string(rec.MimeType),
		Size:         rec.SizeBytes,
		UploadDate:   rec.CreatedAt,
	}
}

func NewFileList(recs []*file.Record) []FileDTO {
	out := make([]FileDTO, 0, len(recs))
	for _, rec := range recs {
		out = append(out, NewFileDTO(rec))
	}
	return out
}

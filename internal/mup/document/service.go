// Package document handles uploaded document files: storing the bytes in
// object storage, recording the metadata on the request's document row, and
// serving downloads, presigned links and the docs-issued aggregate.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"egov/internal/mup/docstore"
	"egov/internal/mup/request"
	"egov/pkg/faults"

	"github.com/google/uuid"
)

// PresignExpiry bounds how long a shared download link stays valid.
const PresignExpiry = 15 * time.Minute

// Service couples document rows with their stored files.
type Service struct {
	requests *request.Service
	objects  docstore.ObjectStore
	log      *slog.Logger
	now      func() time.Time
}

func NewService(requests *request.Service, objects docstore.ObjectStore, log *slog.Logger) *Service {
	return &Service{requests: requests, objects: objects, log: log, now: time.Now}
}

// UploadDTO describes an incoming file for a request.
type UploadDTO struct {
	RequestID   string
	Name        string
	Type        string
	FileName    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// Upload stores the file and attaches the document row to the request. The
// object is written first; if the row insert fails the orphaned object is
// removed so storage does not accumulate unreferenced files.
func (s *Service) Upload(ctx context.Context, dto UploadDTO) (*request.Document, error) {
	if dto.RequestID == "" {
		return nil, faults.New(faults.KindBadRequest, "request id is required")
	}
	if dto.FileName == "" {
		return nil, faults.New(faults.KindBadRequest, "file name is required")
	}
	name := dto.Name
	if name == "" {
		name = dto.FileName
	}

	key := uuid.NewString() + path.Ext(dto.FileName)
	if err := s.objects.Put(ctx, key, dto.Body, dto.Size, dto.ContentType); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	doc, err := s.requests.AttachDocument(ctx, dto.RequestID, request.DocumentSpec{
		Name:       name,
		Type:       dto.Type,
		IssuedDate: s.now(),
		FileKey:    key,
		FileName:   dto.FileName,
		FileSize:   dto.Size,
		MimeType:   dto.ContentType,
	})
	if err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			s.log.Error("orphaned object cleanup failed", "key", key, "error", delErr)
		}
		return nil, err
	}

	s.log.Info("document uploaded", "request_id", dto.RequestID, "key", key, "size", dto.Size)
	return doc, nil
}

// File streams back the stored bytes for the given object key, together
// with the original upload filename recorded on the document row. When no
// row references the key the key itself stands in for the name.
func (s *Service) File(ctx context.Context, key string) (*docstore.Object, string, error) {
	obj, err := s.objects.Get(ctx, key)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, "", faults.Wrap(err, faults.KindNotFound, "document file not found")
		}
		return nil, "", fmt.Errorf("get file: %w", err)
	}
	name := key
	if d, err := s.requests.GetDocumentByFileKey(ctx, key); err == nil && d.FileName != "" {
		name = d.FileName
	}
	return obj, name, nil
}

// URL returns a presigned download link for the given object key.
func (s *Service) URL(ctx context.Context, key string) (string, error) {
	u, err := s.objects.PresignedURL(ctx, key, PresignExpiry)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return "", faults.Wrap(err, faults.KindNotFound, "document file not found")
		}
		return "", fmt.Errorf("presign file: %w", err)
	}
	return u, nil
}

// DeleteFile removes the stored object and clears the file fields on the
// owning document row, when one references the key.
func (s *Service) DeleteFile(ctx context.Context, key string) error {
	if err := s.objects.Delete(ctx, key); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return faults.Wrap(err, faults.KindNotFound, "document file not found")
		}
		return fmt.Errorf("delete file: %w", err)
	}
	if err := s.requests.DetachDocumentFile(ctx, key); err != nil {
		return err
	}
	s.log.Info("document file deleted", "key", key)
	return nil
}

// DocsIssued is the docs-issued aggregate for one period.
type DocsIssued struct {
	From   time.Time      `json:"from"`
	To     time.Time      `json:"to"`
	Total  int            `json:"total"`
	ByType map[string]int `json:"byType"`
}

// CountIssued counts documents issued in the half-open interval [from, to),
// grouped by document type.
func (s *Service) CountIssued(ctx context.Context, from, to time.Time) (*DocsIssued, error) {
	if !from.Before(to) {
		return nil, faults.New(faults.KindBadRequest, "period start must precede period end")
	}
	byType, err := s.requests.CountDocumentsByType(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := &DocsIssued{From: from, To: to, ByType: byType}
	for _, n := range byType {
		out.Total += n
	}
	return out, nil
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"greenledger/internal/config"
	"greenledger/internal/domain"
	"greenledger/internal/port"
	"greenledger/internal/validator"
)

// IngestResult reports one document's trip through the pipeline.
type IngestResult struct {
	Invoice    *domain.Invoice       `json:"invoice"`
	Duplicates []port.DuplicateMatch `json:"duplicates,omitempty"`
	Validation *validator.Report     `json:"validation,omitempty"`
	Stored     bool                  `json:"stored"`
}

// IngestService runs the full ingestion pipeline: validate, extract,
// duplicate-check, archive the original PDF, persist the record.
type IngestService interface {
	Ingest(ctx context.Context, filename string, data []byte) (*IngestResult, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID) error
	CheckDuplicate(ctx context.Context, invoiceNumber, receiver string) ([]port.DuplicateMatch, error)
}

type ingestService struct {
	extractor port.InvoiceExtractor
	repo      port.InvoiceRepository
	storage   port.ObjectStorage
	s3cfg     *config.S3Config
	checker   *validator.Engine
}

// NewIngestService creates a new IngestService implementation.
func NewIngestService(
	extractor port.InvoiceExtractor,
	repo port.InvoiceRepository,
	storage port.ObjectStorage,
	s3cfg *config.S3Config,
) IngestService {
	return &ingestService{
		extractor: extractor,
		repo:      repo,
		storage:   storage,
		s3cfg:     s3cfg,
		checker:   validator.NewEngine(),
	}
}

func (s *ingestService) Ingest(ctx context.Context, filename string, data []byte) (*IngestResult, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	maxBytes := s.s3cfg.MaxFileSizeMB * 1024 * 1024
	if int64(len(data)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	inv := s.extractor.Extract(data, filename)
	result := &IngestResult{Invoice: inv}

	// Error records (format rejection, hard failure) go back to the
	// caller for triage; they are never persisted.
	if inv.Failed() {
		log.Printf("ingestService.Ingest: %s: extraction failed: %s", filename, inv.Error)
		return result, nil
	}

	// Quality checks never block ingestion; failures are surfaced to the
	// caller and logged for operator review.
	result.Validation = s.checker.Validate(inv)
	if result.Validation.Status != validator.StatusValid {
		log.Printf("ingestService.Ingest: %s: validation %s (%d errors, %d warnings)",
			filename, result.Validation.Status,
			result.Validation.Summary.Errors, result.Validation.Summary.Warnings)
	}

	matches, err := s.repo.FindDuplicates(ctx, inv.InvoiceNumber, inv.Store)
	if err != nil {
		return nil, fmt.Errorf("ingestService.Ingest: duplicate check: %w", err)
	}
	result.Duplicates = matches

	// Archive the original bytes so the record can be re-extracted or
	// manually reviewed later.
	key := fmt.Sprintf("invoices/%s/%s", inv.Store, filename)
	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: "application/pdf",
		Size:        int64(len(data)),
	}); err != nil {
		log.Printf("ingestService.Ingest: S3 upload failed for %s: %v", filename, err)
		return nil, domain.ErrUploadFailed
	}

	// Upsert is idempotent on (invoice_number, store): re-ingesting a
	// duplicate converges on the latest extraction.
	if err := s.repo.Upsert(ctx, inv); err != nil {
		return nil, fmt.Errorf("ingestService.Ingest: persist: %w", err)
	}
	result.Stored = true

	if inv.DateExtractionFailed {
		log.Printf("ingestService.Ingest: %s: invoice date unreadable, record flagged for manual correction", filename)
	}
	return result, nil
}

func (s *ingestService) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ingestService) ListInvoices(ctx context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	return s.repo.List(ctx, filter, offset, limit)
}

func (s *ingestService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *ingestService) CheckDuplicate(ctx context.Context, invoiceNumber, receiver string) ([]port.DuplicateMatch, error) {
	return s.repo.FindDuplicates(ctx, invoiceNumber, domain.NormalizeStore(receiver))
}

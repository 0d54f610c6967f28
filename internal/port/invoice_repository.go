package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"greenledger/internal/domain"
)

// InvoiceFilter narrows List queries.
type InvoiceFilter struct {
	Store  domain.Store
	Status domain.InvoiceStatus
}

// DuplicateMatch holds enough information about a matching stored invoice
// for an actionable warning message.
type DuplicateMatch struct {
	ID            uuid.UUID `db:"id"`
	SourceFile    string    `db:"source_file"`
	InvoiceNumber string    `db:"invoice_number"`
	Store         string    `db:"store"`
	CreatedAt     time.Time `db:"created_at"`
}

// InvoiceRepository defines the contract for invoice persistence.
// Upsert must be idempotent on (invoice_number, store) so concurrent
// writers need no cross-process lock.
type InvoiceRepository interface {
	Upsert(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindDuplicates(ctx context.Context, invoiceNumber string, store domain.Store) ([]DuplicateMatch, error)
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"greenledger/internal/domain"
	"greenledger/internal/port"
)

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

// invoiceRow mirrors the invoices table. Line items are stored as a JSONB
// document, matching the record-per-invoice shape of the extraction output.
type invoiceRow struct {
	domain.Invoice
	LineItemsJSON json.RawMessage `db:"line_items"`
}

func (r *invoiceRepo) Upsert(ctx context.Context, inv *domain.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := time.Now().UTC()
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = now
	}
	inv.UpdatedAt = now
	if inv.Store == "" {
		inv.Store = domain.NormalizeStore(inv.Receiver)
	}

	itemsJSON, err := json.Marshal(inv.LineItems)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Upsert: marshal line items: %w", err)
	}

	// Idempotent upsert keyed by (invoice_number, store): concurrent
	// writers of the same invoice converge without a cross-process lock.
	query := `INSERT INTO invoices (
		id, invoice_number, invoice_ref, store,
		distributor, distributor_address, distributor_license,
		receiver, receiver_address, invoice_status,
		invoice_date, accepted_date, download_date,
		created_by, payment_terms,
		invoice_subtotal, invoice_discount, invoice_fees, invoice_tax,
		invoice_total, payments, balance, currency,
		line_items, source_file, extracted_at, extraction_method,
		date_extraction_failed, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7,
		$8, $9, $10,
		NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''),
		$14, $15,
		$16, $17, $18, $19,
		$20, $21, $22, $23,
		$24, $25, $26, $27,
		$28, $29, $30
	)
	ON CONFLICT (invoice_number, store) DO UPDATE SET
		invoice_ref = EXCLUDED.invoice_ref,
		distributor = EXCLUDED.distributor,
		distributor_address = EXCLUDED.distributor_address,
		distributor_license = EXCLUDED.distributor_license,
		receiver = EXCLUDED.receiver,
		receiver_address = EXCLUDED.receiver_address,
		invoice_status = EXCLUDED.invoice_status,
		invoice_date = EXCLUDED.invoice_date,
		accepted_date = EXCLUDED.accepted_date,
		download_date = EXCLUDED.download_date,
		created_by = EXCLUDED.created_by,
		payment_terms = EXCLUDED.payment_terms,
		invoice_subtotal = EXCLUDED.invoice_subtotal,
		invoice_discount = EXCLUDED.invoice_discount,
		invoice_fees = EXCLUDED.invoice_fees,
		invoice_tax = EXCLUDED.invoice_tax,
		invoice_total = EXCLUDED.invoice_total,
		payments = EXCLUDED.payments,
		balance = EXCLUDED.balance,
		line_items = EXCLUDED.line_items,
		source_file = EXCLUDED.source_file,
		extracted_at = EXCLUDED.extracted_at,
		extraction_method = EXCLUDED.extraction_method,
		date_extraction_failed = EXCLUDED.date_extraction_failed,
		updated_at = EXCLUDED.updated_at`

	_, err = r.db.ExecContext(ctx, query,
		inv.ID, inv.InvoiceNumber, inv.InvoiceID, inv.Store,
		inv.Distributor, inv.DistributorAddress, inv.DistributorLicense,
		inv.Receiver, inv.ReceiverAddress, inv.InvoiceStatus,
		inv.InvoiceDate, inv.AcceptedDate, inv.DownloadDate,
		inv.CreatedBy, inv.PaymentTerms,
		inv.InvoiceSubtotal, inv.InvoiceDiscount, inv.InvoiceFees, inv.InvoiceTax,
		inv.InvoiceTotal, inv.Payments, inv.Balance, inv.Currency,
		itemsJSON, inv.SourceFile, inv.ExtractedAt, inv.ExtractionMethod,
		inv.DateExtractionFailed, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Upsert: %w", err)
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var row invoiceRow
	err := r.db.GetContext(ctx, &row, selectInvoice+" WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	return row.toDomain()
}

func (r *invoiceRepo) List(ctx context.Context, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.Store != "" {
		args = append(args, filter.Store)
		where += fmt.Sprintf(" AND store = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND invoice_status = $%d", len(args))
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM invoices"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List count: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf("%s%s ORDER BY invoice_date DESC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d",
		selectInvoice, where, len(args)-1, len(args))

	var rows []invoiceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
	}

	invoices := make([]domain.Invoice, 0, len(rows))
	for i := range rows {
		inv, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindDuplicates returns stored invoices with the same invoice number at
// the same store. The same number at a different store is not a duplicate.
func (r *invoiceRepo) FindDuplicates(ctx context.Context, invoiceNumber string, store domain.Store) ([]port.DuplicateMatch, error) {
	var matches []port.DuplicateMatch
	err := r.db.SelectContext(ctx, &matches, `
		SELECT id, source_file, invoice_number, store, created_at
		FROM invoices
		WHERE invoice_number = $1
		  AND store = $2
		ORDER BY created_at DESC
		LIMIT 5`,
		invoiceNumber, store,
	)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.FindDuplicates: %w", err)
	}
	return matches, nil
}

const selectInvoice = `SELECT
	id, invoice_number, invoice_ref, store,
	distributor, distributor_address, distributor_license,
	receiver, receiver_address, invoice_status,
	COALESCE(invoice_date, '') AS invoice_date,
	COALESCE(accepted_date, '') AS accepted_date,
	COALESCE(download_date, '') AS download_date,
	created_by, payment_terms,
	invoice_subtotal, invoice_discount, invoice_fees, invoice_tax,
	invoice_total, payments, balance, currency,
	line_items, source_file, extracted_at, extraction_method,
	date_extraction_failed, created_at, updated_at
FROM invoices`

func (row *invoiceRow) toDomain() (*domain.Invoice, error) {
	inv := row.Invoice
	if len(row.LineItemsJSON) > 0 {
		if err := json.Unmarshal(row.LineItemsJSON, &inv.LineItems); err != nil {
			return nil, fmt.Errorf("invoiceRepo: unmarshal line items for %s: %w", inv.ID, err)
		}
	}
	return &inv, nil
}

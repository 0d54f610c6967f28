package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice is the structured record extracted from one vendor invoice PDF.
// A fresh record is produced per extraction call; nothing is shared or
// cached across calls. Money fields default to zero, date fields to the
// empty string, when not found in the document.
type Invoice struct {
	ID uuid.UUID `db:"id" json:"id,omitempty"`

	Distributor        string `db:"distributor" json:"distributor"`
	DistributorAddress string `db:"distributor_address" json:"distributor_address"`
	DistributorLicense string `db:"distributor_license" json:"distributor_license"`
	Receiver           string `db:"receiver" json:"receiver"`
	ReceiverAddress    string `db:"receiver_address" json:"receiver_address"`

	InvoiceStatus InvoiceStatus `db:"invoice_status" json:"invoice_status"`

	InvoiceNumber string `db:"invoice_number" json:"invoice_number"`
	InvoiceID     string `db:"invoice_ref" json:"invoice_id"`

	// Dates are YYYY-MM-DD strings; empty means not found.
	InvoiceDate  string `db:"invoice_date" json:"invoice_date"`
	AcceptedDate string `db:"accepted_date" json:"accepted_date"`
	DownloadDate string `db:"download_date" json:"download_date"`

	CreatedBy    string `db:"created_by" json:"created_by"`
	PaymentTerms string `db:"payment_terms" json:"payment_terms"`

	InvoiceSubtotal decimal.Decimal `db:"invoice_subtotal" json:"invoice_subtotal"`
	InvoiceDiscount decimal.Decimal `db:"invoice_discount" json:"invoice_discount"`
	InvoiceFees     decimal.Decimal `db:"invoice_fees" json:"invoice_fees"`
	InvoiceTax      decimal.Decimal `db:"invoice_tax" json:"invoice_tax"`
	InvoiceTotal    decimal.Decimal `db:"invoice_total" json:"invoice_total"`
	Payments        decimal.Decimal `db:"payments" json:"payments"`
	Balance         decimal.Decimal `db:"balance" json:"balance"`
	Currency        string          `db:"currency" json:"currency"`

	LineItems []LineItem `db:"-" json:"line_items"`

	SourceFile       string    `db:"source_file" json:"source_file"`
	ExtractedAt      time.Time `db:"extracted_at" json:"extracted_at"`
	ExtractionMethod string    `db:"extraction_method" json:"extraction_method"`

	// DateExtractionFailed marks a date that was present in the document
	// but rendered as null/control glyphs by a corrupted font subset.
	// Distinct from "field absent": these records need manual correction,
	// never a defaulted date.
	DateExtractionFailed bool `db:"date_extraction_failed" json:"_date_extraction_failed,omitempty"`

	// Error and FormatType are set only on hard failure or format rejection.
	Error      string `db:"-" json:"error,omitempty"`
	FormatType string `db:"-" json:"format_type,omitempty"`

	Store     Store     `db:"store" json:"store,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Failed reports whether the record is an error record rather than a
// parsed invoice.
func (inv *Invoice) Failed() bool {
	return inv.Error != ""
}

// LineItem is one purchased SKU within an invoice, in document order.
type LineItem struct {
	LineNumber     int             `json:"line_number"`
	Brand          string          `json:"brand"`
	ProductName    string          `json:"product_name"`
	ProductType    ProductType     `json:"product_type"`
	ProductSubtype string          `json:"product_subtype"`
	Strain         string          `json:"strain,omitempty"`
	UnitSize       string          `json:"unit_size,omitempty"`
	TraceID        string          `json:"trace_id"`
	SKUUnits       int             `json:"sku_units"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	ExcisePerUnit  decimal.Decimal `json:"excise_per_unit"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	TotalWithExcise decimal.Decimal `json:"total_cost_with_excise"`
	IsPromo        bool            `json:"is_promo"`
}

// LineItemTotal sums total_cost_with_excise across all line items. It
// should approximate subtotal+tax, but source documents are sometimes
// internally inconsistent, so callers log mismatches rather than reject.
func (inv *Invoice) LineItemTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range inv.LineItems {
		sum = sum.Add(li.TotalWithExcise)
	}
	return sum
}

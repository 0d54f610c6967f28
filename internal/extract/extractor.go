// Package extract implements the invoice PDF extraction pipeline: format
// classification, text and table extraction, header parsing, three-tier
// line-item parsing, and filename authority resolution. The pipeline is
// pure and synchronous: one PDF byte stream in, one record out, no shared
// state between calls.
package extract

import (
	"fmt"
	"log"

	"greenledger/internal/domain"
)

// Extractor runs the full extraction pipeline for single documents. It
// is stateless and safe for concurrent use.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract parses one invoice PDF. It never panics and never returns nil:
// format rejections and hard failures come back as error-tagged records
// so a batch caller can keep going.
func (e *Extractor) Extract(data []byte, filename string) (inv *domain.Invoice) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("extract.Extract: %s: recovered: %v", filename, r)
			inv = errorRecord(filename, fmt.Sprintf("panic during extraction: %v", r), "")
		}
	}()

	text, err := extractText(data)
	if err != nil && text == "" {
		return errorRecord(filename, err.Error(), "")
	}

	return e.parse(text, data, filename)
}

// parse runs the pipeline over an already-extracted text dump. Table
// detection is deferred until the line-item parser actually needs it.
func (e *Extractor) parse(text string, data []byte, filename string) *domain.Invoice {
	if !isTargetFormat(text) {
		return errorRecord(filename, "non-target format", FormatInventoryReceiving)
	}

	b := newInvoiceBuilder(filename)
	b.setHeader(parseHeader(text))

	tablesFn := func() [][][]string {
		tables, err := extractTables(data)
		if err != nil {
			log.Printf("extract.Extract: %s: table detection: %v", filename, err)
		}
		return tables
	}
	b.setLineItems(parseLineItems(text, tablesFn))

	inv := b.build()

	// Cross-check, diagnostic only: source documents are sometimes
	// internally inconsistent, so a mismatch is logged, never fatal.
	if len(inv.LineItems) > 0 {
		expected := inv.InvoiceSubtotal.Add(inv.InvoiceTax)
		got := inv.LineItemTotal()
		if !expected.IsZero() && got.Sub(expected).Abs().GreaterThan(totalTolerance) {
			log.Printf("extract.Extract: %s: line item total %s differs from subtotal+tax %s",
				filename, got, expected)
		}
	}
	return inv
}

// ParseText runs the pipeline over pre-extracted text with no table
// fallback. Used by callers that already hold a text dump.
func (e *Extractor) ParseText(text, filename string) *domain.Invoice {
	if !isTargetFormat(text) {
		return errorRecord(filename, "non-target format", FormatInventoryReceiving)
	}
	b := newInvoiceBuilder(filename)
	b.setHeader(parseHeader(text))
	b.setLineItems(parseLineItems(text, nil))
	return b.build()
}

var totalTolerance = mustDecimal("0.05")

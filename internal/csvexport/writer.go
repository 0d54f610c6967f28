// Package csvexport flattens stored invoices into spreadsheet exports:
// one row per line item with the invoice-level fields repeated, so a
// buyer can pivot on brand, product type, or store directly.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"greenledger/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// Columns defines the export header row (24 columns).
var Columns = []string{
	"Invoice Number",
	"Store",
	"Receiver",
	"Distributor",
	"Invoice Status",
	"Invoice Date",
	"Download Date",
	"Payment Terms",
	"Line Number",
	"Brand",
	"Product Name",
	"Product Type",
	"Product Subtype",
	"Strain",
	"Unit Size",
	"Trace ID",
	"SKU Units",
	"Unit Cost",
	"Excise Per Unit",
	"Total Cost",
	"Total With Excise",
	"Is Promo",
	"Source File",
	"Extracted At",
}

// Writer wraps csv.Writer for exporting invoices as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(Columns)
}

// WriteInvoices writes one row per line item. An invoice with no line
// items still contributes a single row with the item columns empty, so
// exports never silently drop a stored invoice.
func (w *Writer) WriteInvoices(invoices []domain.Invoice) error {
	for i := range invoices {
		for _, row := range InvoiceRows(&invoices[i]) {
			if err := w.csv.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// InvoiceRows flattens one invoice into export rows. Shared with the
// XLSX writer so both formats stay column-compatible.
func InvoiceRows(inv *domain.Invoice) [][]string {
	base := func() []string {
		row := make([]string, len(Columns))
		row[0] = inv.InvoiceNumber
		row[1] = string(inv.Store)
		row[2] = inv.Receiver
		row[3] = inv.Distributor
		row[4] = string(inv.InvoiceStatus)
		row[5] = inv.InvoiceDate
		row[6] = inv.DownloadDate
		row[7] = inv.PaymentTerms
		row[22] = inv.SourceFile
		row[23] = inv.ExtractedAt.Format(time.RFC3339)
		return row
	}

	if len(inv.LineItems) == 0 {
		return [][]string{base()}
	}

	rows := make([][]string, 0, len(inv.LineItems))
	for _, li := range inv.LineItems {
		row := base()
		row[8] = strconv.Itoa(li.LineNumber)
		row[9] = li.Brand
		row[10] = li.ProductName
		row[11] = string(li.ProductType)
		row[12] = li.ProductSubtype
		row[13] = li.Strain
		row[14] = li.UnitSize
		row[15] = li.TraceID
		row[16] = strconv.Itoa(li.SKUUnits)
		row[17] = formatMoney(li.UnitCost)
		row[18] = formatMoney(li.ExcisePerUnit)
		row[19] = formatMoney(li.TotalCost)
		row[20] = formatMoney(li.TotalWithExcise)
		row[21] = formatBool(li.IsPromo)
		rows = append(rows, row)
	}
	return rows
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans an export name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses
// consecutive underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition
// header. Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string) string {
	sanitized := SanitizeFilename(name)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}

package extract

import (
	"time"

	"greenledger/internal/domain"
)

// ExtractionMethod tags records produced by this parser, as opposed to
// records entered manually or corrected downstream.
const ExtractionMethod = "pdf_parsing"

// invoiceBuilder accumulates extraction results and produces the final
// immutable record exactly once. Fields land here in pipeline order:
// header first, then line items, then the filename authority overrides.
type invoiceBuilder struct {
	header    header
	items     []domain.LineItem
	source    string
	extracted time.Time
}

func newInvoiceBuilder(sourceFile string) *invoiceBuilder {
	return &invoiceBuilder{
		source:    sourceFile,
		extracted: time.Now().UTC(),
	}
}

func (b *invoiceBuilder) setHeader(h header) *invoiceBuilder {
	b.header = h
	return b
}

func (b *invoiceBuilder) setLineItems(items []domain.LineItem) *invoiceBuilder {
	b.items = items
	return b
}

// build assembles the final record and applies the filename authority:
// the filename's invoice number overrides the body unconditionally;
// download date comes from the filename timestamp; invoice date falls
// back to the download date only when unset and not corruption-flagged.
func (b *invoiceBuilder) build() *domain.Invoice {
	h := b.header
	inv := &domain.Invoice{
		Distributor:        h.distributor,
		DistributorAddress: h.distributorAddress,
		DistributorLicense: h.distributorLicense,
		Receiver:           h.receiver,
		ReceiverAddress:    h.receiverAddress,
		InvoiceStatus:      h.status,
		InvoiceNumber:      h.invoiceNumber,
		InvoiceDate:        h.invoiceDate,
		AcceptedDate:       h.acceptedDate,
		CreatedBy:          h.createdBy,
		PaymentTerms:       h.paymentTerms,
		InvoiceSubtotal:    h.subtotal,
		InvoiceDiscount:    h.discount,
		InvoiceFees:        h.fees,
		InvoiceTax:         h.tax,
		InvoiceTotal:       h.total,
		Payments:           h.payments,
		Balance:            h.balance,
		Currency:           "USD",
		LineItems:          b.items,
		SourceFile:         b.source,
		ExtractedAt:        b.extracted,
		ExtractionMethod:   ExtractionMethod,

		DateExtractionFailed: h.dateExtractionFailed,
	}

	if auth, ok := resolveFilename(b.source); ok {
		inv.InvoiceNumber = auth.invoiceNumber
		if auth.downloadDate != "" {
			inv.DownloadDate = auth.downloadDate
			if inv.InvoiceDate == "" && !inv.DateExtractionFailed {
				inv.InvoiceDate = inv.DownloadDate
			}
		}
	}
	inv.InvoiceID = inv.InvoiceNumber
	inv.Store = domain.NormalizeStore(inv.Receiver)
	return inv
}

// errorRecord is the uniform shape for hard failures and format
// rejections: no partial fields, just the error, its classification when
// known, and provenance.
func errorRecord(sourceFile, errMsg, formatType string) *domain.Invoice {
	return &domain.Invoice{
		Error:       errMsg,
		FormatType:  formatType,
		SourceFile:  sourceFile,
		ExtractedAt: time.Now().UTC(),
	}
}

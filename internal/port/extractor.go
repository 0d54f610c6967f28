package port

import "greenledger/internal/domain"

// InvoiceExtractor parses one invoice PDF byte stream into a structured
// record. Implementations never return nil: hard failures and format
// rejections come back as error-tagged records so batch callers can
// continue.
type InvoiceExtractor interface {
	Extract(data []byte, filename string) *domain.Invoice
}

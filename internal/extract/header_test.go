package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"greenledger/internal/domain"
)

// headerDump is a representative text dump of the vendor template's
// merged header block, as the fast-path extractor flattens it.
const headerDump = `Print Window
ACME DISTRIBUTION
INC.
1234 Industrial Ave, Unit 5
Oakland, CA 94601
C11-0000123
Barbary Coast Dispensary FULFILLED
INVOICE# 76219
Created: 3/1/2024
Accepted: 3/3/2024
Created By: Jane Smith undefined
Net 30
Item # Brand Product
1
Subt otal: $1,000.00
Discounts: $50.00
Fees: $10.00
Excise Tax: $150.00
Total Cost: $1,110.00
Payments: $0.00
Balance: $1,110.00
`

func TestParseHeader_Full(t *testing.T) {
	h := parseHeader(headerDump)

	assert.Equal(t, "ACME DISTRIBUTION INC.", h.distributor)
	assert.Equal(t, "1234 Industrial Ave, Unit 5, Oakland, CA 94601", h.distributorAddress)
	assert.Equal(t, "C11-0000123", h.distributorLicense)
	assert.Equal(t, domain.ReceiverBarbaryCoast, h.receiver)
	assert.Equal(t, domain.ReceiverBarbaryCoastAddress, h.receiverAddress)

	assert.Equal(t, domain.StatusFulfilled, h.status)
	assert.Equal(t, "76219", h.invoiceNumber)

	assert.Equal(t, "2024-03-01", h.invoiceDate)
	assert.Equal(t, "2024-03-03", h.acceptedDate)
	assert.False(t, h.dateExtractionFailed)

	assert.Equal(t, "Jane Smith", h.createdBy)
	assert.Equal(t, "Net 30", h.paymentTerms)

	assert.Equal(t, "1000.00", h.subtotal.StringFixed(2))
	assert.Equal(t, "50.00", h.discount.StringFixed(2))
	assert.Equal(t, "10.00", h.fees.StringFixed(2))
	assert.Equal(t, "150.00", h.tax.StringFixed(2))
	assert.Equal(t, "1110.00", h.total.StringFixed(2))
	assert.Equal(t, "0.00", h.payments.StringFixed(2))
	assert.Equal(t, "1110.00", h.balance.StringFixed(2))
}

func TestParseHeader_FirstPartyReceiver(t *testing.T) {
	text := `Print Window
Barbary Coast Dispensary FULFILLED INVOICE#
76219
Created: 3/1/2024
Item #
`
	h := parseHeader(text)
	assert.Equal(t, domain.ReceiverBarbaryCoast, h.receiver)
	// First-party receiving: no distributor printed.
	assert.Empty(t, h.distributor)
	assert.Equal(t, "76219", h.invoiceNumber)
}

func TestParseHeader_InvoiceNumberFromWindowTail(t *testing.T) {
	// The merged four-column header puts the number at the end of the
	// second window line.
	text := `Print Window
Grass Roots PENDING INVOICE#
SOME VENDOR 44321
Item #
`
	h := parseHeader(text)
	assert.Equal(t, "44321", h.invoiceNumber)
	assert.Equal(t, domain.ReceiverGrassRoots, h.receiver)
	assert.Equal(t, domain.StatusPending, h.status)
}

func TestParseHeader_CorruptedDate(t *testing.T) {
	t.Run("null_glyph_date_is_flagged", func(t *testing.T) {
		text := "Print Window\nBarbary Coast Dispensary FULFILLED INVOICE#\n" +
			"Created: \x00\x00/\x00\x00/\x00\x00\x00\x00\nItem #\n"
		h := parseHeader(text)
		assert.True(t, h.dateExtractionFailed)
		assert.Empty(t, h.invoiceDate)
	})

	t.Run("absent_date_is_not_corruption", func(t *testing.T) {
		text := "Print Window\nBarbary Coast Dispensary FULFILLED INVOICE#\nItem #\n"
		h := parseHeader(text)
		assert.False(t, h.dateExtractionFailed)
		assert.Empty(t, h.invoiceDate)
	})

	t.Run("good_date_wins_over_corruption_check", func(t *testing.T) {
		text := "Created: 12/25/2023\n"
		h := parseHeader(text)
		assert.False(t, h.dateExtractionFailed)
		assert.Equal(t, "2023-12-25", h.invoiceDate)
	})
}

func TestParseHeader_Status(t *testing.T) {
	t.Run("cancelled", func(t *testing.T) {
		h := parseHeader("Print Window\nGrass Roots CANCELLED INVOICE#\nItem #\n")
		assert.Equal(t, domain.StatusCancelled, h.status)
	})

	t.Run("defaults_to_unknown", func(t *testing.T) {
		h := parseHeader("Print Window\nGrass Roots\nItem #\n")
		assert.Equal(t, domain.StatusUnknown, h.status)
	})
}

func TestParseHeader_PaymentTerms(t *testing.T) {
	t.Run("cod_wins", func(t *testing.T) {
		h := parseHeader("Print Window\nGrass Roots FULFILLED INVOICE#\nCOD\nItem #\n")
		assert.Equal(t, "COD", h.paymentTerms)
	})

	t.Run("net_days", func(t *testing.T) {
		h := parseHeader("Print Window\nGrass Roots FULFILLED INVOICE#\nNet 15\nItem #\n")
		assert.Equal(t, "Net 15", h.paymentTerms)
	})

	t.Run("unreadable_digits_default_to_net_30", func(t *testing.T) {
		h := parseHeader("Print Window\nGrass Roots FULFILLED INVOICE#\nNet -\nItem #\n")
		assert.Equal(t, "Net 30", h.paymentTerms)
	})

	t.Run("no_terms", func(t *testing.T) {
		h := parseHeader("Print Window\nGrass Roots FULFILLED INVOICE#\nItem #\n")
		assert.Empty(t, h.paymentTerms)
	})
}

func TestParseHeader_FuzzyReceiverMatch(t *testing.T) {
	// A stray glyph-width space from a bad font subset still matches
	// within the accepted edit distance.
	text := "Print Window\nBarbary Coast Dis pensary\nFULFILLED INVOICE# 555\nItem #\n"
	h := parseHeader(text)
	assert.Equal(t, domain.ReceiverBarbaryCoast, h.receiver)
	assert.Equal(t, domain.StatusFulfilled, h.status)
}

func TestHeaderWindow_StopsAtItemTable(t *testing.T) {
	lines := strings.Split("Print Window\na\nb\nItem #\nc\nd", "\n")
	window := headerWindow(lines)
	assert.Equal(t, []string{"a", "b"}, window)
}

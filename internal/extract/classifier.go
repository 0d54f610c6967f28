package extract

import "regexp"

// FormatInventoryReceiving tags documents produced by the vendor's
// inventory-receiving system, whose layout this parser does not handle.
const FormatInventoryReceiving = "inventory_receiving"

// Fingerprints of the inventory-receiving template. Any single match
// rejects the document before header or line-item parsing is attempted.
var (
	reForeignDateOrder   = regexp.MustCompile(`(?s)Created\s+Date:.*Accepted\s+Date:.*Distributor:`)
	reForeignInvoiceHead = regexp.MustCompile(`(?s)INVOICE\s*#\s*\d+\s*\n.*Created\s+Date:`)
	reForeignInventory   = regexp.MustCompile(`Inventory\s+Location:`)
	reForeignButtons     = regexp.MustCompile(`View\s+In\s+Inventory\s+Make\s+Payment`)
	reForeignColorCodes  = regexp.MustCompile(`(?s)Items\s*\(\d+\)\s*\n.*Line\s+Item\s+Color\s+Codes:`)

	reInvoiceMarker  = regexp.MustCompile(`INVOICE\s*#`)
	reExpectedHeader = regexp.MustCompile(`(Barbary Coast Dispensary|Grass Roots)\s+(FULFILLED|PENDING|CANCELLED)\s+INVOICE#`)
)

// isTargetFormat reports whether the extracted text looks like the
// vendor-system invoice template this parser understands. It runs before
// any other parsing to avoid wasted work and spurious partial matches.
func isTargetFormat(text string) bool {
	if reForeignDateOrder.MatchString(text) ||
		reForeignInvoiceHead.MatchString(text) ||
		reForeignInventory.MatchString(text) ||
		reForeignButtons.MatchString(text) ||
		reForeignColorCodes.MatchString(text) {
		return false
	}
	// An INVOICE# marker without the expected "<receiver> <STATUS> INVOICE#"
	// header and without the Print Window page chrome is a foreign template.
	if reInvoiceMarker.MatchString(text) &&
		!reExpectedHeader.MatchString(text) &&
		!containsPrintWindow(text) {
		return false
	}
	return true
}

func containsPrintWindow(text string) bool {
	return rePrintWindow.MatchString(text)
}

var rePrintWindow = regexp.MustCompile(`Print\s+Window`)

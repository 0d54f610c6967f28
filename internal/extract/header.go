package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/shopspring/decimal"

	"greenledger/internal/domain"
)

const (
	// headerWindowSize is how many lines after the page-chrome anchor are
	// considered part of the merged four-column header.
	headerWindowSize = 15
	// fuzzyRankMax is the max Levenshtein rank accepted when matching a
	// header line against a known receiver name.
	fuzzyRankMax = 3
)

var (
	reItemTableMarker = regexp.MustCompile(`^Item\s*#`)
	reStatusToken     = regexp.MustCompile(`\b(FULFILLED|PENDING|CANCELLED)\b`)
	reInvoiceNumTail  = regexp.MustCompile(`(\d{4,6})\s*$`)
	reInvoiceNumAny   = regexp.MustCompile(`INVOICE#?\s*\n?\s*(\d+)`)

	reCreatedDate  = regexp.MustCompile(`Created:\s*(\d{1,2})/(\d{1,2})/(\d{4})`)
	reAcceptedDate = regexp.MustCompile(`Accepted:\s*(\d{1,2})/(\d{1,2})/(\d{4})`)
	// A Created: label whose digits were replaced by nulls/whitespace from
	// a broken font subset. Requires a literal slash so a merely absent
	// date is not flagged as corrupted.
	reCreatedCorrupt = regexp.MustCompile(`Created:[\x00 ]*[/\x00 ]*/[/\x00 ]*`)

	reCreatedBy      = regexp.MustCompile(`Created\s+By:\s*(.+)`)
	reCreatedByNoise = regexp.MustCompile(`\s*(undefined|COD|Net).*$`)
	reNetTerms       = regexp.MustCompile(`Net\s+(\d+)`)
	reNetDash        = regexp.MustCompile(`Net\s*[-\x{2013}\x{2014}\x00]`)
	reCODTerms       = regexp.MustCompile(`\bCOD\b`)

	reLicense      = regexp.MustCompile(`C\d{1,2}-?\d{5,7}`)
	rePhone        = regexp.MustCompile(`\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)
	reStreetSuffix = regexp.MustCompile(`(?i)\b(ST|STREET|AVE|AVENUE|BLVD|RD|DR|WAY|LN|HIGHWAY|HWY|UNIT|SUITE)\b`)
	reCityStateZip = regexp.MustCompile(`[A-Za-z .]+,\s*[A-Z]{2}\s*\d{5}`)
	reNameSuffix   = regexp.MustCompile(`^(INC|LLC|CORP)\.?,?$`)

	reSubtotal = regexp.MustCompile(`Subt\s*otal\s*:?\s*\$?\s*([\d,]+\.\d{2})`)
	reDiscount = regexp.MustCompile(`Discounts?\s*:?\s*\$?\s*\(?([\d,]+\.\d{2})\)?`)
	reFees     = regexp.MustCompile(`Fees\s*:?\s*\$?\s*([\d,]+\.\d{2})`)
	reTax      = regexp.MustCompile(`Excise\s*Tax\s*:?\s*\$?\s*([\d,]+\.\d{2})`)
	reTotal    = regexp.MustCompile(`Total\s*Cost\s*:?\s*\$?\s*([\d,]+\.\d{2})`)
	rePayments = regexp.MustCompile(`Payments\s*:?\s*\$?\s*([\d,]+\.\d{2})`)
	reBalance  = regexp.MustCompile(`Balance\s*:?\s*\$?\s*([\d,]+\.\d{2})`)
)

// header holds every invoice-level field recovered from the text dump.
// Each field degrades independently: a miss leaves the zero value and
// never blocks the other extractors.
type header struct {
	distributor        string
	distributorAddress string
	distributorLicense string
	receiver           string
	receiverAddress    string

	status        domain.InvoiceStatus
	invoiceNumber string

	invoiceDate          string
	acceptedDate         string
	dateExtractionFailed bool

	createdBy    string
	paymentTerms string

	subtotal decimal.Decimal
	discount decimal.Decimal
	fees     decimal.Decimal
	tax      decimal.Decimal
	total    decimal.Decimal
	payments decimal.Decimal
	balance  decimal.Decimal
}

// parseHeader recovers the invoice-level fields from the raw text dump.
// The input must be the uncleaned text: corrupted-date detection depends
// on seeing the null bytes a broken font subset leaves behind.
func parseHeader(text string) header {
	var h header

	lines := strings.Split(text, "\n")
	window := headerWindow(lines)

	h.parseParties(window)
	h.parseStatus(window, text)
	h.parseInvoiceNumber(window, text)
	h.parseDates(text)
	h.parseCreatedBy(text)
	h.parseTerms(window, text)
	h.parseTotals(text)

	return h
}

// headerWindow locates the page-chrome anchor and returns the lines that
// form the merged header block, stopping at the line-item table marker.
func headerWindow(lines []string) []string {
	start := -1
	for i, line := range lines {
		if rePrintWindow.MatchString(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		// No anchor: fall back to the line carrying the expected header
		// pattern, then to the top of the document.
		for i, line := range lines {
			if reExpectedHeader.MatchString(line) {
				start = i
				break
			}
		}
	}
	if start < 0 {
		start = 0
	}

	end := start
	for end < len(lines) && end < start+headerWindowSize {
		if reItemTableMarker.MatchString(strings.TrimSpace(lines[end])) {
			break
		}
		end++
	}
	return lines[start:end]
}

// matchReceiver matches a cleaned line against the two known receiver
// names: exact, substring (receiver text concatenated with vendor text on
// one line), then fuzzy for lines mangled by bad glyph widths.
// Returns the canonical receiver name and the index where it begins.
func matchReceiver(line string) (name string, at int, ok bool) {
	for _, recv := range []string{domain.ReceiverBarbaryCoast, domain.ReceiverGrassRoots} {
		if line == recv {
			return recv, 0, true
		}
		if idx := strings.Index(line, recv); idx >= 0 {
			return recv, idx, true
		}
	}
	for _, recv := range []string{domain.ReceiverBarbaryCoast, domain.ReceiverGrassRoots} {
		rank := fuzzy.RankMatchNormalizedFold(recv, line)
		if rank >= 0 && rank <= fuzzyRankMax {
			return recv, 0, true
		}
	}
	return "", 0, false
}

func receiverAddressFor(name string) string {
	switch name {
	case domain.ReceiverBarbaryCoast:
		return domain.ReceiverBarbaryCoastAddress
	case domain.ReceiverGrassRoots:
		return domain.ReceiverGrassRootsAddress
	}
	return ""
}

// isAddressLike filters lines that belong to the address block rather
// than the vendor name: street addresses, phone numbers, emails, licenses.
func isAddressLike(line string) bool {
	return reStreetSuffix.MatchString(line) ||
		rePhone.MatchString(line) ||
		reLicense.MatchString(line) ||
		strings.Contains(line, "@")
}

func (h *header) parseParties(window []string) {
	if len(window) == 0 {
		return
	}

	first := cleanText(window[0])
	if name, _, ok := matchReceiver(first); ok && strings.HasPrefix(first, name) {
		// First-party receiving: no distributor printed on this invoice.
		h.receiver = name
		h.receiverAddress = receiverAddressFor(name)
		h.parseDistributorLicense(window)
		return
	}

	recvIdx := -1
	for i, raw := range window {
		line := cleanText(raw)
		if name, _, ok := matchReceiver(line); ok {
			h.receiver = name
			h.receiverAddress = receiverAddressFor(name)
			recvIdx = i
			break
		}
	}

	pre := window
	if recvIdx >= 0 {
		pre = window[:recvIdx]
	}

	// Vendor name: up to two leading non-address lines, joined with a
	// space so a lone INC/LLC/CORP continuation line attaches correctly.
	var nameLines []string
	nameEnd := 0
	for i, raw := range pre {
		line := cleanText(raw)
		if line == "" {
			continue
		}
		if isAddressLike(line) && !reNameSuffix.MatchString(line) {
			break
		}
		nameLines = append(nameLines, line)
		nameEnd = i + 1
		if len(nameLines) == 2 && !reNameSuffix.MatchString(line) {
			break
		}
		if len(nameLines) == 3 {
			break
		}
	}
	h.distributor = strings.Join(nameLines, " ")

	// Address: street-suffix lines after the name block, never a line
	// carrying one of the fixed receiver street addresses.
	for i := nameEnd; i < len(pre); i++ {
		line := cleanText(pre[i])
		if line == "" || isReceiverAddress(line) {
			continue
		}
		if reStreetSuffix.MatchString(line) {
			h.distributorAddress = line
			if i+1 < len(pre) {
				next := cleanText(pre[i+1])
				if reCityStateZip.MatchString(next) && !isReceiverAddress(next) {
					h.distributorAddress += ", " + next
				}
			}
			break
		}
	}

	h.parseDistributorLicense(window)
}

func isReceiverAddress(line string) bool {
	return strings.Contains(line, "952 Mission") || strings.Contains(line, "1077 Post")
}

func (h *header) parseDistributorLicense(window []string) {
	for _, raw := range window {
		if m := reLicense.FindString(cleanText(raw)); m != "" {
			h.distributorLicense = m
			return
		}
	}
}

func (h *header) parseStatus(window []string, text string) {
	for _, raw := range window {
		if m := reStatusToken.FindString(raw); m != "" {
			h.status = domain.InvoiceStatus(m)
			return
		}
	}
	if m := reStatusToken.FindString(text); m != "" {
		h.status = domain.InvoiceStatus(m)
		return
	}
	h.status = domain.StatusUnknown
}

func (h *header) parseInvoiceNumber(window []string, text string) {
	if len(window) > 1 {
		if m := reInvoiceNumTail.FindStringSubmatch(cleanText(window[1])); m != nil {
			h.invoiceNumber = m[1]
			return
		}
	}
	if m := reInvoiceNumAny.FindStringSubmatch(text); m != nil {
		h.invoiceNumber = m[1]
	}
}

func (h *header) parseDates(text string) {
	if m := reCreatedDate.FindStringSubmatch(text); m != nil {
		h.invoiceDate = toISODate(m[1], m[2], m[3])
	} else if reCreatedCorrupt.MatchString(text) {
		// The date is present but its digits were destroyed by a corrupted
		// font subset. Flag for manual correction; never fabricate a date.
		h.dateExtractionFailed = true
	}

	if m := reAcceptedDate.FindStringSubmatch(text); m != nil {
		h.acceptedDate = toISODate(m[1], m[2], m[3])
	}
}

// toISODate converts MM/DD/YYYY components to YYYY-MM-DD.
func toISODate(month, day, year string) string {
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	return fmt.Sprintf("%s-%02d-%02d", year, m, d)
}

func (h *header) parseCreatedBy(text string) {
	m := reCreatedBy.FindStringSubmatch(text)
	if m == nil {
		return
	}
	name := reCreatedByNoise.ReplaceAllString(m[1], "")
	h.createdBy = cleanText(name)
}

func (h *header) parseTerms(window []string, text string) {
	joined := strings.Join(window, "\n")
	for _, scope := range []string{joined, text} {
		if reCODTerms.MatchString(scope) {
			h.paymentTerms = "COD"
			return
		}
		if m := reNetTerms.FindStringSubmatch(scope); m != nil {
			h.paymentTerms = "Net " + m[1]
			return
		}
		if reNetDash.MatchString(scope) {
			// "Net" followed by an unreadable digit run. Net 30 is the
			// vendor's standard term; documented heuristic, not a guess
			// at arbitrary data.
			h.paymentTerms = "Net 30"
			return
		}
	}
}

func (h *header) parseTotals(text string) {
	h.subtotal = findAmount(reSubtotal, text)
	h.discount = findAmount(reDiscount, text)
	h.fees = findAmount(reFees, text)
	h.tax = findAmount(reTax, text)
	h.total = findAmount(reTotal, text)
	h.payments = findAmount(rePayments, text)
	h.balance = findAmount(reBalance, text)
}

func findAmount(re *regexp.Regexp, text string) decimal.Decimal {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero
	}
	d, ok := parsePrice(m[1])
	if !ok {
		return decimal.Zero
	}
	return d
}

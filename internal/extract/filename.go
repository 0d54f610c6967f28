package extract

import (
	"fmt"
	"regexp"
)

var (
	// Full download convention: invoice_<number>_<YYYYMMDD>_<HHMMSS>.<ext>
	reFilenameFull = regexp.MustCompile(`(?i)invoice[_\s-]*(\d+)_(\d{8})_(\d{6})`)
	// Bare convention: invoice_<number> with no timestamp suffix.
	reFilenameBare = regexp.MustCompile(`(?i)invoice[_\s-]*(\d+)`)
)

// filenameAuthority is what the filename convention contributes: the
// invoice number encoded in the filename is authoritative and overrides
// any number found in the PDF body (internal vendor reference numbers
// sometimes appear in-body and are not the true invoice number).
type filenameAuthority struct {
	invoiceNumber string
	downloadDate  string // YYYY-MM-DD, only from the full convention
}

// resolveFilename parses the download filename convention. ok is false
// when neither pattern matches and nothing should be overridden.
func resolveFilename(filename string) (filenameAuthority, bool) {
	if m := reFilenameFull.FindStringSubmatch(filename); m != nil {
		date := m[2]
		return filenameAuthority{
			invoiceNumber: m[1],
			downloadDate:  fmt.Sprintf("%s-%s-%s", date[0:4], date[4:6], date[6:8]),
		}, true
	}
	if m := reFilenameBare.FindStringSubmatch(filename); m != nil {
		return filenameAuthority{invoiceNumber: m[1]}, true
	}
	return filenameAuthority{}, false
}

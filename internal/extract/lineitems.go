package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"greenledger/internal/domain"
)

const (
	// itemGapTolerance is how far ahead of the expected item number a
	// printed index may jump before the walk treats it as a stray number
	// rather than the next item.
	itemGapTolerance = 3
	// maxBlockLines bounds how many lines one item block may span.
	maxBlockLines = 15
)

// typeAlternation is the closed product-category vocabulary printed on
// the TYPE - SUBTYPE line. Corrupted font subsets can split BEVERAGE into
// "BEVERA GE", so that keyword tolerates an internal gap.
const typeAlternation = `CARTRIDGE|EDIBLE|PREROLL|FLOWER|EXTRACT|BEVERA\s*GE|TINCTURE|TOPICAL|CAPSULE|CONCENTRATE|VAPE|MERCHANDISE|MERCH|ACCESSORY|SUPPLIES|SUPPLY|ROLLING|INFUSED|APPAREL|GEAR|DEVICE|HARDWARE|PILL|TABLET|SUBLINGUAL|OIL|SPRAY|PATCH|BALM|LOTION|CREAM`

var (
	reItemNum     = regexp.MustCompile(`^\d+$`)
	reTypeKeyword = regexp.MustCompile(`^(` + typeAlternation + `)\s*-`)
	reTraceLine   = regexp.MustCompile(`^[A-Z0-9]{20,}`)
	reTracePrefix = regexp.MustCompile(`^(1A|7D)`)
	reTotalsRow   = regexp.MustCompile(`^(Fees|Discounts|Subt\s*otal|Total\s*Cost|Excise\s*Tax|Payments|Balance)`)
	rePromoPrefix = regexp.MustCompile(`^\((\d+)\)\s*(.+)`)
	rePromoMarker = regexp.MustCompile(`\[PROMO\]`)

	// rePageChrome matches viewer chrome repeated on page breaks. Those
	// lines carry no invoice data and must never land in a product name.
	rePageChrome = regexp.MustCompile(`Print Window|Need Help|^menu$`)

	reSingleLineHeader = regexp.MustCompile(`(?m)^Item\s*#?\s*Brand`)
	reSingleLineItem   = regexp.MustCompile(
		`^(\d+)\s+(?:\((\d+)\)\s+)?(.+?)\s+(` + typeAlternation + `)\s*-\s*([A-Z /]+?)\s+([A-Z0-9]{10,})\s+(\d+)\s+` +
			`\$?([\d,]+\.\d{2})\s+\$?([\d,]+\.\d{2})\s+\$?([\d,]+\.\d{2})(?:\s+\$?([\d,]+\.\d{2}))?\s*$`)
	reBlockPricing = regexp.MustCompile(
		`(` + typeAlternation + `).*?([A-Z0-9]{10,})\s+(\d+)\s+` +
			`\$?([\d,]+\.\d{2})\s+\$?([\d,]+\.\d{2})\s+\$?([\d,]+\.\d{2})(?:\s+\$?([\d,]+\.\d{2}))?`)
	reBlockSubtype = regexp.MustCompile(
		`(?:` + typeAlternation + `)\s*-\s*([A-Z /]+?)\s*(?:[A-Z0-9]{10,}|$)`)
	reTrailingType = regexp.MustCompile(
		`(?:` + typeAlternation + `)\s*-?\s*[A-Z /]*$`)
)

// tierResult tags a strategy's outcome so "tried and found nothing" stays
// distinguishable from "not attempted".
type tierResult struct {
	attempted bool
	items     []domain.LineItem
}

// parseLineItems runs the three strategies in fixed priority order. The
// first tier yielding a non-empty item list wins; tiers are never merged.
// tablesFn is called lazily since table detection is the expensive path.
func parseLineItems(text string, tablesFn func() [][][]string) []domain.LineItem {
	if r := parseItemsText(text); len(r.items) > 0 {
		return r.items
	}
	if tablesFn != nil {
		if r := parseItemsTable(tablesFn()); len(r.items) > 0 {
			return r.items
		}
	}
	return parseItemsRegex(text).items
}

// --- Tier 1: direct text-structure walk ---

// parseItemsText walks the flattened text following the repeating item
// grammar: item number, 1-4 brand/product lines, a TYPE - SUBTYPE line,
// a trace-ID line, then units and a run of dollar amounts. The expected
// item number is tracked as a monotonically increasing counter tolerant
// of gaps up to +3. Skipped entirely when the item-table anchor is absent.
func parseItemsText(text string) tierResult {
	rawLines := strings.Split(text, "\n")

	// The anchor is "Item #" on one line, or "Item" with "#" wrapped onto
	// the next line.
	anchor := -1
	for i, raw := range rawLines {
		line := cleanText(raw)
		if reItemTableMarker.MatchString(line) {
			anchor = i
			break
		}
		if line == "Item" && i+1 < len(rawLines) && cleanText(rawLines[i+1]) == "#" {
			anchor = i + 1
			break
		}
	}
	if anchor < 0 {
		return tierResult{attempted: false}
	}

	lines := make([]string, len(rawLines))
	for i, raw := range rawLines {
		lines[i] = cleanText(raw)
	}

	res := tierResult{attempted: true}
	expected := 1
	i := anchor + 1
	for i < len(lines) {
		line := lines[i]
		if reTotalsRow.MatchString(line) {
			break
		}
		if !reItemNum.MatchString(line) {
			i++
			continue
		}
		num, _ := strconv.Atoi(line)
		if num < expected || num > expected+itemGapTolerance {
			i++
			continue
		}

		item, consumed, ok := parseItemBlock(num, lines[i+1:])
		if !ok {
			i++
			continue
		}
		res.items = append(res.items, item)
		expected = num + 1
		i += 1 + consumed
	}
	return res
}

// parseItemBlock consumes the lines of one item, returning the parsed
// item and how many lines it used. The walk has three phases: pre-TYPE
// lines (brand/product text), the trace-ID line, then the numeric tail
// where the first plain integer is the unit count and dollar amounts are
// positional (unit cost, excise, total, total-with-excise).
func parseItemBlock(num int, lines []string) (domain.LineItem, int, bool) {
	typeIdx, traceIdx := -1, -1
	units := 0
	var amounts []decimal.Decimal

	limit := len(lines)
	if limit > maxBlockLines {
		limit = maxBlockLines
	}
	end := limit
	for j := 0; j < limit; j++ {
		line := lines[j]
		if reTotalsRow.MatchString(line) {
			end = j
			break
		}
		// Item blocks can straddle a page break; the repeated viewer
		// chrome is not part of the item.
		if rePageChrome.MatchString(line) {
			continue
		}
		switch {
		case typeIdx < 0:
			if reTypeKeyword.MatchString(line) {
				typeIdx = j
			} else if reItemNum.MatchString(line) {
				// Another item number before a TYPE line: desynchronized
				// block, bail out.
				end = j
				j = limit
			}
		case traceIdx < 0:
			if reTraceLine.MatchString(line) {
				traceIdx = j
			} else if reItemNum.MatchString(line) {
				end = j
				j = limit
			}
		default:
			// Numeric tail. A second bare integer after the unit count is
			// the next item's number.
			if reItemNum.MatchString(line) && units > 0 {
				end = j
				j = limit
				break
			}
			for _, tok := range strings.Fields(line) {
				if isPriceToken(tok) {
					if d, ok := parsePrice(tok); ok {
						amounts = append(amounts, d)
					}
					continue
				}
				if units == 0 {
					if n, ok := parseInt(tok); ok && n > 0 {
						units = n
					}
				}
			}
			if len(amounts) >= 4 {
				end = j + 1
				j = limit
			}
		}
	}
	if typeIdx < 0 || traceIdx < 0 || units == 0 || len(amounts) < 3 {
		return domain.LineItem{}, 0, false
	}

	ptype, subtype := splitTypeLine(lines[typeIdx])
	trace := strings.Fields(lines[traceIdx])[0]

	brand, product := splitBrandProduct(lines[:typeIdx])

	item := domain.LineItem{
		LineNumber:     num,
		Brand:          brand,
		ProductName:    product,
		ProductType:    ptype,
		ProductSubtype: subtype,
		TraceID:        trace,
		SKUUnits:       units,
		UnitCost:       amounts[0],
		ExcisePerUnit:  amounts[1],
		TotalCost:      amounts[2],
	}
	if len(amounts) >= 4 {
		item.TotalWithExcise = amounts[3]
	} else {
		item.TotalWithExcise = item.TotalCost
	}
	finishItem(&item, 1)
	return item, end, true
}

// splitBrandProduct applies the brand/product heuristic to the collected
// pre-TYPE lines. Best effort: unusual formatting can defeat it.
func splitBrandProduct(lines []string) (brand, product string) {
	var collected []string
	for _, line := range lines {
		if line != "" && !rePageChrome.MatchString(line) {
			collected = append(collected, line)
		}
	}
	switch len(collected) {
	case 0:
		return "", ""
	case 1:
		parts := strings.SplitN(collected[0], " ", 2)
		if len(parts) == 2 {
			return parts[0], parts[1]
		}
		return collected[0], ""
	case 2:
		return collected[0], collected[1]
	default:
		// Leading short all-caps lines with no digits are brand tokens;
		// the first longer or mixed-case line starts the product name.
		split := 0
		for split < len(collected)-1 && isBrandToken(collected[split]) {
			split++
		}
		if split == 0 {
			split = 1
		}
		return strings.Join(collected[:split], " "), strings.Join(collected[split:], " ")
	}
}

func isBrandToken(line string) bool {
	if len(line) > 15 || line != strings.ToUpper(line) {
		return false
	}
	return !strings.ContainsAny(line, "0123456789")
}

func splitTypeLine(line string) (domain.ProductType, string) {
	parts := strings.SplitN(line, "-", 2)
	ptype := normalizeProductType(strings.TrimSpace(parts[0]))
	subtype := ""
	if len(parts) == 2 {
		subtype = strings.TrimSpace(parts[1])
	}
	return ptype, subtype
}

var reKnownType = regexp.MustCompile(`^(` + typeAlternation + `)$`)

func normalizeProductType(s string) domain.ProductType {
	s = strings.ToUpper(strings.TrimSpace(s))
	// Rejoin split-glyph keywords like "BEVERA GE".
	s = strings.ReplaceAll(s, " ", "")
	if reKnownType.MatchString(s) {
		return domain.ProductType(s)
	}
	return domain.ProductTypeUnknown
}

// --- Tier 2: table-cell parse ---

// tier-2 fixed column layout, relative to the item-number column.
const (
	colItemNum = iota
	colBrand
	colProduct
	colType
	colTrace
	colSKU // vendor SKU, unused
	colUnits
	colUnitCost
	colExcise
	colTotal
	colTotalWithExcise
	tableColumns
)

// parseItemsTable parses the first qualifying detected table (first row
// with at least 10 cells). Rows with fewer than 11 columns after the
// item-number offset are dropped; rows whose trace ID lacks the expected
// prefix are dropped unless the product type is non-cannabis.
func parseItemsTable(tables [][][]string) tierResult {
	var table [][]string
	for _, t := range tables {
		if len(t) > 0 && len(t[0]) >= 10 {
			table = t
			break
		}
	}
	if table == nil {
		return tierResult{attempted: false}
	}

	res := tierResult{attempted: true}
	for _, row := range table {
		item, ok := parseTableRow(row)
		if ok {
			res.items = append(res.items, item)
		}
	}
	return res
}

func parseTableRow(row []string) (domain.LineItem, bool) {
	// The item-number column may be preceded by empty cells.
	offset := -1
	for i, cell := range row {
		if reItemNum.MatchString(cellLine(cell)) {
			offset = i
			break
		}
	}
	if offset < 0 || len(row)-offset < tableColumns {
		return domain.LineItem{}, false
	}
	cols := row[offset:]

	num, ok := parseInt(cellLine(cols[colItemNum]))
	if !ok || num <= 0 {
		return domain.LineItem{}, false
	}

	brand := cellText(cols[colBrand])
	promoCount := 1
	if m := rePromoPrefix.FindStringSubmatch(brand); m != nil {
		if n, ok := parseInt(m[1]); ok {
			promoCount = n
		}
		brand = strings.TrimSpace(m[2])
	}

	ptype, subtype := splitTypeLine(cellText(cols[colType]))
	trace := cellLine(cols[colTrace])
	if !reTracePrefix.MatchString(trace) && !ptype.IsNonCannabis() {
		return domain.LineItem{}, false
	}

	units, ok := parseInt(cellLine(cols[colUnits]))
	if !ok || units <= 0 {
		return domain.LineItem{}, false
	}
	unitCost, ok := parsePrice(cellLine(cols[colUnitCost]))
	if !ok {
		return domain.LineItem{}, false
	}
	excise, _ := parsePrice(cellLine(cols[colExcise]))
	total, ok := parsePrice(cellLine(cols[colTotal]))
	if !ok {
		return domain.LineItem{}, false
	}
	totalWithExcise, ok := parsePrice(cellLine(cols[colTotalWithExcise]))
	if !ok {
		totalWithExcise = total
	}

	item := domain.LineItem{
		LineNumber:      num,
		Brand:           brand,
		ProductName:     cellText(cols[colProduct]),
		ProductType:     ptype,
		ProductSubtype:  subtype,
		TraceID:         trace,
		SKUUnits:        units,
		UnitCost:        unitCost,
		ExcisePerUnit:   excise,
		TotalCost:       total,
		TotalWithExcise: totalWithExcise,
	}
	finishItem(&item, promoCount)
	return item, true
}

// cellLine returns the first line of a possibly multi-line cell, cleaned.
func cellLine(cell string) string {
	line, _, _ := strings.Cut(cell, "\n")
	return cleanText(line)
}

// cellText flattens a possibly multi-line cell into one cleaned string.
func cellText(cell string) string {
	return cleanText(strings.ReplaceAll(cell, "\n", " "))
}

// --- Tier 3: regex over raw text ---

// parseItemsRegex is the last-resort parse. The single-line variant is
// used when the item-table header fits one visual line; otherwise lines
// are accumulated between item-number anchors (strict increment, no gap
// tolerance) and the last 3 lines are joined to find the trailing pricing
// pattern.
func parseItemsRegex(text string) tierResult {
	if reSingleLineHeader.MatchString(text) {
		return parseItemsSingleLine(text)
	}
	return parseItemsMultiLine(text)
}

func parseItemsSingleLine(text string) tierResult {
	res := tierResult{attempted: true}
	for _, raw := range strings.Split(text, "\n") {
		m := reSingleLineItem.FindStringSubmatch(cleanText(raw))
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		// The parenthesized count after the item number is the promo
		// multiplicity; anything above 1 marks a promo line.
		promoCount := 1
		if m[2] != "" {
			if n, ok := parseInt(m[2]); ok {
				promoCount = n
			}
		}
		brand, product := splitBrandProduct([]string{m[3]})
		item := domain.LineItem{
			LineNumber:     num,
			Brand:          brand,
			ProductName:    product,
			ProductType:    normalizeProductType(m[4]),
			ProductSubtype: strings.TrimSpace(m[5]),
			TraceID:        m[6],
		}
		if !fillPricing(&item, m[7], m[8], m[9], m[10], m[11]) {
			continue
		}
		finishItem(&item, promoCount)
		res.items = append(res.items, item)
	}
	return res
}

func parseItemsMultiLine(text string) tierResult {
	res := tierResult{attempted: true}
	lines := strings.Split(text, "\n")

	expected := 1
	var block []string
	flush := func() {
		if item, ok := parseRegexBlock(expected-1, block); ok {
			res.items = append(res.items, item)
		}
		block = nil
	}

	inBlock := false
	for _, raw := range lines {
		line := cleanText(raw)
		if reItemNum.MatchString(line) {
			num, _ := strconv.Atoi(line)
			if num == expected {
				if inBlock {
					flush()
				}
				inBlock = true
				expected = num + 1
				continue
			}
		}
		if inBlock {
			if reTotalsRow.MatchString(line) {
				flush()
				inBlock = false
				continue
			}
			if rePageChrome.MatchString(line) {
				continue
			}
			block = append(block, line)
		}
	}
	if inBlock {
		flush()
	}
	return res
}

// parseRegexBlock joins the last 3 accumulated lines and searches for the
// trailing TYPE / trace / units / pricing pattern. The subtype sits
// between the TYPE keyword and the trace ID and is extracted separately;
// brand and product come from the lines above the tail plus whatever tail
// text precedes the TYPE keyword.
func parseRegexBlock(num int, block []string) (domain.LineItem, bool) {
	if len(block) == 0 {
		return domain.LineItem{}, false
	}
	head := 0
	tail := block
	if len(block) > 3 {
		head = len(block) - 3
		tail = block[head:]
	}
	joined := strings.Join(tail, " ")
	loc := reBlockPricing.FindStringSubmatchIndex(joined)
	if loc == nil {
		return domain.LineItem{}, false
	}
	group := func(i int) string {
		if loc[2*i] < 0 {
			return ""
		}
		return joined[loc[2*i]:loc[2*i+1]]
	}

	subtype := ""
	if m := reBlockSubtype.FindStringSubmatch(joined); m != nil {
		subtype = strings.TrimSpace(m[1])
	}

	// Everything before the trace ID, minus the trailing TYPE - SUBTYPE
	// fragment, is brand/product text.
	before := strings.TrimSpace(joined[:loc[4]])
	before = strings.TrimSpace(reTrailingType.ReplaceAllString(before, ""))
	nameLines := append([]string{}, block[:head]...)
	if before != "" {
		nameLines = append(nameLines, before)
	}
	brand, product := splitBrandProduct(nameLines)

	item := domain.LineItem{
		LineNumber:     num,
		Brand:          brand,
		ProductName:    product,
		ProductType:    normalizeProductType(group(1)),
		ProductSubtype: subtype,
		TraceID:        group(2),
	}
	if !fillPricing(&item, group(3), group(4), group(5), group(6), group(7)) {
		return domain.LineItem{}, false
	}
	finishItem(&item, 1)
	return item, true
}

// fillPricing parses the positional numeric captures: units, unit cost,
// excise, total, optional total-with-excise.
func fillPricing(item *domain.LineItem, units, unitCost, excise, total, totalWithExcise string) bool {
	n, ok := parseInt(units)
	if !ok || n <= 0 {
		return false
	}
	item.SKUUnits = n
	if item.UnitCost, ok = parsePrice(unitCost); !ok {
		return false
	}
	item.ExcisePerUnit, _ = parsePrice(excise)
	if item.TotalCost, ok = parsePrice(total); !ok {
		return false
	}
	if d, ok := parsePrice(totalWithExcise); ok {
		item.TotalWithExcise = d
	} else {
		item.TotalWithExcise = item.TotalCost
	}
	return true
}

// finishItem applies the tier-independent post-processing: unit size,
// strain, promo detection.
func finishItem(item *domain.LineItem, promoCount int) {
	item.UnitSize = unitSize(item.ProductName)
	item.Strain = strainName(item.ProductName)
	item.IsPromo = promoCount > 1 || rePromoMarker.MatchString(item.ProductName)
}

package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenledger/internal/domain"
)

const itemsDump = `Item #
1
ACME
WIDGET [1G]
FLOWER - INDICA
1A4060300003B1D000012345
10
$4.00
$0.60
$40.00
$46.00
Subt otal: $40.00
`

func TestParseItemsText_SingleItem(t *testing.T) {
	res := parseItemsText(itemsDump)
	require.True(t, res.attempted)
	require.Len(t, res.items, 1)

	item := res.items[0]
	assert.Equal(t, 1, item.LineNumber)
	assert.Equal(t, "ACME", item.Brand)
	assert.Equal(t, "WIDGET [1G]", item.ProductName)
	assert.Equal(t, domain.ProductTypeFlower, item.ProductType)
	assert.Equal(t, "INDICA", item.ProductSubtype)
	assert.Equal(t, "1A4060300003B1D000012345", item.TraceID)
	assert.Equal(t, 10, item.SKUUnits)
	assert.Equal(t, "4.00", item.UnitCost.StringFixed(2))
	assert.Equal(t, "0.60", item.ExcisePerUnit.StringFixed(2))
	assert.Equal(t, "40.00", item.TotalCost.StringFixed(2))
	assert.Equal(t, "46.00", item.TotalWithExcise.StringFixed(2))
	assert.Equal(t, "1G", item.UnitSize)
	assert.Equal(t, "WIDGET", item.Strain)
	assert.False(t, item.IsPromo)
}

func TestParseItemsText_NoAnchor(t *testing.T) {
	res := parseItemsText("1\nACME\nFLOWER - INDICA\n")
	assert.False(t, res.attempted)
	assert.Empty(t, res.items)
}

func itemBlock(num, name string) string {
	return num + "\nBRAND" + num + "\n" + name + "\nEDIBLE - GUMMY\n" +
		"1A4060300003B1D0000" + num + "9999\n5 $2.00 $0.30 $10.00 $11.50\n"
}

func TestParseItemsText_GapTolerance(t *testing.T) {
	t.Run("gap_within_tolerance_is_accepted", func(t *testing.T) {
		text := "Item #\n" + itemBlock("1", "CHEWS 100MG") + itemBlock("3", "DROPS 50MG") +
			"Subt otal: $20.00\n"
		res := parseItemsText(text)
		require.Len(t, res.items, 2)
		assert.Equal(t, 1, res.items[0].LineNumber)
		assert.Equal(t, 3, res.items[1].LineNumber)
	})

	t.Run("gap_beyond_tolerance_is_a_stray_number", func(t *testing.T) {
		text := "Item #\n" + itemBlock("1", "CHEWS 100MG") + itemBlock("9", "DROPS 50MG") +
			"Subt otal: $20.00\n"
		res := parseItemsText(text)
		require.Len(t, res.items, 1)
		assert.Equal(t, 1, res.items[0].LineNumber)
	})

	t.Run("numbers_below_expected_are_skipped", func(t *testing.T) {
		text := "Item #\n" + itemBlock("1", "CHEWS 100MG") + itemBlock("1", "DROPS 50MG") +
			"Subt otal: $20.00\n"
		res := parseItemsText(text)
		require.Len(t, res.items, 1)
	})
}

func TestParseItemsText_UnitsLineNotMistakenForItemNumber(t *testing.T) {
	// The bare unit-count line inside the numeric tail must not terminate
	// the block or start a phantom item.
	res := parseItemsText(itemsDump)
	require.Len(t, res.items, 1)
	assert.Equal(t, 10, res.items[0].SKUUnits)
}

func TestParseItemsText_TwoLineAnchor(t *testing.T) {
	text := "Item\n#\n" + itemBlock("1", "CHEWS 100MG") + "Subt otal: $10.00\n"
	res := parseItemsText(text)
	require.True(t, res.attempted)
	require.Len(t, res.items, 1)
	assert.Equal(t, "CHEWS 100MG", res.items[0].ProductName)
}

func TestParseItemsText_PageChromeInsideBlock(t *testing.T) {
	// An item straddling a page break picks up repeated viewer chrome
	// between its lines; none of it may leak into the product name.
	text := "Item #\n1\nACME\nPrint Window\nNeed Help?\nWIDGET [1G]\nFLOWER - INDICA\n" +
		"1A4060300003B1D000012345\n10 $4.00 $0.60 $40.00 $46.00\nSubt otal: $40.00\n"
	res := parseItemsText(text)
	require.Len(t, res.items, 1)
	assert.Equal(t, "ACME", res.items[0].Brand)
	assert.Equal(t, "WIDGET [1G]", res.items[0].ProductName)
}

func TestParseItemsText_SplitBeverageKeyword(t *testing.T) {
	text := "Item #\n1\nBREWCO\nROOT BEER 12OZ\nBEVERA GE - SODA\n" +
		"1A4060300003B1D000012345\n10 $4.00 $0.60 $40.00 $46.00\nSubt otal: $40.00\n"
	res := parseItemsText(text)
	require.Len(t, res.items, 1)
	assert.Equal(t, domain.ProductTypeBeverage, res.items[0].ProductType)
	assert.Equal(t, "SODA", res.items[0].ProductSubtype)
}

func TestParseItemsText_MissingTraceRejectsBlock(t *testing.T) {
	text := "Item #\n1\nACME\nWIDGET [1G]\nFLOWER - INDICA\n10\n$4.00 $0.60 $40.00\n" +
		"Subt otal: $40.00\n"
	res := parseItemsText(text)
	assert.True(t, res.attempted)
	assert.Empty(t, res.items)
}

func TestParseItemsText_ThreeAmountsDefaultTotalWithExcise(t *testing.T) {
	text := "Item #\n1\nACME\nWIDGET [1G]\nFLOWER - INDICA\n" +
		"1A4060300003B1D000012345\n10 $4.00 $0.60 $40.00\nSubt otal: $40.00\n"
	res := parseItemsText(text)
	require.Len(t, res.items, 1)
	assert.Equal(t, "40.00", res.items[0].TotalWithExcise.StringFixed(2))
}

// --- Tier 2 ---

func tableRow(num, brand, trace string, ptype string) []string {
	return []string{num, brand, "WIDGET [1G]", ptype, trace, "SKU-1",
		"10", "$4.00", "$0.60", "$40.00", "$46.00"}
}

func TestParseItemsTable(t *testing.T) {
	t.Run("parses_qualifying_table", func(t *testing.T) {
		tables := [][][]string{{
			tableRow("1", "ACME", "1A4060300003B1D000012345", "FLOWER - INDICA"),
			tableRow("2", "BLOOM", "7D4060300003B1D000054321", "EDIBLE - GUMMY"),
		}}
		res := parseItemsTable(tables)
		require.True(t, res.attempted)
		require.Len(t, res.items, 2)
		assert.Equal(t, "ACME", res.items[0].Brand)
		assert.Equal(t, domain.ProductTypeEdible, res.items[1].ProductType)
		assert.Equal(t, "46.00", res.items[0].TotalWithExcise.StringFixed(2))
	})

	t.Run("narrow_tables_are_not_attempted", func(t *testing.T) {
		res := parseItemsTable([][][]string{{{"just", "three", "cells"}}})
		assert.False(t, res.attempted)
		assert.Empty(t, res.items)
	})

	t.Run("bad_trace_prefix_drops_cannabis_rows", func(t *testing.T) {
		tables := [][][]string{{
			tableRow("1", "ACME", "XX4060300003B1D000012345", "FLOWER - INDICA"),
		}}
		res := parseItemsTable(tables)
		assert.True(t, res.attempted)
		assert.Empty(t, res.items)
	})

	t.Run("non_cannabis_rows_keep_any_trace", func(t *testing.T) {
		tables := [][][]string{{
			tableRow("1", "ACME", "NOTRACE000000000000000", "MERCH - APPAREL"),
		}}
		res := parseItemsTable(tables)
		require.Len(t, res.items, 1)
		assert.Equal(t, domain.ProductType("MERCH"), res.items[0].ProductType)
	})

	t.Run("promo_prefix_marks_promo", func(t *testing.T) {
		tables := [][][]string{{
			tableRow("1", "(3) ACME", "1A4060300003B1D000012345", "FLOWER - INDICA"),
		}}
		res := parseItemsTable(tables)
		require.Len(t, res.items, 1)
		assert.Equal(t, "ACME", res.items[0].Brand)
		assert.True(t, res.items[0].IsPromo)
	})

	t.Run("leading_empty_cells_are_skipped", func(t *testing.T) {
		row := append([]string{"", ""}, tableRow("1", "ACME", "1A4060300003B1D000012345", "FLOWER - INDICA")...)
		res := parseItemsTable([][][]string{{row}})
		require.Len(t, res.items, 1)
		assert.Equal(t, 1, res.items[0].LineNumber)
	})

	t.Run("short_rows_are_dropped", func(t *testing.T) {
		full := tableRow("1", "ACME", "1A4060300003B1D000012345", "FLOWER - INDICA")
		res := parseItemsTable([][][]string{{full, full[:8]}})
		require.Len(t, res.items, 1)
	})
}

// --- Tier 3 ---

func TestParseItemsRegex_SingleLine(t *testing.T) {
	t.Run("plain_line", func(t *testing.T) {
		text := "Item # Brand Product Type Trace Units Cost Excise Total\n" +
			"1 ACME WIDGET [1G] FLOWER - INDICA 1A4060300003B1D00001 10 $4.00 $0.60 $40.00 $46.00\n"
		res := parseItemsRegex(text)
		require.True(t, res.attempted)
		require.Len(t, res.items, 1)

		item := res.items[0]
		assert.Equal(t, 1, item.LineNumber)
		assert.Equal(t, "ACME", item.Brand)
		assert.Equal(t, "WIDGET [1G]", item.ProductName)
		assert.Equal(t, domain.ProductTypeFlower, item.ProductType)
		assert.Equal(t, "1A4060300003B1D00001", item.TraceID)
		assert.Equal(t, 10, item.SKUUnits)
		assert.Equal(t, "46.00", item.TotalWithExcise.StringFixed(2))
		assert.False(t, item.IsPromo)
	})

	t.Run("promo_multiplicity_prefix", func(t *testing.T) {
		text := "Item # Brand Product Type Trace Units Cost Excise Total\n" +
			"1 (3) ACME WIDGET [1G] FLOWER - INDICA 1A4060300003B1D00001 10 $4.00 $0.60 $40.00 $46.00\n"
		res := parseItemsRegex(text)
		require.Len(t, res.items, 1)

		item := res.items[0]
		assert.Equal(t, "ACME", item.Brand)
		assert.Equal(t, "WIDGET [1G]", item.ProductName)
		assert.True(t, item.IsPromo)
	})

	t.Run("multiplicity_of_one_is_not_promo", func(t *testing.T) {
		text := "Item # Brand Product Type Trace Units Cost Excise Total\n" +
			"1 (1) ACME WIDGET [1G] FLOWER - INDICA 1A4060300003B1D00001 10 $4.00 $0.60 $40.00 $46.00\n"
		res := parseItemsRegex(text)
		require.Len(t, res.items, 1)
		assert.Equal(t, "ACME", res.items[0].Brand)
		assert.False(t, res.items[0].IsPromo)
	})
}

func TestParseItemsRegex_MultiLine(t *testing.T) {
	t.Run("four_line_block", func(t *testing.T) {
		text := "1\nACME\nWIDGET [1G]\nFLOWER - INDICA\n" +
			"1A4060300003B1D00001 10 $4.00 $0.60 $40.00 $46.00\n" +
			"Subt otal: $40.00\n"
		res := parseItemsRegex(text)
		require.True(t, res.attempted)
		require.Len(t, res.items, 1)

		item := res.items[0]
		assert.Equal(t, 1, item.LineNumber)
		assert.Equal(t, "ACME", item.Brand)
		assert.Equal(t, "WIDGET [1G]", item.ProductName)
		assert.Equal(t, domain.ProductTypeFlower, item.ProductType)
		assert.Equal(t, "INDICA", item.ProductSubtype)
		assert.Equal(t, "1A4060300003B1D00001", item.TraceID)
		assert.Equal(t, 10, item.SKUUnits)
		assert.Equal(t, "40.00", item.TotalCost.StringFixed(2))
	})

	t.Run("compact_block_keeps_product_text", func(t *testing.T) {
		// The whole item fits in the joined tail; brand and product must
		// be recovered from the text before the type keyword.
		text := "1\nACME WIDGET [1G]\nFLOWER - INDICA\n" +
			"1A4060300003B1D00001 10 $4.00 $0.60 $40.00 $46.00\n" +
			"Subt otal: $40.00\n"
		res := parseItemsRegex(text)
		require.Len(t, res.items, 1)

		item := res.items[0]
		assert.Equal(t, "ACME", item.Brand)
		assert.Equal(t, "WIDGET [1G]", item.ProductName)
		assert.Equal(t, "INDICA", item.ProductSubtype)
	})

	t.Run("page_chrome_is_skipped", func(t *testing.T) {
		text := "1\nACME\nPrint Window\nNeed Help?\nWIDGET [1G]\nFLOWER - INDICA\n" +
			"1A4060300003B1D00001 10 $4.00 $0.60 $40.00 $46.00\n" +
			"Subt otal: $40.00\n"
		res := parseItemsRegex(text)
		require.Len(t, res.items, 1)
		assert.Equal(t, "ACME", res.items[0].Brand)
		assert.Equal(t, "WIDGET [1G]", res.items[0].ProductName)
	})
}

// --- Tier selection ---

func TestParseLineItems_TierPriority(t *testing.T) {
	t.Run("text_walk_wins_when_it_yields_items", func(t *testing.T) {
		called := false
		items := parseLineItems(itemsDump, func() [][][]string {
			called = true
			return nil
		})
		require.Len(t, items, 1)
		assert.False(t, called, "table detection must stay lazy")
	})

	t.Run("falls_back_to_tables", func(t *testing.T) {
		tables := [][][]string{{
			tableRow("1", "ACME", "1A4060300003B1D000012345", "FLOWER - INDICA"),
		}}
		items := parseLineItems("no anchors here", func() [][][]string { return tables })
		require.Len(t, items, 1)
		assert.Equal(t, "ACME", items[0].Brand)
	})

	t.Run("falls_back_to_regex", func(t *testing.T) {
		text := "1\nACME\nWIDGET [1G]\nFLOWER - INDICA\n" +
			"1A4060300003B1D00001 10 $4.00 $0.60 $40.00 $46.00\n" +
			"Subt otal: $40.00\n"
		items := parseLineItems(text, func() [][][]string { return nil })
		require.Len(t, items, 1)
	})

	t.Run("no_items_anywhere", func(t *testing.T) {
		assert.Empty(t, parseLineItems("nothing structured", nil))
	})
}

func TestSplitBrandProduct(t *testing.T) {
	t.Run("single_line_splits_at_first_space", func(t *testing.T) {
		brand, product := splitBrandProduct([]string{"ACME WIDGET [1G]"})
		assert.Equal(t, "ACME", brand)
		assert.Equal(t, "WIDGET [1G]", product)
	})

	t.Run("two_lines", func(t *testing.T) {
		brand, product := splitBrandProduct([]string{"ACME", "WIDGET [1G]"})
		assert.Equal(t, "ACME", brand)
		assert.Equal(t, "WIDGET [1G]", product)
	})

	t.Run("leading_caps_lines_are_brand", func(t *testing.T) {
		brand, product := splitBrandProduct([]string{"ACME", "FARMS", "Widget Deluxe 1g"})
		assert.Equal(t, "ACME FARMS", brand)
		assert.Equal(t, "Widget Deluxe 1g", product)
	})

	t.Run("empty", func(t *testing.T) {
		brand, product := splitBrandProduct(nil)
		assert.Empty(t, brand)
		assert.Empty(t, product)
	})
}

func TestNormalizeProductType(t *testing.T) {
	assert.Equal(t, domain.ProductTypeFlower, normalizeProductType("flower"))
	assert.Equal(t, domain.ProductTypeCartridge, normalizeProductType(" CARTRIDGE "))
	assert.Equal(t, domain.ProductTypeBeverage, normalizeProductType("BEVERA GE"))
	assert.Equal(t, domain.ProductTypeUnknown, normalizeProductType("MYSTERY"))
}

func TestParseItemsText_PromoMarker(t *testing.T) {
	text := strings.Replace(itemsDump, "WIDGET [1G]", "WIDGET [1G] [PROMO]", 1)
	res := parseItemsText(text)
	require.Len(t, res.items, 1)
	assert.True(t, res.items[0].IsPromo)
}

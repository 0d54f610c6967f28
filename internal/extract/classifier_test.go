package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTargetFormat(t *testing.T) {
	t.Run("accepts_vendor_invoice", func(t *testing.T) {
		text := "Print Window\nBarbary Coast Dispensary FULFILLED INVOICE# 12345\nItem #"
		assert.True(t, isTargetFormat(text))
	})

	t.Run("accepts_text_without_invoice_marker", func(t *testing.T) {
		assert.True(t, isTargetFormat("some unrelated page"))
	})

	t.Run("rejects_foreign_date_order", func(t *testing.T) {
		text := "Created Date: 01/02/2024\nAccepted Date: 01/03/2024\nDistributor: ACME"
		assert.False(t, isTargetFormat(text))
	})

	t.Run("rejects_foreign_invoice_head", func(t *testing.T) {
		text := "INVOICE # 99100\nsomething\nCreated Date: 01/02/2024"
		assert.False(t, isTargetFormat(text))
	})

	t.Run("rejects_inventory_location", func(t *testing.T) {
		assert.False(t, isTargetFormat("Inventory Location: Back Room"))
	})

	t.Run("rejects_action_buttons", func(t *testing.T) {
		assert.False(t, isTargetFormat("View In Inventory Make Payment"))
	})

	t.Run("rejects_color_code_legend", func(t *testing.T) {
		text := "Items (12)\nrows here\nLine Item Color Codes: green"
		assert.False(t, isTargetFormat(text))
	})

	t.Run("rejects_unknown_invoice_layout", func(t *testing.T) {
		// INVOICE# present, but neither the expected receiver header nor
		// the print-dialog page chrome.
		text := "Some Other Dispensary\nINVOICE# 555\nItem #"
		assert.False(t, isTargetFormat(text))
	})

	t.Run("print_window_rescues_mangled_header", func(t *testing.T) {
		text := "Print Window\nB@rbary Co@st FULFILLED\nINVOICE# 555"
		assert.True(t, isTargetFormat(text))
	})
}

func TestExtract_ForeignFormatErrorRecord(t *testing.T) {
	inv := New().ParseText("Inventory Location: Dock 3\nINVOICE # 1", "invoice_1.pdf")
	assert.True(t, inv.Failed())
	assert.Equal(t, FormatInventoryReceiving, inv.FormatType)
	assert.Equal(t, "invoice_1.pdf", inv.SourceFile)
	assert.Empty(t, inv.InvoiceNumber)
	assert.False(t, inv.ExtractedAt.IsZero())
}

package extract

import (
	"bytes"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// rowTolerance groups positioned text fragments into the same visual
	// line when their baselines are within this many points.
	rowTolerance = 3.0
	// wordGap is the horizontal gap (points) between fragments that
	// implies a space within the same cell.
	wordGap = 1.5
	// columnGap is the horizontal gap that implies a cell boundary when
	// reconstructing tables.
	columnGap = 30.0
)

type textFragment struct {
	x, y  float64
	width float64
	s     string
}

type textRow struct {
	y         float64
	fragments []textFragment
}

// extractText produces a flattened, line-oriented text dump of every page.
// This is the fast path: one pass over the positioned text, one output
// line per visual row. Pages with corrupted font subsets that yield no
// fragments are skipped rather than failing the whole document.
func extractText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract.extractText: recovered: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract.extractText: open reader: %w", err)
	}

	var lines []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, pageErr := pageRows(page)
		if pageErr != nil {
			log.Printf("extract.extractText: page %d: %v", i, pageErr)
			continue
		}
		for _, row := range rows {
			lines = append(lines, rowText(row, wordGap))
		}
	}
	return strings.Join(lines, "\n"), nil
}

// extractTables reconstructs tabular regions page by page: rows grouped
// by baseline, cells split at large horizontal gaps. One table per page;
// pages without at least one multi-cell row contribute nothing.
func extractTables(data []byte) (tables [][][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract.extractTables: recovered: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("extract.extractTables: open reader: %w", err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, pageErr := pageRows(page)
		if pageErr != nil {
			log.Printf("extract.extractTables: page %d: %v", i, pageErr)
			continue
		}
		var table [][]string
		for _, row := range rows {
			cells := rowCells(row)
			if len(cells) >= 2 {
				table = append(table, cells)
			}
		}
		if len(table) > 0 {
			tables = append(tables, table)
		}
	}
	return tables, nil
}

// pageRows groups a page's positioned text fragments into visual rows,
// top to bottom, fragments left to right.
func pageRows(page pdf.Page) (rows []textRow, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("content: recovered: %v", r)
		}
	}()

	content := page.Content()
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		frag := textFragment{x: t.X, y: t.Y, width: t.W, s: t.S}
		placed := false
		for j := range rows {
			if abs(rows[j].y-frag.y) <= rowTolerance {
				rows[j].fragments = append(rows[j].fragments, frag)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, textRow{y: frag.y, fragments: []textFragment{frag}})
		}
	}

	// PDF y-axis points up: larger y is higher on the page.
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].y > rows[b].y })
	for j := range rows {
		frags := rows[j].fragments
		sort.SliceStable(frags, func(a, b int) bool { return frags[a].x < frags[b].x })
	}
	return rows, nil
}

// rowText joins a row's fragments into one line, inserting a space where
// the horizontal gap between fragments exceeds gap.
func rowText(row textRow, gap float64) string {
	var sb strings.Builder
	var lastEnd float64
	for i, f := range row.fragments {
		if i > 0 && f.x-lastEnd > gap {
			sb.WriteByte(' ')
		}
		sb.WriteString(f.s)
		lastEnd = f.x + f.width
	}
	return strings.TrimRight(sb.String(), " ")
}

// rowCells splits a row into cells at columnGap-sized horizontal gaps.
func rowCells(row textRow) []string {
	var cells []string
	var sb strings.Builder
	var lastEnd float64
	for i, f := range row.fragments {
		if i > 0 {
			gap := f.x - lastEnd
			if gap > columnGap {
				cells = append(cells, strings.TrimSpace(sb.String()))
				sb.Reset()
			} else if gap > wordGap {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(f.s)
		lastEnd = f.x + f.width
	}
	if sb.Len() > 0 {
		cells = append(cells, strings.TrimSpace(sb.String()))
	}
	return cells
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

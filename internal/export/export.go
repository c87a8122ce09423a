// Package export renders analytics summaries as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/aawaaz/grievance-portal/internal/models"
)

// Sheet names
const (
	SheetSummary  = "Summary"
	SheetStatus   = "Status"
	SheetCategory = "Category"
)

// Analytics writes a into a workbook and returns its bytes with a
// suggested file name.
func Analytics(a models.Analytics, generatedAt time.Time) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SheetSummary)
	if err != nil {
		return nil, "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, "", fmt.Errorf("create style: %w", err)
	}

	// Summary
	f.SetColWidth(SheetSummary, "A", "A", 28)
	f.SetColWidth(SheetSummary, "B", "B", 24)
	summary := [][]any{
		{"Metric", "Value"},
		{"Total complaints", a.TotalComplaints},
		{"Resolution rate (%)", a.ResolutionRate},
		{"Average resolution time", a.AverageResolutionTime},
		{"Generated at", generatedAt.UTC().Format(time.RFC3339)},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(SheetSummary, cell("A", i+1), &row); err != nil {
			return nil, "", fmt.Errorf("write summary: %w", err)
		}
	}
	f.SetCellStyle(SheetSummary, "A1", "B1", headerStyle)

	if err := countSheet(f, SheetStatus, "Status", a.StatusCounts, headerStyle); err != nil {
		return nil, "", err
	}
	if err := countSheet(f, SheetCategory, "Category", a.CategoryCounts, headerStyle); err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}

	filename := fmt.Sprintf("analytics_%s.xlsx", generatedAt.UTC().Format("20060102"))
	return buf, filename, nil
}

// countSheet writes a two-column table sorted by count descending, then key
func countSheet(f *excelize.File, sheet, label string, counts map[string]float64, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", "B", 12)

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	f.SetCellValue(sheet, "A1", label)
	f.SetCellValue(sheet, "B1", "Count")
	f.SetCellStyle(sheet, "A1", "B1", headerStyle)

	for i, k := range keys {
		row := i + 2
		f.SetCellValue(sheet, cell("A", row), k)
		f.SetCellValue(sheet, cell("B", row), counts[k])
	}
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

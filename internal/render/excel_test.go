package render

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"docgen-api/internal/models"
)

func TestWriteReport(t *testing.T) {
	data := &models.ReportData{
		Title:   "Monthly Overview",
		Columns: []string{"region", "revenue"},
		Rows: []map[string]string{
			{"region": "EMEA", "revenue": "9000"},
			{"region": "APAC"},
		},
		Summary: map[string]string{"Total": "9000"},
	}

	out, err := WriteReport(data)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("workbook does not open: %v", err)
	}
	defer f.Close()

	title, err := f.GetCellValue(reportSheet, "A1")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if title != "Monthly Overview" {
		t.Errorf("A1 = %q, want the title", title)
	}

	// Header row sits below the title with one blank row between.
	header, _ := f.GetCellValue(reportSheet, "A3")
	if header != "region" {
		t.Errorf("A3 = %q, want %q", header, "region")
	}
	revenue, _ := f.GetCellValue(reportSheet, "B4")
	if revenue != "9000" {
		t.Errorf("B4 = %q, want %q", revenue, "9000")
	}
	// Missing cell stays empty rather than shifting the row.
	missing, _ := f.GetCellValue(reportSheet, "B5")
	if missing != "" {
		t.Errorf("B5 = %q, want empty", missing)
	}
}

func TestWriteReportEmptyRows(t *testing.T) {
	data := &models.ReportData{
		Title:   "Empty",
		Columns: []string{"a"},
	}
	out, err := WriteReport(data)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("empty workbook produced no bytes")
	}
}

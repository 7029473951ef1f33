package render

import (
	"bytes"
	"encoding/csv"
	"testing"

	"docgen-api/internal/models"
)

func TestWriteReportCSV(t *testing.T) {
	data := &models.ReportData{
		Title:   "Q1 Sales",
		Columns: []string{"region", "total"},
		Rows: []map[string]string{
			{"region": "east", "total": "9000"},
			{"region": "west"},
		},
		Summary: map[string]string{"total": "9000", "count": "2"},
	}

	out, err := WriteReportCSV(data)
	if err != nil {
		t.Fatalf("WriteReportCSV: %v", err)
	}

	rd := csv.NewReader(bytes.NewReader(out))
	rd.FieldsPerRecord = -1
	records, err := rd.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	if got := records[0]; got[0] != "region" || got[1] != "total" {
		t.Errorf("header = %v", got)
	}
	if got := records[1]; got[0] != "east" || got[1] != "9000" {
		t.Errorf("row 1 = %v", got)
	}
	// Missing cells render empty.
	if got := records[2]; got[0] != "west" || got[1] != "" {
		t.Errorf("row 2 = %v", got)
	}
	// The blank separator line is skipped by the reader; summary pairs
	// follow, sorted by key.
	if got := records[3]; got[0] != "count" || got[1] != "2" {
		t.Errorf("summary 1 = %v", got)
	}
	if got := records[4]; got[0] != "total" || got[1] != "9000" {
		t.Errorf("summary 2 = %v", got)
	}
}

func TestWriteReportCSVEmptyRows(t *testing.T) {
	out, err := WriteReportCSV(&models.ReportData{Columns: []string{"a"}})
	if err != nil {
		t.Fatalf("WriteReportCSV: %v", err)
	}
	if string(out) != "a\n" {
		t.Errorf("csv = %q", string(out))
	}
}

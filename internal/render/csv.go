package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"

	"docgen-api/internal/models"
)

// WriteReportCSV flattens tabular report data into CSV. Column order
// follows data.Columns, missing cells render empty. Summary pairs are
// appended after a blank record, sorted by key.
func WriteReportCSV(data *models.ReportData) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(data.Columns); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(data.Columns))
	for _, row := range data.Rows {
		for i, name := range data.Columns {
			record[i] = row[name]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	if len(data.Summary) > 0 {
		if err := w.Write([]string{}); err != nil {
			return nil, fmt.Errorf("failed to write separator: %w", err)
		}
		keys := make([]string, 0, len(data.Summary))
		for key := range data.Summary {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := w.Write([]string{key, data.Summary[key]}); err != nil {
				return nil, fmt.Errorf("failed to write summary: %w", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

package render

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"docgen-api/internal/models"
)

const reportSheet = "Report"

// WriteReport builds an xlsx workbook from tabular report data. Column
// order follows data.Columns, missing cells render empty.
func WriteReport(data *models.ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(reportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDDDDD"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	row := 1
	if data.Title != "" {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		f.SetCellValue(reportSheet, cell, data.Title)
		row += 2
	}

	for col, name := range data.Columns {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		f.SetCellValue(reportSheet, cell, name)
		f.SetCellStyle(reportSheet, cell, cell, headerStyle)
	}
	row++

	for _, record := range data.Rows {
		for col, name := range data.Columns {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(reportSheet, cell, record[name])
		}
		row++
	}

	if len(data.Summary) > 0 {
		row++
		keys := make([]string, 0, len(data.Summary))
		for key := range data.Summary {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			value := data.Summary[key]
			keyCell, _ := excelize.CoordinatesToCellName(1, row)
			valCell, _ := excelize.CoordinatesToCellName(2, row)
			f.SetCellValue(reportSheet, keyCell, key)
			f.SetCellStyle(reportSheet, keyCell, keyCell, headerStyle)
			f.SetCellValue(reportSheet, valCell, value)
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

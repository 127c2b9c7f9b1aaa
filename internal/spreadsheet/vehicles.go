// Package spreadsheet reads and writes the vehicle registry as xlsx workbooks.
package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"alpr-service/internal/domain/alpr"
	"alpr-service/internal/domain/plate"
)

const sheetName = "Vehicles"

var headers = []string{"Plate", "Owner", "Vehicle", "Color", "Jurisdiction", "Class", "Year"}

// WriteVehicles writes records as a single sheet workbook to w.
func WriteVehicles(w io.Writer, records []alpr.VehicleRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, rec := range records {
		row := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rec.Plate)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), rec.OwnerName)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), rec.Vehicle)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), rec.Color)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), rec.Jurisdiction)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), string(rec.PlateClass))
		if rec.Year > 0 {
			f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), rec.Year)
		}
	}

	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// RowError describes a data row that could not be parsed.
type RowError struct {
	Row   int
	Plate string
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d (%s): %v", e.Row, e.Plate, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// ReadVehicles parses the first sheet of a workbook. Columns are located by
// header name, so their order does not matter; Plate and Owner are required.
// Rows that fail to parse are returned as RowErrors and do not stop the read;
// the error is reserved for problems with the workbook itself.
func ReadVehicles(r io.Reader) ([]alpr.VehicleRecord, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, fmt.Errorf("no sheets found in workbook")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("workbook has no header row")
	}

	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"plate", "owner"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("required column %q not found", required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]alpr.VehicleRecord, 0, len(rows)-1)
	var bad []RowError
	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		plateText := cell(row, "plate")
		if plateText == "" {
			continue
		}

		rec := alpr.VehicleRecord{
			Plate:        plateText,
			OwnerName:    cell(row, "owner"),
			Vehicle:      cell(row, "vehicle"),
			Color:        cell(row, "color"),
			Jurisdiction: cell(row, "jurisdiction"),
			PlateClass:   plate.ParseClass(cell(row, "class")),
		}
		if year := cell(row, "year"); year != "" {
			y, err := strconv.Atoi(year)
			if err != nil {
				bad = append(bad, RowError{Row: rowIdx + 1, Plate: plateText, Err: fmt.Errorf("invalid year %q", year)})
				continue
			}
			rec.Year = y
		}
		records = append(records, rec)
	}

	return records, bad, nil
}

package export

import (
	"fmt"
	"io"

	"github.com/Spok95/pharmacy-indent/internal/cart"
	"github.com/Spok95/pharmacy-indent/internal/domain/indent"
	"github.com/xuri/excelize/v2"
)

type column struct {
	title string
	width float64
	value func(indent.Line) any
}

var basicColumns = []column{
	{"Drug Name", 30, func(l indent.Line) any { return l.Item.Name }},
	{"Quantity", 15, func(l indent.Line) any { return l.Qty }},
}

var detailedColumns = []column{
	{"Drug Name", 30, func(l indent.Line) any { return l.Item.Name }},
	{"Type", 12, func(l indent.Line) any { return string(l.Item.Type) }},
	{"Location", 14, func(l indent.Line) any { return l.Item.LocationCode }},
	{"Quantity", 15, func(l indent.Line) any { return l.Qty }},
	{"Remarks", 30, func(l indent.Line) any { return l.Item.Remarks }},
}

func columnsFor(c Columns) []column {
	if c == ColumnsBasic {
		return basicColumns
	}
	return detailedColumns
}

// Workbook builds one sheet per non-empty bucket, named after its source.
// The caller closes the file.
func Workbook(c cart.Cart, cols Columns) (*excelize.File, error) {
	buckets := c.NonEmpty()
	if len(buckets) == 0 {
		return nil, ErrNothingToExport
	}
	spec := columnsFor(cols)

	f := excelize.NewFile()
	for i, b := range buckets {
		sheet := string(b.Source)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
				_ = f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := fillSheet(f, sheet, spec, b.Lines); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func fillSheet(f *excelize.File, sheet string, spec []column, lines []indent.Line) error {
	header := make([]any, len(spec))
	for i, col := range spec {
		header[i] = col.title
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, col.width); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, l := range lines {
		row := make([]any, len(spec))
		for i, col := range spec {
			row[i] = col.value(l)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// WriteWorkbook streams the workbook as .xlsx.
func WriteWorkbook(w io.Writer, c cart.Cart, cols Columns) error {
	f, err := Workbook(c, cols)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Write(w)
}

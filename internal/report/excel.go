package report

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Excel limits.
const (
	maxSheetName = 31
	maxColWidth  = 60.0
)

// Workbook receives one sheet per exported table.
type Workbook interface {
	WriteTable(name string, columns []string, rows [][]any) error
	Save(w io.Writer) error
	Close() error
}

// excelWorkbook writes .xlsx files with excelize.
type excelWorkbook struct {
	file   *excelize.File
	sheets int
	header int // style id
}

func newExcelWorkbook() (Workbook, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	return &excelWorkbook{file: f, header: header}, nil
}

// WriteTable adds a sheet with a bold frozen header row and fitted column widths.
func (b *excelWorkbook) WriteTable(name string, columns []string, rows [][]any) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	if b.sheets == 0 {
		if err := b.file.SetSheetName(b.file.GetSheetName(0), name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := b.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	b.sheets++

	if len(columns) == 0 {
		return nil
	}

	header := make([]any, len(columns))
	widths := make([]int, len(columns))
	for i, col := range columns {
		header[i] = col
		widths[i] = utf8.RuneCountInString(col)
	}
	if err := b.file.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := b.file.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", name, r+2, err)
		}
		for i, v := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(fmt.Sprint(v)))
			}
		}
	}

	last, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	if err := b.file.SetCellStyle(name, "A1", last+"1", b.header); err != nil {
		return err
	}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := b.file.SetColWidth(name, col, col, min(float64(w)+2, maxColWidth)); err != nil {
			return err
		}
	}
	return b.file.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (b *excelWorkbook) Save(w io.Writer) error {
	return b.file.Write(w)
}

func (b *excelWorkbook) Close() error {
	return b.file.Close()
}

package grid

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/mandantenanalyse/internal/model"
)

// readWorkbook reads one worksheet of an xlsx workbook. Numeric cells are
// kept as numbers so date serials and amounts survive without formatting.
func readWorkbook(ctx context.Context, data []byte, sheet string) ([][]model.Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("worksheet %q not found", sheet)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}
	defer func() { _ = rows.Close() }()

	var cells [][]model.Cell
	for rowNum := 1; rows.Next(); rowNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		values, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", rowNum, err)
		}

		row := make([]model.Cell, len(values))
		for i, value := range values {
			row[i] = workbookCell(f, sheet, i+1, rowNum, value)
		}
		cells = append(cells, row)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("failed to iterate worksheet %q: %w", sheet, err)
	}

	return cells, nil
}

func workbookCell(f *excelize.File, sheet string, col, row int, value string) model.Cell {
	if value == "" {
		return model.EmptyCell()
	}

	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return model.StringCell(value)
	}

	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return model.StringCell(value)
	}

	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return model.NumberCell(n)
		}
	}
	return model.StringCell(value)
}

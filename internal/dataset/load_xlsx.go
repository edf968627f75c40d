package dataset

import (
	"errors"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DataSheet is the worksheet name the report workbook stores readings under.
const DataSheet = "Data"

type xlsxReader struct{}

func (xlsxReader) CanRead(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xlsx")
}

// Read loads the "Data" sheet if present, otherwise the first sheet.
func (xlsxReader) Read(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Op: "open workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &IOError{Path: path, Op: "open workbook", Err: errors.New("workbook has no sheets")}
	}
	sheet := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, DataSheet) {
			sheet = name
			break
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &IOError{Path: path, Op: "read sheet " + sheet, Err: err}
	}
	if len(rows) == 0 {
		return nil, &SchemaError{Source: path, Msg: "missing header row"}
	}
	b, err := newTableBuilder(path, rows[0])
	if err != nil {
		return nil, err
	}
	for i, rec := range rows[1:] {
		b.add(i+2, rec)
	}
	return b.table, nil
}

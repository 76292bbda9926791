package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const maxXLSRows = 100000

var ErrUnsupportedFormat = errors.New("unsupported file format")

type Row map[string]Cell

func (r Row) Get(column string) Cell {
	cell, ok := r[column]
	if !ok {
		return Missing()
	}
	return cell
}

// Table holds one export in memory. Columns keeps the order the file
// declared its headers in.
type Table struct {
	Columns []string
	Rows    []Row
}

// Decode reads a POS export, choosing the reader from the file extension.
func Decode(filename string, reader io.Reader) (Table, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", filename, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Table{}, errors.New("file is empty")
	}

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv", ".txt":
		return decodeCSV(data)
	case ".xlsx", ".xlsm":
		return decodeXLSX(data)
	case ".xls":
		return decodeXLS(data)
	default:
		return Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func decodeCSV(data []byte) (Table, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parse csv: %w", err)
	}
	return fromRecords(records, func(raw string) Cell {
		value := strings.TrimSpace(raw)
		if value == "" {
			return Missing()
		}
		return Text(value)
	})
}

func decodeXLSX(data []byte) (Table, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return Table{}, errors.New("no worksheet found")
	}
	rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return Table{}, fmt.Errorf("read worksheet %q: %w", sheetName, err)
	}
	return fromRecords(rows, Infer)
}

func decodeXLS(data []byte) (tbl Table, err error) {
	// the legacy reader panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			tbl, err = Table{}, fmt.Errorf("open workbook: malformed xls: %v", r)
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return Table{}, fmt.Errorf("open workbook: %w", err)
	}
	if workbook == nil {
		return Table{}, errors.New("open workbook: no workbook stream found")
	}
	return xlsTable(workbook)
}

type sheetReader interface {
	NumSheets() int
	ReadAllCells(max int) [][]string
}

func xlsTable(book sheetReader) (Table, error) {
	switch n := book.NumSheets(); {
	case n == 0:
		return Table{}, errors.New("no worksheet found")
	case n > 1:
		return Table{}, errors.New("multiple worksheets found; please upload a file with a single sheet")
	}
	return fromRecords(book.ReadAllCells(maxXLSRows), Infer)
}

func fromRecords(records [][]string, cell func(string) Cell) (Table, error) {
	if len(records) == 0 {
		return Table{}, errors.New("worksheet is empty")
	}

	columns := make([]string, 0, len(records[0]))
	seen := make(map[string]int, len(records[0]))
	for i, header := range records[0] {
		name := strings.TrimSpace(header)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		// duplicate headers get a numeric suffix so no column is lost
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			seen[name] = 1
		}
		columns = append(columns, name)
	}
	if len(columns) == 0 {
		return Table{}, errors.New("missing header row")
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if blankRecord(record) {
			continue
		}
		row := make(Row, len(columns))
		for i, column := range columns {
			if i < len(record) {
				row[column] = cell(record[i])
			} else {
				row[column] = Missing()
			}
		}
		rows = append(rows, row)
	}

	return Table{Columns: columns, Rows: rows}, nil
}

func blankRecord(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

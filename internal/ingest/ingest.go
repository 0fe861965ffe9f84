// Package ingest turns tabular lineage files into rows for lineage.Build.
// Only the first sheet of a workbook is read; the first non-blank row is the
// header.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"lineageviz/internal/lineage"
)

var (
	ErrEmptyInput        = errors.New("no lineage rows")
	ErrMissingColumn     = errors.New("missing required columns")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Column headers.
const (
	ColTargetDB     = "target_table_db"
	ColTargetTable  = "target_table_name"
	ColTargetColumn = "target_column"
	ColSourceDB     = "source_db"
	ColSourceTable  = "source_table_name"
	ColSourceColumn = "source_column"
	ColUnionBranch  = "union_branch"
	ColSQLFile      = "sql_file"
)

// RequiredColumns must be present in every lineage file.
var RequiredColumns = []string{
	ColTargetDB, ColTargetTable, ColTargetColumn,
	ColSourceDB, ColSourceTable, ColSourceColumn,
}

// ReadFile reads the lineage file at path.
func ReadFile(path string) ([]lineage.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, filepath.Base(path))
}

// Read parses r according to the extension of filename.
func Read(r io.Reader, filename string) ([]lineage.RawRow, error) {
	var (
		records [][]string
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return FromRecords(records)
}

func readWorkbook(r io.Reader) ([][]string, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return wb.GetRows(sheets[0])
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

// FromRecords validates a header plus data records and converts them to
// rows. Blank records are skipped.
func FromRecords(records [][]string) ([]lineage.RawRow, error) {
	var header []string
	var data [][]string
	for _, rec := range records {
		if blank(rec) {
			continue
		}
		if header == nil {
			header = rec
			continue
		}
		data = append(data, rec)
	}
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	cell := func(rec []string, col string) string {
		i, ok := pos[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var missing []string
	for _, col := range RequiredColumns {
		if cell(data[0], col) == "" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	rows := make([]lineage.RawRow, 0, len(data))
	for _, rec := range data {
		rows = append(rows, lineage.RawRow{
			TargetDB:     cell(rec, ColTargetDB),
			TargetTable:  cell(rec, ColTargetTable),
			TargetColumn: cell(rec, ColTargetColumn),
			SourceDB:     cell(rec, ColSourceDB),
			SourceTable:  cell(rec, ColSourceTable),
			SourceColumn: cell(rec, ColSourceColumn),
			UnionBranch:  cell(rec, ColUnionBranch),
			SQLFile:      cell(rec, ColSQLFile),
		})
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lineageviz/internal/lineage"
)

var header = []any{
	"target_table_db", "target_table_name", "target_column",
	"source_db", "source_table_name", "source_column",
	"union_branch", "sql_file",
}

func workbook(t *testing.T, sheets map[string][][]any, order []string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, vals := range sheets[name] {
			cellRef, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cellRef, &vals))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestRead_Workbook(t *testing.T) {
	buf := workbook(t, map[string][][]any{
		"lineage": {
			header,
			{"w", "orders", "total", "w", "items", "price", "1", "orders.sql"},
			{"w", "orders", "total", "w", "items", "qty"},
		},
		"other": {
			{"ignored"},
		},
	}, []string{"lineage", "other"})

	rows, err := Read(buf, "Lineage.XLSX")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, lineage.RawRow{
		TargetDB: "w", TargetTable: "orders", TargetColumn: "total",
		SourceDB: "w", SourceTable: "items", SourceColumn: "price",
		UnionBranch: "1", SQLFile: "orders.sql",
	}, rows[0])
	assert.Equal(t, "qty", rows[1].SourceColumn)
	assert.Empty(t, rows[1].SQLFile)
}

func TestRead_CSV(t *testing.T) {
	in := "\ufefftarget_table_db,target_table_name,target_column,source_db,source_table_name,source_column\n" +
		"w,orders,total,w,items,price\n" +
		",,,,,\n" +
		"w,orders,id,s,raw,id\n"

	rows, err := Read(strings.NewReader(in), "lineage.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "w", rows[0].TargetDB)
	assert.Equal(t, "raw", rows[1].SourceTable)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		err     error
	}{
		{"unsupported extension", "lineage.txt", "x", ErrUnsupportedFormat},
		{"empty file", "lineage.csv", "", ErrEmptyInput},
		{"header only", "lineage.csv", "target_table_db,target_table_name\n", ErrEmptyInput},
		{"missing column", "lineage.csv",
			"target_table_db,target_table_name,target_column,source_db,source_table_name\nw,o,t,w,i\n",
			ErrMissingColumn},
		{"empty required cell in first row", "lineage.csv",
			"target_table_db,target_table_name,target_column,source_db,source_table_name,source_column\nw,o,t,w,i,\n",
			ErrMissingColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.content), tt.file)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestFromRecords_ListsEveryMissingColumn(t *testing.T) {
	_, err := FromRecords([][]string{
		{"target_table_db", "target_column"},
		{"w", "total"},
	})
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "target_table_name, source_db, source_table_name, source_column")
}

func TestFromRecords_ShortRowsAndTrimmedHeader(t *testing.T) {
	rows, err := FromRecords([][]string{
		{},
		{" target_table_db ", "target_table_name", "target_column", "source_db", "source_table_name", "source_column", "sql_file"},
		{"w", "o", "t", "w", "i", "p", "f.sql"},
		{"w", "o", "u", "w", "i", "q"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "w", rows[0].TargetDB)
	assert.Equal(t, "f.sql", rows[0].SQLFile)
	assert.Empty(t, rows[1].SQLFile)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lineage.csv")
	content := "target_table_db,target_table_name,target_column,source_db,source_table_name,source_column\nw,o,t,w,i,p\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rows, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

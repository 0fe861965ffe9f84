// Package lineage indexes column-level lineage rows so that the upstream
// columns of any column can be looked up by its field key.
package lineage

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// RawRow is one edge of column lineage as read from a spreadsheet or table.
type RawRow struct {
	TargetDB     string `json:"target_table_db"`
	TargetTable  string `json:"target_table_name"`
	TargetColumn string `json:"target_column"`
	SourceDB     string `json:"source_db"`
	SourceTable  string `json:"source_table_name"`
	SourceColumn string `json:"source_column"`
	UnionBranch  string `json:"union_branch,omitempty"`
	SQLFile      string `json:"sql_file,omitempty"`
}

// UpstreamRef is one declared source column of a target column.
type UpstreamRef struct {
	Database    string `json:"database"`
	Table       string `json:"table"`
	Column      string `json:"column"`
	TableKey    string `json:"table_key"`
	FieldKey    string `json:"field_key"`
	UnionBranch string `json:"union_branch,omitempty"` // empty when not applicable
	SQLFile     string `json:"sql_file,omitempty"`     // empty when not applicable
}

// Record holds every upstream reference declared for one target column,
// in the order the rows were read. Repeated sources are kept.
type Record struct {
	Database  string        `json:"database"`
	Table     string        `json:"table"`
	Column    string        `json:"column"`
	TableKey  string        `json:"table_key"`
	Upstreams []UpstreamRef `json:"upstreams"`
}

// FieldDescriptor is a Record annotated with its own field key.
type FieldDescriptor struct {
	Key string `json:"key"`
	Record
}

// Index maps field keys to lineage records. It is read-only once built.
type Index struct {
	records map[string]*Record
	order   []string // field keys in first-seen order
	tables  []string
}

// TableKey joins a database and table name into a table identity.
func TableKey(database, table string) string {
	return database + "." + table
}

// FieldKey joins database, table and column into a field identity.
func FieldKey(database, table, column string) string {
	return TableKey(database, table) + "." + column
}

// TableOf drops the column segment of a field key.
func TableOf(fieldKey string) string {
	i := strings.LastIndexByte(fieldKey, '.')
	if i < 0 {
		return fieldKey
	}
	return fieldKey[:i]
}

// Build indexes rows. An empty row set produces an empty index.
func Build(rows []RawRow) *Index {
	idx := &Index{records: make(map[string]*Record)}
	tables := make(map[string]struct{})

	for _, row := range rows {
		targetTable := TableKey(row.TargetDB, row.TargetTable)
		sourceTable := TableKey(row.SourceDB, row.SourceTable)
		tables[targetTable] = struct{}{}
		tables[sourceTable] = struct{}{}

		key := FieldKey(row.TargetDB, row.TargetTable, row.TargetColumn)
		rec, ok := idx.records[key]
		if !ok {
			rec = &Record{
				Database: row.TargetDB,
				Table:    row.TargetTable,
				Column:   row.TargetColumn,
				TableKey: targetTable,
			}
			idx.records[key] = rec
			idx.order = append(idx.order, key)
		}
		rec.Upstreams = append(rec.Upstreams, UpstreamRef{
			Database:    row.SourceDB,
			Table:       row.SourceTable,
			Column:      row.SourceColumn,
			TableKey:    sourceTable,
			FieldKey:    FieldKey(row.SourceDB, row.SourceTable, row.SourceColumn),
			UnionBranch: row.UnionBranch,
			SQLFile:     row.SQLFile,
		})
	}

	idx.tables = make([]string, 0, len(tables))
	for t := range tables {
		idx.tables = append(idx.tables, t)
	}
	sort.Strings(idx.tables)
	return idx
}

// Tables returns every table identity seen as a target or a source, sorted.
func (idx *Index) Tables() []string {
	out := make([]string, len(idx.tables))
	copy(out, idx.tables)
	return out
}

// HasTable reports whether tableKey appeared in any row.
func (idx *Index) HasTable(tableKey string) bool {
	i := sort.SearchStrings(idx.tables, tableKey)
	return i < len(idx.tables) && idx.tables[i] == tableKey
}

// Len returns the number of target columns in the index.
func (idx *Index) Len() int {
	return len(idx.order)
}

// Fields returns the target columns of tableKey ordered by column name.
// A table that only ever appears as a source has no fields.
func (idx *Index) Fields(tableKey string) []FieldDescriptor {
	var fields []FieldDescriptor
	for _, key := range idx.order {
		rec := idx.records[key]
		if rec.TableKey == tableKey {
			fields = append(fields, FieldDescriptor{Key: key, Record: *rec})
		}
	}

	// Collator keeps internal buffers, so one per call.
	c := collate.New(language.Und)
	sort.SliceStable(fields, func(i, j int) bool {
		return c.CompareString(fields[i].Column, fields[j].Column) < 0
	})
	return fields
}

// Upstreams returns the upstream references of fieldKey, or nil for a leaf
// column that was never a lineage target.
func (idx *Index) Upstreams(fieldKey string) []UpstreamRef {
	rec, ok := idx.records[fieldKey]
	if !ok {
		return nil
	}
	return rec.Upstreams
}

// Lookup returns the record for fieldKey.
func (idx *Index) Lookup(fieldKey string) (Record, bool) {
	rec, ok := idx.records[fieldKey]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

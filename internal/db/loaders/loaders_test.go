package loaders

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineageviz/internal/db"
	"lineageviz/internal/ingest"
	"lineageviz/internal/lineage"
	"lineageviz/pkg/config"
)

func sqliteFile(t *testing.T, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lineage.db")
	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer conn.Close()
	for _, s := range stmts {
		_, err := conn.Exec(s)
		require.NoError(t, err, s)
	}
	return path
}

const createLineage = `CREATE TABLE lineage (
	target_table_db TEXT, target_table_name TEXT, target_column TEXT,
	source_db TEXT, source_table_name TEXT, source_column TEXT,
	union_branch TEXT, sql_file TEXT)`

func TestSQLiteLoader(t *testing.T) {
	path := sqliteFile(t,
		createLineage,
		`INSERT INTO lineage VALUES ('w','orders','total','w','items','price','1','orders.sql')`,
		`INSERT INTO lineage VALUES ('w','orders','total','w','items','qty',NULL,NULL)`,
	)
	driver, dsn, err := config.BuildDriverAndDSN(config.DBConfig{Type: "sqlite3", DatabaseName: path})
	require.NoError(t, err)

	rows, err := db.ConnectAndLoad(driver, dsn, "lineage", 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, lineage.RawRow{
		TargetDB: "w", TargetTable: "orders", TargetColumn: "total",
		SourceDB: "w", SourceTable: "items", SourceColumn: "price",
		UnionBranch: "1", SQLFile: "orders.sql",
	}, rows[0])
	assert.Empty(t, rows[1].UnionBranch)

	idx := lineage.Build(rows)
	assert.Len(t, idx.Upstreams("w.orders.total"), 2)
}

func TestSQLiteLoader_Errors(t *testing.T) {
	t.Run("missing_table", func(t *testing.T) {
		path := sqliteFile(t, createLineage)
		_, err := db.ConnectAndLoad("sqlite", path, "nope", 5)
		assert.Error(t, err)
	})

	t.Run("empty_table", func(t *testing.T) {
		path := sqliteFile(t, createLineage)
		_, err := db.ConnectAndLoad("sqlite", path, "lineage", 5)
		assert.ErrorIs(t, err, ingest.ErrEmptyInput)
	})

	t.Run("missing_column", func(t *testing.T) {
		path := sqliteFile(t,
			`CREATE TABLE lineage (target_table_db TEXT, target_table_name TEXT, target_column TEXT)`,
			`INSERT INTO lineage VALUES ('w','orders','total')`,
		)
		_, err := db.ConnectAndLoad("sqlite", path, "lineage", 5)
		assert.ErrorIs(t, err, ingest.ErrMissingColumn)
	})
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"meta"."line""age"`, db.QuoteTable(`meta.line"age`, quoteSQLite))
	assert.Equal(t, "`meta`.`line``age`", db.QuoteTable("meta.line`age", quoteMySQL))
	assert.Equal(t, "[meta].[line]]age]", db.QuoteTable("meta.line]age", quoteMSSQL))
}

func TestRegisteredDialects(t *testing.T) {
	got := db.RegisteredDialects()
	for _, want := range []string{"mariadb", "mssql", "mysql", "postgres", "postgresql", "sqlite", "sqlite3", "sqlserver"} {
		assert.Contains(t, got, want)
	}
	assert.IsIncreasing(t, got)
}

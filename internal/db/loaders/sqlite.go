package loaders

import (
	"context"
	"database/sql"
	"strings"

	"lineageviz/internal/db"
	"lineageviz/internal/lineage"
)

// sqliteLoader implements Loader for SQLite.
type sqliteLoader struct{}

func quoteSQLite(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// This is the loader for SQLite
func (sqliteLoader) Load(ctx context.Context, dbConn *sql.DB, table string) ([]lineage.RawRow, error) {
	return db.ReadTable(ctx, dbConn, "SELECT * FROM "+db.QuoteTable(table, quoteSQLite))
}

func init() {
	db.Register("sqlite3", sqliteLoader{})
	db.Register("sqlite", sqliteLoader{})
}

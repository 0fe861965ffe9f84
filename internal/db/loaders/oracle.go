//go:build oracle
// +build oracle

package loaders

import (
	"context"
	"database/sql"

	_ "github.com/godror/godror"

	"lineageviz/internal/db"
	"lineageviz/internal/lineage"
)

// oracleLoader implements Loader for Oracle.
type oracleLoader struct{}

// This is the loader for Oracle. Identifiers are quoted like SQLite's.
func (oracleLoader) Load(ctx context.Context, dbConn *sql.DB, table string) ([]lineage.RawRow, error) {
	return db.ReadTable(ctx, dbConn, "SELECT * FROM "+db.QuoteTable(table, quoteSQLite))
}

func init() {
	db.Register("godror", oracleLoader{})
	db.Register("oracle", oracleLoader{})
}

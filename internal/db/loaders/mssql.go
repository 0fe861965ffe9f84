package loaders

import (
	"context"
	"database/sql"
	"strings"

	"lineageviz/internal/db"
	"lineageviz/internal/lineage"
)

// mssqlLoader implements Loader for Microsoft SQL Server.
type mssqlLoader struct{}

func quoteMSSQL(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// This is the loader for SQL Server
func (mssqlLoader) Load(ctx context.Context, dbConn *sql.DB, table string) ([]lineage.RawRow, error) {
	return db.ReadTable(ctx, dbConn, "SELECT * FROM "+db.QuoteTable(table, quoteMSSQL))
}

func init() {
	db.Register("sqlserver", mssqlLoader{})
	db.Register("mssql", mssqlLoader{})
}

package loaders

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"lineageviz/internal/db"
	"lineageviz/internal/lineage"
)

// pgLoader implements Loader for PostgreSQL.
type pgLoader struct{}

// This is the loader for PostgreSQL
func (pgLoader) Load(ctx context.Context, dbConn *sql.DB, table string) ([]lineage.RawRow, error) {
	return db.ReadTable(ctx, dbConn, "SELECT * FROM "+db.QuoteTable(table, pq.QuoteIdentifier))
}

func init() {
	db.Register("postgres", pgLoader{})
	db.Register("postgresql", pgLoader{})
}

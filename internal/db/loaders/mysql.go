package loaders

import (
	"context"
	"database/sql"
	"strings"

	"lineageviz/internal/db"
	"lineageviz/internal/lineage"
)

// myLoader implements Loader for MySQL and MariaDB.
type myLoader struct{}

func quoteMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// This is the loader for MySQL
func (myLoader) Load(ctx context.Context, dbConn *sql.DB, table string) ([]lineage.RawRow, error) {
	return db.ReadTable(ctx, dbConn, "SELECT * FROM "+db.QuoteTable(table, quoteMySQL))
}

func init() {
	db.Register("mysql", myLoader{})
	db.Register("mariadb", myLoader{})
}

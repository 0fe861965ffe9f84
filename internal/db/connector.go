package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"lineageviz/internal/ingest"
	"lineageviz/internal/lineage"
	"lineageviz/pkg/config"
)

var ErrUnknownDialect = errors.New("dialect not registered")

type Loader interface {

	// Load reads every lineage row stored in table
	Load(ctx context.Context, db *sql.DB, table string) ([]lineage.RawRow, error)
}

var dialects = map[string]Loader{}

// Register makes a Loader available under name.
func Register(name string, l Loader) {
	dialects[strings.ToLower(name)] = l
}

// listRegistered returns the registered dialect keys, sorted.
func listRegistered() []string {
	keys := make([]string, 0, len(dialects))
	for k := range dialects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConnectAndLoad connects to the database and reads the lineage rows of table
func ConnectAndLoad(driver, dsn, table string, timeoutSec int) ([]lineage.RawRow, error) {
	driver = config.NormalizeDriver(driver)
	loader, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownDialect, driver, listRegistered())
	}
	dbConn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	defer dbConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		return nil, err
	}
	return loader.Load(ctx, dbConn, table)
}

// RegisteredDialects is a helper that allows main to print registered dialects
func RegisteredDialects() []string {
	return listRegistered()
}

// QuoteTable quotes each dot-separated part of a possibly schema-qualified
// table name with quote.
func QuoteTable(table string, quote func(string) string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}

// ReadTable runs query and hands the result, header first, to the same
// validation as uploaded files. NULL cells read as empty strings.
func ReadTable(ctx context.Context, dbConn *sql.DB, query string) ([]lineage.RawRow, error) {
	rows, err := dbConn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query lineage table: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	records := [][]string{cols}

	cells := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan lineage row: %w", err)
		}
		rec := make([]string, len(cells))
		for i, c := range cells {
			rec[i] = c.String
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read lineage rows: %w", err)
	}
	return ingest.FromRecords(records)
}

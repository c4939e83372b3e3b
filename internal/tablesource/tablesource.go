// Package tablesource loads a value.Table from a SQL query via
// LoadTable(driver, dsn, query) (spec §3/§9 supplement — tables don't only
// come from `table()` literals or CSV). No built-in in internal/builtins
// calls it, so it is reachable from Go code only, not from DataCode source.
//
// Grounded on sentra-language-sentra/internal/database/database.go's driver
// registration (the same blank-import set) and its Connect/ExecuteQuery
// pair: dial with database/sql, run one query, and scan every row into a
// generic shape — here a value.Table instead of a []map[string]interface{},
// since a Table (not a slice of maps) is DataCode's tabular value. The
// security-scanning half of database.go (vulnerability checks, default
// credential lists, port scanning) has no DataCode analogue and is not
// carried over.
package tablesource

import (
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// LoadTable opens driver/dsn, runs query, and materializes the full result
// set into a Table. The connection is closed before returning; DataCode has
// no notion of a held-open database handle, only the table it produced.
func LoadTable(driver, dsn, query string) (*value.Table, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	tbl := value.NewTable(columns)
	for rows.Next() {
		scanned := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range scanned {
			ptrs[i] = &scanned[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make([]value.Value, len(columns))
		for i, v := range scanned {
			row[i] = fromSQL(v)
		}
		if err := tbl.AppendRow(row); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tbl, nil
}

// fromSQL converts one database/sql scanned cell into a value.Value,
// mirroring database.go's []byte->string coercion (driver.Value only ever
// produces int64/float64/bool/[]byte/string/time.Time/nil).
func fromSQL(v interface{}) value.Value {
	switch v := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(v)
	case int64:
		return value.Number(float64(v))
	case float64:
		return value.Number(v)
	case []byte:
		return value.String(string(v))
	case string:
		return value.String(v)
	default:
		return value.String(fmt.Sprintf("%v", v))
	}
}

// DSN builds a driver-appropriate connection string from discrete fields,
// mirroring database.go's Connect switch over dbType, so a Go caller of
// LoadTable doesn't need to hand-assemble a DSN itself.
func DSN(driver, host string, port int, database, username, password string) (string, error) {
	switch driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", username, password, host, port, database), nil
	case "postgres", "postgresql":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			host, port, username, password, database), nil
	case "sqlite3", "sqlite":
		return database, nil
	case "sqlserver", "mssql":
		return fmt.Sprintf("server=%s;port=%d;user id=%s;password=%s;database=%s",
			host, port, username, password, database), nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", driver)
	}
}

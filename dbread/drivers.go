package dbread

// The URI engines resolve connection schemes to these database/sql drivers;
// importing them here keeps ReadDatabaseURI self-contained.
import (
	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
)

package dbread

import (
	"context"
	"database/sql"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
)

// Compile-time checks.
var (
	_ Cursor     = (*sqlCursor)(nil)
	_ RowStream  = (*sqlRowStream)(nil)
	_ TypeHinter = (*sqlRowStream)(nil)
)

// queryer is the subset of database/sql handles the cursor needs; *sql.DB,
// *sql.Conn and *sql.Tx all satisfy it.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// sqlCursor adapts a database/sql handle to the Cursor contract. Execution
// errors from the underlying driver surface unwrapped.
type sqlCursor struct {
	q queryer
}

func (c *sqlCursor) Execute(ctx context.Context, query string, opts *ExecuteOptions) (Result, error) {
	var args []any
	if opts != nil {
		args = append(args, opts.Parameters...)
		for name, value := range opts.NamedParameters {
			args = append(args, sql.Named(name, value))
		}
	}
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return newSQLRowStream(rows)
}

// sqlRowStream iterates a *sql.Rows as generic value rows, with dtype hints
// derived from the driver's column type metadata.
type sqlRowStream struct {
	rows    *sql.Rows
	columns []string
	hints   []arrow.DataType
}

func newSQLRowStream(rows *sql.Rows) (*sqlRowStream, error) {
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	s := &sqlRowStream{rows: rows, columns: columns}
	if types, err := rows.ColumnTypes(); err == nil {
		s.hints = make([]arrow.DataType, len(types))
		for i, ct := range types {
			s.hints[i] = hintFromColumnType(ct)
		}
	}
	return s, nil
}

func (s *sqlRowStream) Columns() []string { return s.columns }

func (s *sqlRowStream) ColumnTypeHints() []arrow.DataType { return s.hints }

func (s *sqlRowStream) Next() ([]any, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	ptrs := make([]any, len(s.columns))
	vals := make([]any, len(s.columns))
	for i := range ptrs {
		ptrs[i] = &vals[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	for i, v := range vals {
		// sqlite hands TEXT back as []byte; normalize to string
		if b, ok := v.([]byte); ok {
			vals[i] = string(b)
		}
	}
	return vals, nil
}

func (s *sqlRowStream) Close() error { return s.rows.Close() }

// hintFromColumnType maps driver column metadata to an arrow dtype, or nil
// when the driver gives nothing usable.
func hintFromColumnType(ct *sql.ColumnType) arrow.DataType {
	switch name := strings.ToUpper(ct.DatabaseTypeName()); {
	case name == "DATE":
		return arrow.FixedWidthTypes.Date32
	case strings.Contains(name, "TIMESTAMP") || strings.Contains(name, "DATETIME"):
		return arrow.FixedWidthTypes.Timestamp_us
	case strings.Contains(name, "INT"):
		return arrow.PrimitiveTypes.Int64
	case strings.Contains(name, "CHAR") || name == "TEXT" || name == "STRING" || name == "UUID":
		return arrow.BinaryTypes.String
	case name == "REAL" || strings.Contains(name, "FLOAT") || strings.Contains(name, "DOUBLE") ||
		strings.Contains(name, "DECIMAL") || strings.Contains(name, "NUMERIC"):
		return arrow.PrimitiveTypes.Float64
	case strings.Contains(name, "BOOL"):
		return arrow.FixedWidthTypes.Boolean
	}

	if st := ct.ScanType(); st != nil {
		switch st.Kind() {
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int,
			reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
			return arrow.PrimitiveTypes.Int64
		case reflect.Float32, reflect.Float64:
			return arrow.PrimitiveTypes.Float64
		case reflect.String:
			return arrow.BinaryTypes.String
		case reflect.Bool:
			return arrow.FixedWidthTypes.Boolean
		}
		if st == reflect.TypeOf(time.Time{}) {
			return arrow.FixedWidthTypes.Timestamp_us
		}
	}
	return nil
}

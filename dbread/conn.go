package dbread

import (
	"context"
	"database/sql"

	"github.com/apache/arrow-go/v18/arrow"

	"framelake/domain"
)

// ExecuteOptions carries optional positional or named query parameters.
type ExecuteOptions struct {
	Parameters      []any
	NamedParameters map[string]any
}

func (o *ExecuteOptions) isSet() bool {
	return o != nil && (len(o.Parameters) > 0 || len(o.NamedParameters) > 0)
}

// Connection is a standard DB-API style connection: it produces a cursor
// which in turn executes queries.
type Connection interface {
	Cursor() (Cursor, error)
}

// Cursor executes a query and yields a result handle. Implementations come
// from third-party client wrappers; the adapter only relies on this shape.
type Cursor interface {
	Execute(ctx context.Context, query string, opts *ExecuteOptions) (Result, error)
}

// Result is the handle produced by Execute. Concrete results additionally
// implement RowStream or ArrowFetcher.
type Result interface {
	Close() error
}

// RowStream is a forward-only row iterator over a result. Next returns
// io.EOF once exhausted.
type RowStream interface {
	Result
	Columns() []string
	Next() ([]any, error)
}

// TypeHinter optionally reports per-column dtype hints for a RowStream.
// Entries may be nil where the driver has no hint.
type TypeHinter interface {
	ColumnTypeHints() []arrow.DataType
}

// ArrowFetcher is implemented by results of drivers that surface columnar
// batches natively. The method name passed in always comes from the driver
// capability registry; batchSize is zero unless the registry marks the
// driver as honouring exact batch sizes. A nil record signals exhaustion.
type ArrowFetcher interface {
	Result
	FetchArrow(method string, batchSize int) (arrow.Record, error)
}

// DriverIdentifier reports the driver identifier used for capability
// registry lookups (the originating client module, e.g. "snowflake").
type DriverIdentifier interface {
	DriverID() string
}

// connectionClass is the closed set of connection shapes the adapter
// recognises.
type connectionClass int

const (
	classStandard  connectionClass = iota // Cursor() + Execute
	classRawCursor                        // Execute directly, no Cursor()
	classSQL                              // database/sql handle
	classURI                              // URI string for an out-of-process engine
)

// executableHandle is the adapter's uniform "execute query, then produce
// columnar batches" handle over any recognised connection shape.
type executableHandle struct {
	class    connectionClass
	cursor   Cursor
	uri      string
	driverID string
}

// adaptConnection classifies an opaque connection object and wraps it into
// an executable handle. Unrecognised shapes fail immediately.
func adaptConnection(conn any) (*executableHandle, error) {
	h := &executableHandle{}
	if id, ok := conn.(DriverIdentifier); ok {
		h.driverID = id.DriverID()
	}

	switch c := conn.(type) {
	case string:
		h.class = classURI
		h.uri = c
	case Connection:
		cursor, err := c.Cursor()
		if err != nil {
			return nil, err
		}
		h.class = classStandard
		h.cursor = cursor
		if h.driverID == "" {
			if id, ok := cursor.(DriverIdentifier); ok {
				h.driverID = id.DriverID()
			}
		}
	case Cursor:
		h.class = classRawCursor
		h.cursor = c
	case *sql.DB:
		h.class = classSQL
		h.cursor = &sqlCursor{q: c}
	case *sql.Conn:
		h.class = classSQL
		h.cursor = &sqlCursor{q: c}
	case *sql.Tx:
		h.class = classSQL
		h.cursor = &sqlCursor{q: c}
	default:
		return nil, domain.ErrUnsupportedConnection(
			"unrecognised connection %T: no 'execute' or 'cursor' method", conn)
	}
	return h, nil
}

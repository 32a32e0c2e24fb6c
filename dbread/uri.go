package dbread

import (
	"context"
	"database/sql"
	"strings"

	"golang.org/x/sync/errgroup"

	"framelake/domain"
	"framelake/frame"
)

// Engine names an out-of-process query engine reachable through a
// connection URI.
type Engine string

// Supported URI engines.
const (
	EngineConnectorX Engine = "connectorx"
	EngineADBC       Engine = "adbc"
)

// uriSchemeDrivers maps URI source schemes to registered database/sql
// drivers. Unknown schemes fail with an error naming the source.
var uriSchemeDrivers = map[string]string{
	"sqlite":  "sqlite3",
	"sqlite3": "sqlite3",
	"duckdb":  "duckdb",
}

// ReadDatabaseURI executes read queries through a named engine over a
// connection URI and returns one frame.
//
// The adbc engine accepts exactly one query and supports execute options.
// The connectorx engine accepts many queries, treated as partitions of one
// result and fetched concurrently, but no execute options; output order
// follows the query order.
func ReadDatabaseURI(ctx context.Context, queries []string, uri string, engine Engine, opts ...Option) (*frame.Frame, error) {
	cfg := newReadConfig(opts)

	switch engine {
	case EngineConnectorX, EngineADBC:
	default:
		return nil, domain.ErrValidation(
			"engine must be one of {'connectorx', 'adbc'}, got '%s'", engine)
	}
	if len(queries) == 0 {
		return nil, domain.ErrValidation("no query provided")
	}
	for _, q := range queries {
		if err := classifyQuery(q); err != nil {
			return nil, err
		}
	}
	if engine == EngineADBC && len(queries) != 1 {
		return nil, domain.ErrValidation("only a single SQL query string is accepted for adbc")
	}
	if engine == EngineConnectorX && cfg.executeOptions.isSet() {
		return nil, domain.ErrValidation("connectorx engine does not support execute_options")
	}

	driverName, dsn, err := resolveURI(uri, engine)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	cfg.logger.Debug("uri read", "engine", string(engine), "driver", driverName, "queries", len(queries))

	if engine == EngineADBC {
		return readOne(ctx, db, queries[0], cfg)
	}

	// Partitioned queries fetch concurrently; output order follows the
	// query order, not completion order.
	results := make([]*frame.Frame, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			f, err := readOne(gctx, db, q, cfg)
			if err != nil {
				return err
			}
			results[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[0]
	for _, f := range results[1:] {
		merged, err := out.Vstack(f)
		if err != nil {
			return nil, err
		}
		out = merged
	}
	return out, nil
}

// readOne executes a single query over an opened pool and drains it eagerly.
func readOne(ctx context.Context, db *sql.DB, query string, cfg readConfig) (*frame.Frame, error) {
	cursor := &sqlCursor{q: db}
	res, err := cursor.Execute(ctx, query, cfg.executeOptions)
	if err != nil {
		return nil, err
	}
	h := &executableHandle{class: classSQL, cursor: cursor}
	eager := cfg
	eager.iterBatches = false
	stream, err := materialize(h, res, eager)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stream.Close() }()
	return drainStream(stream)
}

// resolveURI extracts the source scheme and DSN from a connection URI and
// maps it to a registered driver.
func resolveURI(uri string, engine Engine) (driverName, dsn string, err error) {
	i := strings.Index(uri, "://")
	if i < 0 {
		if engine == EngineADBC {
			if looksLikeODBC(uri) {
				return "", "", domain.ErrUnsupportedConnection("source 'odbc' not supported")
			}
			return "", "", domain.ErrValidation(
				"unable to identify string connection as valid ODBC connection string")
		}
		return "", "", domain.ErrValidation("expected connection to be a URI string")
	}
	scheme := strings.ToLower(uri[:i])
	driverName, ok := uriSchemeDrivers[scheme]
	if !ok {
		return "", "", domain.ErrUnsupportedConnection("source '%s' not supported", scheme)
	}

	// sqlite:///rel.db is relative, sqlite:////abs.db is absolute; an empty
	// path means an in-memory database.
	dsn = strings.TrimPrefix(uri[i+3:], "/")
	if dsn == "" && driverName == "sqlite3" {
		dsn = ":memory:"
	}
	return driverName, dsn, nil
}

// looksLikeODBC reports whether s has the `key=value;...` shape of an ODBC
// connection string.
func looksLikeODBC(s string) bool {
	if strings.ContainsAny(s, "{}") {
		return false
	}
	pairs := strings.Split(s, ";")
	for _, p := range pairs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "=") {
			return false
		}
	}
	return strings.Contains(s, "=")
}

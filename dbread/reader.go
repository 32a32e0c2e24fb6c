// Package dbread normalizes heterogeneous database client protocols into a
// single columnar batch stream, eagerly as one frame or lazily as a pull
// iterator of frame chunks.
package dbread

import (
	"context"
	"io"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"

	"framelake/config"
	"framelake/domain"
	"framelake/frame"
)

type readConfig struct {
	schemaOverrides map[string]arrow.DataType
	executeOptions  *ExecuteOptions
	batchSize       int
	iterBatches     bool
	logger          *slog.Logger
}

// Option configures a read.
type Option func(*readConfig)

// WithSchemaOverrides supersedes the inferred dtype for the named columns,
// applied consistently across every batch.
func WithSchemaOverrides(overrides map[string]arrow.DataType) Option {
	return func(cfg *readConfig) { cfg.schemaOverrides = overrides }
}

// WithExecuteOptions passes positional or named parameters to the query.
func WithExecuteOptions(opts ExecuteOptions) Option {
	return func(cfg *readConfig) { cfg.executeOptions = &opts }
}

// WithBatchSize sets the fetch batch size. Drivers that do not honour exact
// batch sizing are self-limited by slicing.
func WithBatchSize(n int) Option {
	return func(cfg *readConfig) { cfg.batchSize = n }
}

// WithLogger overrides the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *readConfig) { cfg.logger = logger }
}

func newReadConfig(opts []Option) readConfig {
	cfg := readConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// ReadDatabase executes a read query against an opaque connection handle and
// materializes the full result as one frame.
//
// The flow:
//  1. Classify the statement; non-read statements are rejected up front
//  2. Classify the connection shape and wrap it into an executable handle
//  3. Execute (driver errors surface unmodified)
//  4. Pull columnar batches per the driver's registry convention and concat
func ReadDatabase(ctx context.Context, query string, conn any, opts ...Option) (*frame.Frame, error) {
	cfg := newReadConfig(opts)

	if err := classifyQuery(query); err != nil {
		return nil, err
	}

	h, err := adaptConnection(conn)
	if err != nil {
		return nil, err
	}
	if h.class == classURI {
		// Connection URIs route to the out-of-process engines.
		return ReadDatabaseURI(ctx, []string{query}, h.uri, defaultEngine(), opts...)
	}

	res, err := h.cursor.Execute(ctx, query, cfg.executeOptions)
	if err != nil {
		return nil, err
	}

	stream, err := materialize(h, res, cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stream.Close() }()
	return drainStream(stream)
}

// ReadDatabaseBatches executes a read query and returns a lazy, single-pass
// stream of frame chunks. A positive batch size is required.
func ReadDatabaseBatches(ctx context.Context, query string, conn any, opts ...Option) (*BatchStream, error) {
	cfg := newReadConfig(opts)
	cfg.iterBatches = true

	if cfg.batchSize <= 0 {
		return nil, domain.ErrValidation(
			"cannot set iter_batches without also setting a non-zero batch_size")
	}
	if err := classifyQuery(query); err != nil {
		return nil, err
	}

	h, err := adaptConnection(conn)
	if err != nil {
		return nil, err
	}
	if h.class == classURI {
		return nil, domain.ErrValidation(
			"batched reads are not supported for connection URIs; use ReadDatabaseURI")
	}

	res, err := h.cursor.Execute(ctx, query, cfg.executeOptions)
	if err != nil {
		return nil, err
	}
	return materialize(h, res, cfg)
}

// drainStream concatenates every chunk of a stream into one frame.
func drainStream(stream *BatchStream) (*frame.Frame, error) {
	var out *frame.Frame
	for {
		f, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = f
			continue
		}
		merged, err := out.Vstack(f)
		if err != nil {
			return nil, err
		}
		out = merged
	}
	if out == nil {
		return frame.NewFrame()
	}
	return out, nil
}

func defaultEngine() Engine {
	if cfg, err := config.LoadFromEnv(); err == nil {
		return Engine(cfg.DefaultEngine)
	}
	return EngineConnectorX
}

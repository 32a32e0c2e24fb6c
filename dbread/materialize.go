package dbread

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/uuid"

	"framelake/domain"
	"framelake/frame"
)

// BatchStream is a single-pass, forward-only sequence of frame chunks pulled
// from an executed query. Next returns io.EOF once the underlying cursor is
// exhausted; consuming the stream exhausts it for good.
type BatchStream struct {
	id     string
	logger *slog.Logger
	pull   func() (*frame.Frame, error)
	close  func() error
	done   bool
}

// Next pulls the next chunk. Returns io.EOF when the stream is exhausted.
func (s *BatchStream) Next() (*frame.Frame, error) {
	if s.done {
		return nil, io.EOF
	}
	f, err := s.pull()
	if err != nil {
		s.done = true
		_ = s.close()
		if err != io.EOF {
			s.logger.Debug("batch stream failed", "stream_id", s.id, "error", err)
		}
		return nil, err
	}
	s.logger.Debug("batch pulled", "stream_id", s.id, "rows", f.Height())
	return f, nil
}

// Close releases the underlying cursor. Safe to call more than once.
func (s *BatchStream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.close()
}

// materialize drives an executed result into a stream of frames, routing by
// the result's capability class: native arrow batches when the driver is in
// the capability registry, generic row scanning otherwise.
func materialize(h *executableHandle, res Result, cfg readConfig) (*BatchStream, error) {
	stream := &BatchStream{id: uuid.NewString(), logger: cfg.logger, close: res.Close}

	if af, ok := res.(ArrowFetcher); ok && h.driverID != "" {
		if capability, known := LookupDriver(h.driverID); known {
			cfg.logger.Debug("materializing via arrow driver",
				"stream_id", stream.id, "driver", h.driverID,
				"fetch_all", capability.FetchAllMethod, "fetch_batches", capability.FetchBatchesMethod)
			stream.pull = arrowPull(af, capability, cfg)
			return stream, nil
		}
	}
	if rs, ok := res.(RowStream); ok {
		cfg.logger.Debug("materializing via row scan", "stream_id", stream.id)
		pull, err := rowPull(rs, cfg)
		if err != nil {
			_ = res.Close()
			return nil, err
		}
		stream.pull = pull
		return stream, nil
	}
	_ = res.Close()
	return nil, domain.ErrUnsupportedConnection(
		"result of type %T yields neither columnar batches nor rows", res)
}

// arrowPull builds the pull function for arrow-native drivers. The fetch
// method name always comes from the registry entry; the batch size argument
// is only forwarded when the driver honours exact batch sizing.
func arrowPull(af ArrowFetcher, capability Capability, cfg readConfig) func() (*frame.Frame, error) {
	method := capability.FetchAllMethod
	if cfg.iterBatches && cfg.batchSize > 0 {
		method = capability.FetchBatchesMethod
	}
	size := 0
	if capability.ExactBatchSize && cfg.batchSize > 0 {
		size = cfg.batchSize
	}

	if capability.RepeatBatchCalls {
		// Batch calls progressively shrink: fetch until an empty result.
		first := true
		return func() (*frame.Frame, error) {
			rec, err := af.FetchArrow(method, size)
			if err != nil {
				return nil, err
			}
			if rec == nil || (!first && rec.NumRows() == 0) {
				return nil, io.EOF
			}
			first = false
			return recordToFrame(rec, cfg.schemaOverrides)
		}
	}

	// A single fetch call's result is the entire content. When the caller
	// wants bounded batches but the driver cannot size them, self-limit by
	// slicing the materialized content.
	var pending []*frame.Frame
	fetched := false
	return func() (*frame.Frame, error) {
		if !fetched {
			fetched = true
			rec, err := af.FetchArrow(method, size)
			if err != nil {
				return nil, err
			}
			if rec == nil {
				return nil, io.EOF
			}
			f, err := recordToFrame(rec, cfg.schemaOverrides)
			if err != nil {
				return nil, err
			}
			if cfg.iterBatches && cfg.batchSize > 0 {
				pending = chunkFrame(f, cfg.batchSize)
			} else {
				pending = []*frame.Frame{f}
			}
		}
		if len(pending) == 0 {
			return nil, io.EOF
		}
		next := pending[0]
		pending = pending[1:]
		return next, nil
	}
}

// rowPull builds the pull function for generic row-stream results. Dtypes
// resolve once, on the first chunk (override, then driver hint, then first
// non-null value), and apply to every subsequent chunk.
func rowPull(rs RowStream, cfg readConfig) (func() (*frame.Frame, error), error) {
	names := rs.Columns()
	if len(names) > 0 {
		if err := checkDuplicateColumns(names); err != nil {
			return nil, err
		}
	}

	var hints []arrow.DataType
	if th, ok := rs.(TypeHinter); ok {
		hints = th.ColumnTypeHints()
	}

	var dtypes []arrow.DataType
	first := true
	exhausted := false

	return func() (*frame.Frame, error) {
		if exhausted {
			return nil, io.EOF
		}
		limit := 0
		if cfg.iterBatches {
			limit = cfg.batchSize
		}
		var chunk [][]any
		for limit == 0 || len(chunk) < limit {
			row, err := rs.Next()
			if err == io.EOF {
				exhausted = true
				break
			}
			if err != nil {
				return nil, err
			}
			chunk = append(chunk, row)
		}
		if len(chunk) == 0 && !first {
			return nil, io.EOF
		}

		if len(names) == 0 {
			// Schema-less row source: positional column names.
			width := 0
			if len(chunk) > 0 {
				width = len(chunk[0])
			}
			names = make([]string, width)
			for i := range names {
				names[i] = fmt.Sprintf("column_%d", i)
			}
		}
		if first {
			dtypes = resolveDtypes(names, hints, chunk, cfg.schemaOverrides)
			first = false
		}

		cols := make([]*frame.Series, len(names))
		for i, name := range names {
			values := make([]any, len(chunk))
			for r, row := range chunk {
				if i < len(row) {
					values[r] = row[i]
				}
			}
			s, err := frame.NewSeriesValues(name, dtypes[i], values)
			if err != nil {
				return nil, err
			}
			cols[i] = s
		}
		return frame.NewFrame(cols...)
	}, nil
}

// resolveDtypes fixes the unified output schema for a row-stream read.
// Priority per column: schema override, driver hint, first non-null value,
// and finally the null dtype when nothing is known.
func resolveDtypes(names []string, hints []arrow.DataType, chunk [][]any, overrides map[string]arrow.DataType) []arrow.DataType {
	dtypes := make([]arrow.DataType, len(names))
	for i, name := range names {
		if dt, ok := overrides[name]; ok {
			dtypes[i] = dt
			continue
		}
		if i < len(hints) && hints[i] != nil {
			dtypes[i] = hints[i]
			continue
		}
		for _, row := range chunk {
			if i < len(row) && row[i] != nil {
				dtypes[i] = dtypeOfValue(row[i])
				break
			}
		}
		if dtypes[i] == nil {
			dtypes[i] = arrow.Null
		}
	}
	return dtypes
}

func dtypeOfValue(v any) arrow.DataType {
	switch v.(type) {
	case int, int8, int16, int32, int64:
		return arrow.PrimitiveTypes.Int64
	case uint, uint8, uint16, uint32, uint64:
		return arrow.PrimitiveTypes.Uint64
	case float32, float64:
		return arrow.PrimitiveTypes.Float64
	case string, []byte:
		return arrow.BinaryTypes.String
	case bool:
		return arrow.FixedWidthTypes.Boolean
	case time.Time:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

// recordToFrame converts a native arrow batch, applying schema overrides and
// rejecting duplicate column names.
func recordToFrame(rec arrow.Record, overrides map[string]arrow.DataType) (*frame.Frame, error) {
	names := make([]string, rec.NumCols())
	for i := range names {
		names[i] = rec.ColumnName(i)
	}
	if err := checkDuplicateColumns(names); err != nil {
		return nil, err
	}
	f, err := frame.FromRecord(rec)
	if err != nil {
		return nil, err
	}
	return applyOverrides(f, overrides)
}

// applyOverrides casts columns named in the override map to their requested
// dtypes. Applied identically to every batch of a read.
func applyOverrides(f *frame.Frame, overrides map[string]arrow.DataType) (*frame.Frame, error) {
	if len(overrides) == 0 {
		return f, nil
	}
	cols := make([]*frame.Series, f.Width())
	for i := 0; i < f.Width(); i++ {
		s := f.ColumnAt(i)
		if dt, ok := overrides[s.Name()]; ok && !arrow.TypeEqual(s.DataType(), dt) {
			cast, err := s.Cast(dt)
			if err != nil {
				return nil, fmt.Errorf("apply schema override for %q: %w", s.Name(), err)
			}
			s = cast
		}
		cols[i] = s
	}
	return frame.NewFrame(cols...)
}

func checkDuplicateColumns(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return domain.ErrConflict(
				"column %q appears more than once in the query/result cursor", n)
		}
		seen[n] = true
	}
	return nil
}

// chunkFrame slices a frame into consecutive chunks of at most size rows.
func chunkFrame(f *frame.Frame, size int) []*frame.Frame {
	if f.Height() <= size {
		return []*frame.Frame{f}
	}
	var out []*frame.Frame
	for start := 0; start < f.Height(); start += size {
		end := start + size
		if end > f.Height() {
			end = f.Height()
		}
		chunk, err := f.Slice(start, end)
		if err != nil {
			// bounds are computed from the frame itself
			panic(err)
		}
		out = append(out, chunk)
	}
	return out
}

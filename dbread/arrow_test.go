package dbread

import (
	"context"
	"io"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"framelake/domain"
)

// mockResult is an arrow-native result that records every fetch invocation so
// tests can assert the exact method name and batch size dispatched.
type mockResult struct {
	queue  []arrow.Record
	calls  []string
	sizes  []int
	closed bool
}

func (r *mockResult) FetchArrow(method string, batchSize int) (arrow.Record, error) {
	r.calls = append(r.calls, method)
	r.sizes = append(r.sizes, batchSize)
	if len(r.queue) == 0 {
		return nil, nil
	}
	rec := r.queue[0]
	r.queue = r.queue[1:]
	return rec, nil
}

func (r *mockResult) Close() error {
	r.closed = true
	return nil
}

type mockCursor struct {
	driver string
	result *mockResult
	query  string
}

func (c *mockCursor) Execute(_ context.Context, query string, _ *ExecuteOptions) (Result, error) {
	c.query = query
	return c.result, nil
}

func (c *mockCursor) DriverID() string { return c.driver }

// mockConnection is a standard connection wrapping a single cursor.
type mockConnection struct {
	cursor *mockCursor
}

func (c *mockConnection) Cursor() (Cursor, error) { return c.cursor, nil }

func (c *mockConnection) DriverID() string { return c.cursor.driver }

var (
	_ Connection       = (*mockConnection)(nil)
	_ Cursor           = (*mockCursor)(nil)
	_ ArrowFetcher     = (*mockResult)(nil)
	_ DriverIdentifier = (*mockCursor)(nil)
)

// intRecord builds a one-column int64 record named "v" with values 0..n-1,
// offset by start.
func intRecord(t *testing.T, start, n int) arrow.Record {
	t.Helper()
	b := array.NewInt64Builder(memory.DefaultAllocator)
	defer b.Release()
	for i := 0; i < n; i++ {
		b.Append(int64(start + i))
	}
	arr := b.NewArray()
	schema := arrow.NewSchema([]arrow.Field{{Name: "v", Type: arrow.PrimitiveTypes.Int64}}, nil)
	return array.NewRecord(schema, []arrow.Array{arr}, int64(n))
}

func newMockConn(driver string, queue ...arrow.Record) *mockConnection {
	return &mockConnection{cursor: &mockCursor{driver: driver, result: &mockResult{queue: queue}}}
}

func TestArrowDriverEagerDispatch(t *testing.T) {
	cases := []struct {
		driver     string
		wantMethod string
	}{
		{"snowflake", "fetch_arrow_all"},
		{"databricks", "fetchall_arrow"},
		{"turbodbc", "fetchallarrow"},
		{"adbc_driver_postgresql", "fetch_arrow_table"},
		{"duckdb", "fetch_arrow_table"},
		{"kuzu", "get_as_arrow"},
	}
	for _, tc := range cases {
		t.Run(tc.driver, func(t *testing.T) {
			conn := newMockConn(tc.driver, intRecord(t, 0, 4))
			f, err := ReadDatabase(context.Background(), "SELECT v FROM t", conn)
			require.NoError(t, err)
			assert.Equal(t, 4, f.Height())
			assert.Equal(t, []string{"v"}, f.Columns())

			res := conn.cursor.result
			require.NotEmpty(t, res.calls)
			assert.Equal(t, tc.wantMethod, res.calls[0])
			assert.Equal(t, 0, res.sizes[0])
			assert.True(t, res.closed)
		})
	}
}

func TestArrowDriverBatchDispatch(t *testing.T) {
	t.Run("snowflake_self_limits_unsized_batches", func(t *testing.T) {
		conn := newMockConn("snowflake", intRecord(t, 0, 5))
		stream, err := ReadDatabaseBatches(context.Background(), "SELECT v FROM t", conn, WithBatchSize(2))
		require.NoError(t, err)

		var heights []int
		for {
			f, err := stream.Next()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			heights = append(heights, f.Height())
		}
		assert.Equal(t, []int{2, 2, 1}, heights)

		res := conn.cursor.result
		assert.Equal(t, []string{"fetch_arrow_batches"}, res.calls)
		assert.Equal(t, []int{0}, res.sizes)
	})

	t.Run("databricks_repeats_sized_batch_calls", func(t *testing.T) {
		conn := newMockConn("databricks",
			intRecord(t, 0, 2), intRecord(t, 2, 2), intRecord(t, 4, 1))
		stream, err := ReadDatabaseBatches(context.Background(), "SELECT v FROM t", conn, WithBatchSize(2))
		require.NoError(t, err)

		var heights []int
		for {
			f, err := stream.Next()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			heights = append(heights, f.Height())
		}
		assert.Equal(t, []int{2, 2, 1}, heights)

		res := conn.cursor.result
		// one call per chunk plus the terminating empty fetch
		assert.Equal(t, []string{"fetchmany_arrow", "fetchmany_arrow", "fetchmany_arrow", "fetchmany_arrow"}, res.calls)
		assert.Equal(t, []int{2, 2, 2, 2}, res.sizes)
	})

	t.Run("duckdb_forwards_exact_batch_size", func(t *testing.T) {
		conn := newMockConn("duckdb", intRecord(t, 0, 4))
		stream, err := ReadDatabaseBatches(context.Background(), "SELECT v FROM t", conn, WithBatchSize(2))
		require.NoError(t, err)
		defer func() { _ = stream.Close() }()

		f, err := stream.Next()
		require.NoError(t, err)
		assert.Equal(t, 2, f.Height())

		res := conn.cursor.result
		assert.Equal(t, "fetch_record_batch", res.calls[0])
		assert.Equal(t, 2, res.sizes[0])
	})

	t.Run("adbc_uses_same_method_for_batches", func(t *testing.T) {
		conn := newMockConn("adbc_driver_postgresql", intRecord(t, 0, 3))
		stream, err := ReadDatabaseBatches(context.Background(), "SELECT v FROM t", conn, WithBatchSize(2))
		require.NoError(t, err)
		defer func() { _ = stream.Close() }()

		_, err = stream.Next()
		require.NoError(t, err)
		assert.Equal(t, "fetch_arrow_table", conn.cursor.result.calls[0])
	})

	t.Run("batch_size_is_required", func(t *testing.T) {
		conn := newMockConn("snowflake", intRecord(t, 0, 3))
		_, err := ReadDatabaseBatches(context.Background(), "SELECT v FROM t", conn)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot set iter_batches without also setting a non-zero batch_size")
		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
	})
}

func TestArrowDriverEdgeCases(t *testing.T) {
	t.Run("raw_cursor_connection", func(t *testing.T) {
		cursor := &mockCursor{driver: "kuzu", result: &mockResult{queue: []arrow.Record{intRecord(t, 0, 2)}}}
		f, err := ReadDatabase(context.Background(), "MATCH (n) RETURN n.v AS v", cursor)
		require.NoError(t, err)
		assert.Equal(t, 2, f.Height())
		assert.Equal(t, "get_as_arrow", cursor.result.calls[0])
	})

	t.Run("empty_result_is_an_empty_frame", func(t *testing.T) {
		conn := newMockConn("snowflake")
		f, err := ReadDatabase(context.Background(), "SELECT v FROM t WHERE 1=0", conn)
		require.NoError(t, err)
		assert.Equal(t, 0, f.Height())
	})

	t.Run("unknown_driver_with_arrow_only_result", func(t *testing.T) {
		conn := newMockConn("mystery_client", intRecord(t, 0, 1))
		_, err := ReadDatabase(context.Background(), "SELECT v FROM t", conn)
		require.Error(t, err)
		var unsupported *domain.UnsupportedConnectionError
		assert.ErrorAs(t, err, &unsupported)
	})

	t.Run("schema_override_applies_to_arrow_batches", func(t *testing.T) {
		conn := newMockConn("snowflake", intRecord(t, 0, 3))
		f, err := ReadDatabase(context.Background(), "SELECT v FROM t", conn,
			WithSchemaOverrides(map[string]arrow.DataType{"v": arrow.PrimitiveTypes.Uint8}))
		require.NoError(t, err)
		col, err := f.Column("v")
		require.NoError(t, err)
		assert.Equal(t, arrow.PrimitiveTypes.Uint8, col.DataType())
	})

	t.Run("duplicate_columns_rejected", func(t *testing.T) {
		b := array.NewInt64Builder(memory.DefaultAllocator)
		defer b.Release()
		b.AppendValues([]int64{1}, nil)
		arr := b.NewArray()
		b2 := array.NewInt64Builder(memory.DefaultAllocator)
		defer b2.Release()
		b2.AppendValues([]int64{2}, nil)
		arr2 := b2.NewArray()
		schema := arrow.NewSchema([]arrow.Field{
			{Name: "n", Type: arrow.PrimitiveTypes.Int64},
			{Name: "n", Type: arrow.PrimitiveTypes.Int64},
		}, nil)
		rec := array.NewRecord(schema, []arrow.Array{arr, arr2}, 1)

		conn := newMockConn("snowflake", rec)
		_, err := ReadDatabase(context.Background(), "SELECT 1 AS n, 2 AS n", conn)
		require.Error(t, err)
		var conflict *domain.ConflictError
		assert.ErrorAs(t, err, &conflict)
		assert.Contains(t, err.Error(), `column "n" appears more than once`)
	})

	t.Run("unsupported_connection_type", func(t *testing.T) {
		_, err := ReadDatabase(context.Background(), "SELECT 1", 42)
		require.Error(t, err)
		var unsupported *domain.UnsupportedConnectionError
		assert.ErrorAs(t, err, &unsupported)
		assert.Contains(t, err.Error(), "unrecognised connection int")
	})
}

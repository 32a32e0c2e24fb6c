package dbread

// Capability describes a driver's native columnar fetch convention: which
// call fetches all rows, which fetches a bounded batch, whether the batch
// size argument is honoured exactly, and whether repeated batch calls shrink
// towards exhaustion.
type Capability struct {
	FetchAllMethod     string
	FetchBatchesMethod string
	ExactBatchSize     bool
	RepeatBatchCalls   bool
}

// driverRegistry maps a driver identifier to its calling convention. Built
// once at init and read-only thereafter; no synchronization needed.
var driverRegistry = map[string]Capability{
	"snowflake": {
		FetchAllMethod:     "fetch_arrow_all",
		FetchBatchesMethod: "fetch_arrow_batches",
	},
	"databricks": {
		FetchAllMethod:     "fetchall_arrow",
		FetchBatchesMethod: "fetchmany_arrow",
		ExactBatchSize:     true,
		RepeatBatchCalls:   true,
	},
	"turbodbc": {
		FetchAllMethod:     "fetchallarrow",
		FetchBatchesMethod: "fetcharrowbatches",
	},
	"adbc_driver": {
		FetchAllMethod:     "fetch_arrow_table",
		FetchBatchesMethod: "fetch_arrow_table",
	},
	"duckdb": {
		FetchAllMethod:     "fetch_arrow_table",
		FetchBatchesMethod: "fetch_record_batch",
		ExactBatchSize:     true,
	},
	"kuzu": {
		FetchAllMethod:     "get_as_arrow",
		FetchBatchesMethod: "get_as_arrow",
	},
}

// LookupDriver returns the capability entry for a driver identifier. ADBC
// drivers share one convention, so any "adbc_driver_*" id matches the
// "adbc_driver" entry.
func LookupDriver(id string) (Capability, bool) {
	if c, ok := driverRegistry[id]; ok {
		return c, true
	}
	for prefix, c := range driverRegistry {
		if len(id) > len(prefix) && id[:len(prefix)] == prefix && id[len(prefix)] == '_' {
			return c, true
		}
	}
	return Capability{}, false
}

package dbread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"framelake/domain"
)

func TestClassifyQuery(t *testing.T) {
	t.Run("read_statements_pass", func(t *testing.T) {
		for _, q := range []string{
			"SELECT * FROM t",
			"select 1",
			"  WITH cte AS (SELECT 1) SELECT * FROM cte",
			"SHOW TABLES",
			"MATCH (n) RETURN n", // graph query form
			"EXPLAIN SELECT 1",
			"DESCRIBE t",
		} {
			assert.NoError(t, classifyQuery(q), q)
		}
	})

	t.Run("write_statements_rejected", func(t *testing.T) {
		for _, q := range []string{
			"INSERT INTO t VALUES (1)",
			"insert into t values (1)",
			"DELETE FROM t",
			"DROP TABLE t",
			"CREATE TABLE t (x INT)",
			"UPDATE t SET x = 1",
			"TRUNCATE TABLE t",
			"VACUUM",
			"ALTER TABLE t ADD COLUMN y INT",
			"GRANT SELECT ON t TO u",
			"SET search_path TO s",
		} {
			err := classifyQuery(q)
			require.Error(t, err, q)
			var unsuitable *domain.UnsuitableSQLError
			assert.ErrorAs(t, err, &unsuitable, q)
		}
	})

	t.Run("error_names_the_statement_type", func(t *testing.T) {
		err := classifyQuery("DELETE FROM t")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DELETE statements are not valid 'read' queries")
	})

	t.Run("comments_are_skipped", func(t *testing.T) {
		assert.NoError(t, classifyQuery("-- leading comment\nSELECT 1"))
		assert.NoError(t, classifyQuery("/* block */ SELECT 1"))
		assert.NoError(t, classifyQuery("# hash comment\nSELECT 1"))

		err := classifyQuery("/* harmless */\n-- still harmless\nDROP TABLE t")
		var unsuitable *domain.UnsuitableSQLError
		assert.ErrorAs(t, err, &unsuitable)
	})
}

func TestLeadingKeyword(t *testing.T) {
	cases := map[string]string{
		"SELECT 1":                     "SELECT",
		"  \n\tselect 1":               "select",
		"-- c\nWITH x AS (...)":        "WITH",
		"/* a */ /* b */ SHOW TABLES":  "SHOW",
		"":                             "",
		"-- only a comment":            "",
		"/* unterminated":              "",
		"with_underscore_token rest":   "with_underscore_token",
		"(SELECT 1)":                   "",
	}
	for query, want := range cases {
		assert.Equal(t, want, leadingKeyword(query), "query: %q", query)
	}
}

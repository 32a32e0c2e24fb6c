package dbread

import (
	"strings"

	"framelake/domain"
)

// invalidQueryTypes are leading statement keywords that are never valid
// read queries. Everything else (SELECT, WITH, SHOW, graph-query forms such
// as MATCH) passes through unchanged: this is keyword sniffing, not parsing.
var invalidQueryTypes = map[string]bool{
	"ALTER":    true,
	"ANALYZE":  true,
	"CREATE":   true,
	"DELETE":   true,
	"DROP":     true,
	"GRANT":    true,
	"INSERT":   true,
	"MERGE":    true,
	"REPLACE":  true,
	"REVOKE":   true,
	"SET":      true,
	"TRUNCATE": true,
	"UPDATE":   true,
	"UPSERT":   true,
	"USE":      true,
	"VACUUM":   true,
}

// classifyQuery rejects non-read statements before execution. The leading
// keyword is sniffed case-insensitively after skipping whitespace and
// comments.
func classifyQuery(query string) error {
	kw := strings.ToUpper(leadingKeyword(query))
	if invalidQueryTypes[kw] {
		return domain.ErrUnsuitableSQL("%s statements are not valid 'read' queries", kw)
	}
	return nil
}

// leadingKeyword returns the first statement token, skipping leading
// whitespace, `--` and `#` line comments, and `/* */` block comments.
func leadingKeyword(query string) string {
	s := query
	for {
		s = strings.TrimLeft(s, " \t\r\n")
		switch {
		case strings.HasPrefix(s, "--") || strings.HasPrefix(s, "#"):
			if i := strings.IndexByte(s, '\n'); i >= 0 {
				s = s[i+1:]
			} else {
				return ""
			}
		case strings.HasPrefix(s, "/*"):
			if i := strings.Index(s, "*/"); i >= 0 {
				s = s[i+2:]
			} else {
				return ""
			}
		default:
			end := 0
			for end < len(s) && (isLetter(s[end]) || s[end] == '_') {
				end++
			}
			return s[:end]
		}
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

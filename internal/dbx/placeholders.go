package dbx

import (
	"strconv"
	"strings"
)

// Placeholders returns n comma-separated PostgreSQL positional parameters
// starting at $start, e.g. Placeholders(2, 3) == "$2, $3, $4".
func Placeholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(start + i))
	}
	return b.String()
}

// Args converts a string slice to the []any expected by QueryContext.
func Args(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

package db

import (
	"fmt"
	"strings"
)

// Placeholders renders "$start, $start+1, ..." for n positional arguments.
func Placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

// Args converts a string slice into query arguments.
func Args(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so s matches literally with ESCAPE '\'.
func EscapeLike(s string) string { return likeEscaper.Replace(s) }

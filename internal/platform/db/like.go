package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike quotes LIKE wildcards so ILIKE $n compares for case-insensitive
// equality.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

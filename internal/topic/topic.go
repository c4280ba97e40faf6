// Package topic normalizes study topic names into index keys.
package topic

import "strings"

// Key lowercases name, trims it and joins internal whitespace runs with
// single hyphens: "  Big O  Notation " becomes "big-o-notation".
func Key(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

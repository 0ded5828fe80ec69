// Package strings holds small helpers for list-valued settings.
package strings

import "strings"

// DedupeAndTrim trims each value and drops empties and repeats, keeping the
// first occurrence order: " a:9092, b:9092,,a:9092" split on commas becomes
// [a:9092 b:9092].
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

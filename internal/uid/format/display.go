package format

import "strings"

const displayLength = UserLength + 4

// ForDisplay inserts hyphens between the fields of a 14-character user
// identifier: a00001MH032025 becomes a-00001-MH-03-2025. Any other input is
// returned unchanged. The result is for people, never for storage.
func ForDisplay(id string) string {
	if len(id) != UserLength {
		return id
	}
	return strings.Join([]string{id[:1], id[1:6], id[6:8], id[8:10], id[10:14]}, "-")
}

// FromDisplay reverses ForDisplay. Input that is not in display form is
// returned unchanged.
func FromDisplay(s string) string {
	if len(s) != displayLength || s[1] != '-' || s[7] != '-' || s[10] != '-' || s[13] != '-' {
		return s
	}
	return strings.ReplaceAll(s, "-", "")
}

package util

import "strings"

// SanitizePostgresText strips invalid UTF-8 sequences and NUL bytes,
// which Postgres TEXT columns reject.
func SanitizePostgresText(value string) string {
	if value == "" {
		return ""
	}

	valid := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(valid, "\x00", "")
}

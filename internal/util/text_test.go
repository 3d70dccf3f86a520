package util

import "testing"

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "clean text", input: "hello world", want: "hello world"},
		{name: "nul bytes removed", input: "a\x00b\x00c", want: "abc"},
		{name: "invalid utf8 removed", input: "caf\xffe", want: "cafe"},
		{name: "unicode kept", input: "café ☕", want: "café ☕"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizePostgresText(tc.input); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

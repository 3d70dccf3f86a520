package loader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractText_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("hello graph"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ExtractText(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello graph" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractText_UnsupportedFormat(t *testing.T) {
	if _, err := ExtractText("slides.pptx"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

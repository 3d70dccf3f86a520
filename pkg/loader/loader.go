// Package loader turns supported document files into plain text for
// the pipeline.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lychee-graph/lychee/pkg/loader/pdf"
)

// ExtractText reads the document at path and returns its plain text.
// The format is dispatched on the file extension; plain-text formats
// are read verbatim, PDFs go through text extraction.
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return pdf.ExtractText(path)
	case ".txt", ".md", ".text":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported document format: %q", filepath.Ext(path))
	}
}

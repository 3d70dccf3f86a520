// Package pdf extracts plain text from PDF documents.
package pdf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/lychee-graph/lychee/pkg/logger"
)

var (
	spaceRe    = regexp.MustCompile(`[ \t]+`)
	newlinesRe = regexp.MustCompile(`\n{3,}`)
)

// ExtractText reads the given PDF and returns its plain text, page by
// page. Pages whose text layer cannot be decoded are skipped.
func ExtractText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	totalPages := reader.NumPage()
	skipped := 0

	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			skipped++
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	if skipped > 0 {
		logger.Warn("[Loader][PDF] Pages without extractable text", "path", path, "skipped", skipped)
	}

	return cleanup(sb.String()), nil
}

func cleanup(text string) string {
	text = spaceRe.ReplaceAllString(text, " ")
	text = newlinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

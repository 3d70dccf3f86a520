package graph

import (
	"context"
	"path/filepath"

	"github.com/lychee-graph/lychee/pkg/common"
	"github.com/lychee-graph/lychee/pkg/loader"
)

// ProcessDocument extracts text from the document at path and runs the
// full pipeline over it. The file name becomes the source document ID
// unless the options override it.
func (p *Pipeline) ProcessDocument(ctx context.Context, path string, opts ProcessOptions) (*common.RunStats, error) {
	text, err := loader.ExtractText(path)
	if err != nil {
		return nil, err
	}
	if opts.SourceDocID == "" {
		opts.SourceDocID = filepath.Base(path)
	}
	return p.ProcessText(ctx, text, opts)
}

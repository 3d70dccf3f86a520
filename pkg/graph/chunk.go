package graph

import (
	"fmt"

	"github.com/lychee-graph/lychee/pkg/common"
)

// Chunk splits text into overlapping windows of at most size runes,
// with consecutive windows sharing overlap runes. It is a pure
// function: the same input always yields the same chunks, and joining
// chunk texts minus their overlaps reproduces the input exactly.
//
// Offsets are rune offsets into the original text. Empty input yields
// no chunks.
func Chunk(docID, text string, size, overlap int) ([]common.Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", common.ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", common.ErrInvalidConfig, size, overlap)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := size - overlap
	chunks := make([]common.Chunk, 0, (len(runes)+step-1)/step)

	for start, index := 0, 0; start < len(runes); start, index = start+step, index+1 {
		end := min(start+size, len(runes))
		chunks = append(chunks, common.Chunk{
			ID:          fmt.Sprintf("%s-%d", docID, index),
			SourceDocID: docID,
			Text:        string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
			Index:       index,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

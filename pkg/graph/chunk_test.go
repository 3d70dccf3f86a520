package graph

import (
	"errors"
	"strings"
	"testing"

	"github.com/lychee-graph/lychee/pkg/common"
)

func TestChunk_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{name: "zero size", size: 0, overlap: 0},
		{name: "negative size", size: -1, overlap: 0},
		{name: "negative overlap", size: 10, overlap: -1},
		{name: "overlap equals size", size: 10, overlap: 10},
		{name: "overlap exceeds size", size: 10, overlap: 12},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Chunk("doc", "some text", tc.size, tc.overlap)
			if !errors.Is(err, common.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	chunks, err := Chunk("doc", "", 10, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestChunk_Windows(t *testing.T) {
	text := "abcdefghij" // 10 runes
	chunks, err := Chunk("doc", text, 4, 2)
	if err != nil {
		t.Fatal(err)
	}

	want := []common.Chunk{
		{ID: "doc-0", SourceDocID: "doc", Text: "abcd", StartOffset: 0, EndOffset: 4, Index: 0},
		{ID: "doc-1", SourceDocID: "doc", Text: "cdef", StartOffset: 2, EndOffset: 6, Index: 1},
		{ID: "doc-2", SourceDocID: "doc", Text: "efgh", StartOffset: 4, EndOffset: 8, Index: 2},
		{ID: "doc-3", SourceDocID: "doc", Text: "ghij", StartOffset: 6, EndOffset: 10, Index: 3},
	}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunk %d: got %+v want %+v", i, chunks[i], want[i])
		}
	}
}

func TestChunk_Reconstruction(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{name: "even split", text: "abcdefghij", size: 4, overlap: 2},
		{name: "ragged tail", text: "abcdefghijklm", size: 5, overlap: 2},
		{name: "no overlap", text: "abcdefghij", size: 3, overlap: 0},
		{name: "single chunk", text: "short", size: 100, overlap: 10},
		{name: "unicode", text: "héllo wörld ünïcode täxt", size: 7, overlap: 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chunks, err := Chunk("doc", tc.text, tc.size, tc.overlap)
			if err != nil {
				t.Fatal(err)
			}

			var sb strings.Builder
			for i, c := range chunks {
				runes := []rune(c.Text)
				if i == 0 {
					sb.WriteString(c.Text)
					continue
				}
				sb.WriteString(string(runes[tc.overlap:]))
			}
			if sb.String() != tc.text {
				t.Fatalf("reconstruction mismatch:\ngot  %q\nwant %q", sb.String(), tc.text)
			}

			for i := 1; i < len(chunks); i++ {
				if chunks[i].StartOffset <= chunks[i-1].StartOffset {
					t.Fatal("start offsets must be strictly increasing")
				}
			}
		})
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("the quick brown fox ", 50)
	a, err := Chunk("doc", text, 64, 16)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Chunk("doc", text, 64, 16)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs", i)
		}
	}
}

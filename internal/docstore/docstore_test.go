package docstore

import (
	"context"
	"strings"
	"testing"

	"github.com/kayz/scout/internal/config"
)

func TestDisabledStoreIsNoOp(t *testing.T) {
	s, err := New(config.EmbeddingConfig{Enabled: false}, t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if s.Enabled() {
		t.Fatalf("store should be disabled")
	}

	n, err := s.Ingest(context.Background(), "doc.txt", "some text")
	if err != nil || n != 0 {
		t.Fatalf("disabled ingest: n=%d err=%v", n, err)
	}

	chunks, err := s.Search(context.Background(), "query", 3)
	if err != nil || chunks != nil {
		t.Fatalf("disabled search: chunks=%v err=%v", chunks, err)
	}
}

func TestSplitChunksShortTextIsSingleChunk(t *testing.T) {
	chunks := splitChunks("short document", 1000, 200)
	if len(chunks) != 1 || chunks[0] != "short document" {
		t.Fatalf("unexpected chunks: %#v", chunks)
	}
}

func TestSplitChunksOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 30) // 300 chars
	chunks := splitChunks(text, 100, 20)
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 100 {
			t.Fatalf("chunk %d exceeds size: %d", i, len(c))
		}
	}
	// Consecutive chunks share the overlap region.
	first := []rune(chunks[0])
	second := []rune(chunks[1])
	tail := string(first[len(first)-20:])
	if !strings.HasPrefix(string(second), tail) {
		t.Fatalf("chunks do not overlap: %q vs %q", tail, string(second[:20]))
	}
}

func TestSplitChunksEmptyText(t *testing.T) {
	if chunks := splitChunks("   \n  ", 1000, 200); chunks != nil {
		t.Fatalf("expected nil for blank text, got %#v", chunks)
	}
}

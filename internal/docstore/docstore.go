package docstore

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"

	"github.com/kayz/scout/internal/config"
	"github.com/kayz/scout/internal/logger"
)

const (
	collectionName = "scout-docs"
	chunkSize      = 1000
	chunkOverlap   = 200
)

// Store is the local knowledge base: uploaded documents are chunked,
// embedded, and kept in an on-disk vector store for semantic search.
// When embeddings are not configured the store is disabled and every
// operation is a no-op.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	enabled    bool
}

// New opens (or creates) the document store under dataDir.
func New(cfg config.EmbeddingConfig, dataDir string) (*Store, error) {
	if !cfg.Enabled {
		return &Store{enabled: false}, nil
	}

	db, err := chromem.NewPersistentDB(filepath.Join(dataDir, "docstore"), false)
	if err != nil {
		return nil, fmt.Errorf("failed to create document store: %w", err)
	}

	embed := chromem.NewEmbeddingFuncOllama(cfg.Model, cfg.BaseURL)
	collection, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	return &Store{db: db, collection: collection, enabled: true}, nil
}

// Enabled reports whether ingestion is configured.
func (s *Store) Enabled() bool {
	return s.enabled
}

// Ingest chunks a document and adds it to the store. Returns the number
// of chunks ingested.
func (s *Store) Ingest(ctx context.Context, name, text string) (int, error) {
	if !s.enabled {
		logger.Warn("[DOCS] ingest skipped, embeddings not configured")
		return 0, nil
	}

	chunks := splitChunks(text, chunkSize, chunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	docID := uuid.NewString()
	docs := make([]chromem.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("%s-%d", docID, i),
			Content: chunk,
			Metadata: map[string]string{
				"source": name,
				"chunk":  fmt.Sprintf("%d", i),
			},
		})
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("failed to add documents: %w", err)
	}

	logger.Info("[DOCS] ingested %q (%d chunks)", name, len(chunks))
	return len(chunks), nil
}

// Search returns the k most similar stored chunks for the query.
func (s *Store) Search(ctx context.Context, query string, k int) ([]string, error) {
	if !s.enabled {
		return nil, nil
	}
	if k <= 0 {
		k = 3
	}

	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	chunks := make([]string, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, r.Content)
	}
	return chunks, nil
}

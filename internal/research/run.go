package research

import (
	"time"

	"github.com/kayz/scout/internal/search"
)

// BucketResult is one bucket's slice of a run: the retained top results
// and their model-written summary.
type BucketResult struct {
	Results []search.Result `json:"results"`
	Summary string          `json:"summary"`
}

// Run is one completed research orchestration for a theme. Runs are
// immutable once appended to history.
type Run struct {
	ID        string                  `json:"id"`
	ThemeID   string                  `json:"theme_id"`
	ThemeName string                  `json:"theme_name"`
	Timestamp time.Time               `json:"timestamp"`
	Buckets   map[string]BucketResult `json:"buckets"`
}

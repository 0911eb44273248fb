package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kayz/scout/internal/fetch"
	"github.com/kayz/scout/internal/llm"
	"github.com/kayz/scout/internal/logger"
	"github.com/kayz/scout/internal/search"
	"github.com/kayz/scout/internal/theme"
)

const (
	// maxQueryKeywords caps how many theme keywords go into the bucket
	// query. More than this produces over-constrained searches.
	maxQueryKeywords = 3

	// searchMaxResults is requested per bucket query before ranking.
	searchMaxResults = 10

	// topResultsPerBucket is how many ranked results a bucket retains.
	topResultsPerBucket = 5

	// noResultsSummary replaces the generation call for empty buckets.
	// The generator is never invoked with empty context.
	noResultsSummary = "No relevant results found in this category."
)

// DocumentSearcher is the local knowledge base consulted when writing
// research articles. Implemented by the docstore package.
type DocumentSearcher interface {
	Search(ctx context.Context, query string, k int) ([]string, error)
}

// Orchestrator runs bucketed web research for a theme: fan out one query
// per bucket, rank and truncate results, summarize each bucket via the
// generation service, persist the assembled run.
type Orchestrator struct {
	engine  search.Engine
	llm     llm.Generator
	fetcher fetch.PageFetcher
	history *HistoryStore
	docs    DocumentSearcher
	pause   time.Duration
	notify  func(Event)
}

// NewOrchestrator wires an orchestrator. pause is the minimum spacing
// between bucket searches; zero disables it.
func NewOrchestrator(engine search.Engine, gen llm.Generator, fetcher fetch.PageFetcher, history *HistoryStore, pause time.Duration) *Orchestrator {
	return &Orchestrator{
		engine:  engine,
		llm:     gen,
		fetcher: fetcher,
		history: history,
		pause:   pause,
	}
}

// SetDocumentSearcher attaches the local document store used by
// WriteArticle. Optional.
func (o *Orchestrator) SetDocumentSearcher(docs DocumentSearcher) {
	o.docs = docs
}

// SetNotifier attaches a progress event sink. Optional.
func (o *Orchestrator) SetNotifier(notify func(Event)) {
	o.notify = notify
}

func (o *Orchestrator) emit(e Event) {
	if o.notify != nil {
		o.notify(e)
	}
}

// RunResearch orchestrates the research process for a single theme across
// the fixed buckets. A failing bucket degrades to an empty one; the run
// itself only fails when it cannot be persisted or the context ends.
func (o *Orchestrator) RunResearch(ctx context.Context, th theme.Theme) (*Run, error) {
	logger.Info("[RESEARCH] starting research for theme: %s", th.Name)
	o.emit(Event{Type: EventRunStarted, ThemeID: th.ID, ThemeName: th.Name})

	buckets := Buckets()
	bucketResults := make(map[string]BucketResult, len(buckets))

	for i, b := range buckets {
		logger.Info("[RESEARCH] searching bucket: %s", b.Name)
		o.emit(Event{Type: EventBucketStarted, ThemeID: th.ID, ThemeName: th.Name, Bucket: b.Name})

		results := o.searchBucket(ctx, th, b)
		ranked := rankResults(results, th.Keywords)
		if len(ranked) > topResultsPerBucket {
			ranked = ranked[:topResultsPerBucket]
		}
		if ranked == nil {
			ranked = []search.Result{}
		}
		summary := o.summarizeBucket(ctx, b.Name, ranked, th)

		bucketResults[b.Name] = BucketResult{Results: ranked, Summary: summary}
		o.emit(Event{Type: EventBucketDone, ThemeID: th.ID, ThemeName: th.Name, Bucket: b.Name, Results: len(ranked)})

		// Space out search calls to stay under the provider's rate
		// limits. No pause after the last bucket.
		if o.pause > 0 && i < len(buckets)-1 {
			select {
			case <-time.After(o.pause):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	run := &Run{
		ID:        uuid.NewString(),
		ThemeID:   th.ID,
		ThemeName: th.Name,
		Timestamp: time.Now().UTC(),
		Buckets:   bucketResults,
	}

	if err := o.history.Append(run); err != nil {
		return nil, fmt.Errorf("failed to persist research run: %w", err)
	}

	o.emit(Event{Type: EventRunCompleted, ThemeID: th.ID, ThemeName: th.Name, RunID: run.ID})
	return run, nil
}

// searchBucket issues the bucket query, with one relaxed fallback when the
// strict query finds nothing. Provider failures degrade to zero results.
func (o *Orchestrator) searchBucket(ctx context.Context, th theme.Theme, b Bucket) []search.Result {
	query := th.Name
	if len(th.Keywords) > 0 {
		kws := th.Keywords
		if len(kws) > maxQueryKeywords {
			kws = kws[:maxQueryKeywords]
		}
		query += " " + strings.Join(kws, " ")
	}

	siteParts := make([]string, len(b.Domains))
	for i, d := range b.Domains {
		siteParts[i] = "site:" + d
	}
	siteFilter := "(" + strings.Join(siteParts, " OR ") + ")"

	results, err := o.engine.TextSearch(ctx, query+" "+siteFilter, searchMaxResults)
	if err != nil {
		logger.Warn("[RESEARCH] error searching bucket %s: %v", b.Name, err)
		return nil
	}
	if len(results) == 0 {
		// Fallback: drop the keywords, keep the domain scope. One
		// attempt only.
		results, err = o.engine.TextSearch(ctx, th.Name+" "+siteFilter, searchMaxResults)
		if err != nil {
			logger.Warn("[RESEARCH] error searching bucket %s (fallback): %v", b.Name, err)
			return nil
		}
	}
	return results
}

// summarizeBucket asks the generator for a short synthesis of the bucket's
// retained results.
func (o *Orchestrator) summarizeBucket(ctx context.Context, bucketName string, results []search.Result, th theme.Theme) string {
	if len(results) == 0 {
		return noResultsSummary
	}

	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "- %s: %s\n", r.Title, r.Snippet)
	}

	prompt := fmt.Sprintf(`Analyze the following search results from the '%s' category regarding the theme '%s'.

Search Results:
%s
Instructions:
- Write a concise 3-5 sentence summary of what this source category is saying about the theme.
- Synthesize trends, sentiment, and key ideas.
- Do not list the results individually.`, bucketName, th.Name, sb.String())

	return o.llm.Generate(ctx, prompt, "")
}

// History returns all persisted runs, oldest first.
func (o *Orchestrator) History() ([]Run, error) {
	return o.history.Runs()
}

// GetRun returns one run by id, or ErrRunNotFound.
func (o *Orchestrator) GetRun(id string) (*Run, error) {
	return o.history.Run(id)
}

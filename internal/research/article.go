package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/kayz/scout/internal/logger"
	"github.com/kayz/scout/internal/search"
)

const articleSystemPrompt = "You are a senior research analyst. Write a comprehensive research article based on the provided context. Cite your sources."

// ArticleResult is a synthesized research article plus the sources that
// fed it.
type ArticleResult struct {
	Article      string          `json:"article"`
	LocalSources []string        `json:"local_sources"`
	WebSources   []search.Result `json:"web_sources"`
}

// WriteArticle combines the local document store and a domain-scoped web
// search into one generated article. Missing sources degrade to empty
// context rather than failing the synthesis.
func (o *Orchestrator) WriteArticle(ctx context.Context, query string, focusDomains []string) ArticleResult {
	var localContext []string
	if o.docs != nil {
		var err error
		localContext, err = o.docs.Search(ctx, query, 3)
		if err != nil {
			logger.Warn("[RESEARCH] local document search failed: %v", err)
			localContext = nil
		}
	}

	webQuery := query
	if len(focusDomains) > 0 {
		siteParts := make([]string, len(focusDomains))
		for i, d := range focusDomains {
			siteParts[i] = "site:" + d
		}
		webQuery += " (" + strings.Join(siteParts, " OR ") + ")"
	}

	webResults, err := o.engine.TextSearch(ctx, webQuery, topResultsPerBucket)
	if err != nil {
		logger.Warn("[RESEARCH] web search failed: %v", err)
		webResults = nil
	}

	var webContext strings.Builder
	for _, r := range webResults {
		fmt.Fprintf(&webContext, "- %s: %s (%s)\n", r.Title, r.Snippet, r.Link)
	}

	prompt := fmt.Sprintf(`Query: %s

Local Knowledge Base Context:
%s

Web Search Context (High Credibility Sources):
%s

Instructions:
- Synthesize the information from both local and web sources.
- Prioritize the local knowledge base but supplement with web findings.
- Clearly cite sources (e.g., [Local Doc], [McKinsey], [Arxiv]).
- Structure the article with clear headings.`, query, strings.Join(localContext, "\n\n"), webContext.String())

	article := o.llm.Generate(ctx, prompt, articleSystemPrompt)

	if localContext == nil {
		localContext = []string{}
	}
	if webResults == nil {
		webResults = []search.Result{}
	}
	return ArticleResult{
		Article:      article,
		LocalSources: localContext,
		WebSources:   webResults,
	}
}

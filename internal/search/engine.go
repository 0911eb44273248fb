package search

import (
	"context"
	"fmt"

	"github.com/kayz/scout/internal/config"
)

// Engine is a keyword web search provider. TextSearch returns the
// provider's result order; an empty query match is an empty slice,
// not an error.
type Engine interface {
	Name() string
	TextSearch(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// New creates the engine selected by the config.
func New(cfg config.SearchConfig) (Engine, error) {
	switch cfg.Engine {
	case "", "duckduckgo":
		return NewDuckDuckGo(), nil
	case "tavily":
		return NewTavily(cfg), nil
	default:
		return nil, fmt.Errorf("unknown search engine: %q", cfg.Engine)
	}
}

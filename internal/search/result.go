package search

// Result is a single web search hit. Results are ephemeral: only the
// top-ranked ones survive inside a research run's bucket payload.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

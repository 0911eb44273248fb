package research

// Bucket is one topical slice of a research run: a name plus the fixed
// set of domains its searches are scoped to.
type Bucket struct {
	Name    string
	Domains []string
}

// Buckets returns the fixed bucket definitions in their canonical order.
// Every run contains exactly these buckets.
func Buckets() []Bucket {
	return []Bucket{
		{Name: "mbb", Domains: []string{"mckinsey.com", "bcg.com", "bain.com"}},
		{Name: "market", Domains: []string{"gartner.com", "forrester.com"}},
		{Name: "reddit", Domains: []string{"reddit.com"}},
		{Name: "arxiv", Domains: []string{"arxiv.org"}},
		{Name: "youtube", Domains: []string{"youtube.com"}},
	}
}

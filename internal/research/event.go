package research

// Event types published while a run is in flight. The HTTP layer relays
// them to websocket subscribers so the dashboard can show live progress.
const (
	EventRunStarted    = "run_started"
	EventBucketStarted = "bucket_started"
	EventBucketDone    = "bucket_done"
	EventRunCompleted  = "run_completed"
)

// Event is one progress notification from the orchestrator.
type Event struct {
	Type      string `json:"type"`
	ThemeID   string `json:"theme_id"`
	ThemeName string `json:"theme_name"`
	Bucket    string `json:"bucket,omitempty"`
	Results   int    `json:"results,omitempty"`
	RunID     string `json:"run_id,omitempty"`
}

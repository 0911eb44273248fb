package theme

import "errors"

const (
	StatusDraft  = "draft"
	StatusActive = "active"

	// MaxActiveThemes caps how many themes can be researched on a
	// schedule at once.
	MaxActiveThemes = 3

	DefaultSchedule = "weekly"
)

// QuotaMessage is the caller-facing text for quota violations. The
// frontend matches on it, keep it stable.
const QuotaMessage = "Active theme limit reached (3). Deactivate another theme first."

var (
	ErrThemeNotFound = errors.New("theme not found")
	ErrQuotaExceeded = errors.New(QuotaMessage)
)

// Theme is a research topic tracked by the backend. Themes start as
// drafts; activating one puts it into the scheduled research rotation.
type Theme struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Status      string   `json:"status"`
	Schedule    string   `json:"schedule"`
}

// Update is a partial-field merge for UpdateTheme. Nil fields are left
// untouched.
type Update struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Schedule    *string  `json:"schedule,omitempty"`
}

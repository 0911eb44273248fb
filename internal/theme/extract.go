package theme

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kayz/scout/internal/llm"
	"github.com/kayz/scout/internal/logger"
)

const (
	// maxExtractionChars bounds the document text sent to the model so
	// it fits the context window.
	maxExtractionChars = 15000

	// maxExtractedThemes caps how many themes one extraction may create,
	// even when the model returns more.
	maxExtractedThemes = 3

	placeholderName        = "Untitled Theme"
	placeholderDescription = "No description provided."
)

// ErrMalformedResponse marks a generation response that was supposed to be
// JSON but wasn't. It is absorbed before reaching API callers; the sentinel
// exists so the extractor can log it apart from "no themes found".
var ErrMalformedResponse = errors.New("malformed extraction response")

const extractionSystemPrompt = `You are a Senior Research Analyst. Task: Extract highly specific "Search Themes" from the attached document for a research database.

The Process (Internal Monologue - Do Not Output):
Scan 1: Identify the 3 most obvious high-level topics. (e.g., "Generative AI").
Critique: These are too generic. Discard them.
Scan 2: Look for specific strategies, problems, or technologies mentioned in the details. (e.g., "Generative AI Code Migration Risks").
Scan 3: Look for "Shadow Themes" - topics mentioned in charts or footnotes that are distinct from the main headline.
Refine: Convert the best findings into specific 3-4 word Noun Phrases.

Output Constraints:
Length: Exactly 3-4 words per theme.
Quantity: Top 2-3 distinct themes.
Banned: Single words ("Inflation"), broad buckets ("Marketing").

Output MUST be valid JSON in the following format:
[
    {
        "name": "Specific Theme Name",
        "description": "Brief context about why this is a key theme.",
        "keywords": ["specific keyword 1", "specific keyword 2", "specific keyword 3"]
    }
]
IMPORTANT: Use the key "keywords", NOT "examples".
Do not include any markdown formatting (like ` + "```json" + `). Just the raw JSON string.`

// Extractor turns document text into draft themes via the generation
// service.
type Extractor struct {
	llm   llm.Generator
	store *Store
}

func NewExtractor(g llm.Generator, s *Store) *Extractor {
	return &Extractor{llm: g, store: s}
}

// ExtractThemes asks the model for themes in the given text and persists
// whatever parses. An unparsable model response yields an empty result,
// never an error; persistence failures are returned.
func (e *Extractor) ExtractThemes(ctx context.Context, text string) ([]Theme, error) {
	if len(text) > maxExtractionChars {
		text = text[:maxExtractionChars]
	}

	response := e.llm.Generate(ctx, "Text to analyze:\n"+text, extractionSystemPrompt)

	drafts, err := parseThemePayload(response)
	if err != nil {
		logger.Warn("[THEME] discarding extraction response: %v", err)
		return []Theme{}, nil
	}

	if len(drafts) > maxExtractedThemes {
		drafts = drafts[:maxExtractedThemes]
	}

	created := make([]Theme, 0, len(drafts))
	for _, d := range drafts {
		name := d.Name
		if name == "" {
			name = placeholderName
		}
		description := d.Description
		if description == "" {
			description = placeholderDescription
		}
		keywords := d.Keywords
		// Models sometimes ignore the key name instruction.
		if len(keywords) == 0 {
			keywords = d.Examples
		}
		if keywords == nil {
			keywords = []string{}
		}

		t, err := e.store.CreateTheme(name, description, keywords, DefaultSchedule)
		if err != nil {
			return created, fmt.Errorf("failed to persist extracted theme: %w", err)
		}
		created = append(created, *t)
	}

	logger.Info("[THEME] extracted %d theme(s)", len(created))
	return created, nil
}

type themeDraft struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Examples    []string `json:"examples"`
}

// parseThemePayload parses the model's JSON array, tolerating surrounding
// markdown code fences.
func parseThemePayload(response string) ([]themeDraft, error) {
	cleaned := strings.TrimSpace(response)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	cleaned = strings.TrimSpace(cleaned)

	var drafts []themeDraft
	if err := json.Unmarshal([]byte(cleaned), &drafts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return drafts, nil
}

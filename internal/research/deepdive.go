package research

import (
	"context"
	"fmt"
)

// deepDiveMaxChars bounds how much page text goes into the prompt.
const deepDiveMaxChars = 15000

// DeepDive fetches a single page and asks the generator for a structured
// summary. Every failure is folded into the returned string so the API can
// show it to the user directly.
func (o *Orchestrator) DeepDive(ctx context.Context, url string) string {
	content, err := o.fetcher.Fetch(ctx, url)
	if err != nil {
		return fmt.Sprintf("Error performing deep dive: %v", err)
	}

	if len(content) > deepDiveMaxChars {
		content = content[:deepDiveMaxChars]
	}

	prompt := fmt.Sprintf(`Analyze the following article content:

%s

Instructions:
- Provide a structured deep dive summary.
- Format:
  - **Key Arguments**: Bullet points of main claims.
  - **Evidence**: Data, case studies, or quotes used.
  - **Implications**: What this means for the industry/theme.
  - **TL;DR**: A one-sentence takeaway.`, content)

	return o.llm.Generate(ctx, prompt, "")
}

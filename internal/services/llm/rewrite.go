package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// RewriteSystemPrompt sets the narration voice for rewritten pages.
const RewriteSystemPrompt = `You are a helpful writing assistant for high-octane storybooks.
- Audience: young readers aged 15-25.
- Keep language simple, friendly, and engaging.
- Avoid difficult vocabulary.
- Preserve core meaning but simplify.
- 2 short sentences max.
- Ensure narrative continuity from previous pages.
- Use respectful capitalized pronouns for deities (He/Him/His, They/Them/Their).
- In Hindi, use respectful forms like 'वे', 'उन्होंने', 'उनका' for deities.`

// RewriteRequest carries one page plus optional story context.
type RewriteRequest struct {
	PageText      string
	WholeStory    string
	PreviousPages string
}

// Rewrite holds the bilingual narration for one page.
type Rewrite struct {
	English string
	Hindi   string
	Raw     string
}

// RewriteForKids asks the model for English and Hindi narration in a single
// call and splits the [EN]/[HI] blocks.
func (c *Client) RewriteForKids(ctx context.Context, req RewriteRequest) (Rewrite, error) {
	if strings.TrimSpace(req.PageText) == "" {
		return Rewrite{}, errors.New("llm rewrite: page text required")
	}
	content, err := c.CompleteText(ctx, RewriteSystemPrompt, BuildRewritePrompt(req))
	if err != nil {
		return Rewrite{}, err
	}
	out, err := ParseBilingual(content)
	if err != nil {
		return Rewrite{}, fmt.Errorf("llm rewrite: %w", err)
	}
	return out, nil
}

// BuildRewritePrompt renders the user prompt for a page.
func BuildRewritePrompt(req RewriteRequest) string {
	var b strings.Builder
	b.WriteString("Rewrite the following text into two versions for a simple storybook:\n")
	b.WriteString("1) English (simple narration). 2 short sentences max.\n")
	b.WriteString("2) Simple colloquial Hindi in Devanagari script (हिन्दी), easy words and 2 short sentences max.\n\n")
	b.WriteString("Maintain narrative flow and continuity from the previous pages.\n\n")
	b.WriteString("TEXTUAL CONTROLS FOR SPEECH:\n")
	b.WriteString("- Timed pauses: use a new line for a pause (up to 3).\n")
	b.WriteString("- Emphasis: use ALL CAPS for strong vocal emphasis.\n")
	b.WriteString("- Hesitation: use an ellipsis (...).\n\n")
	if story := strings.TrimSpace(req.WholeStory); story != "" {
		b.WriteString("--- FULL STORY CONTEXT (for reference) ---\n")
		b.WriteString(story)
		b.WriteString("\n\n")
	}
	if prev := strings.TrimSpace(req.PreviousPages); prev != "" {
		b.WriteString("--- STORY SO FAR (previous pages narration) ---\n")
		b.WriteString(prev)
		b.WriteString("\n\n")
	}
	b.WriteString("Return output exactly in this format (no extra commentary):\n")
	b.WriteString("[EN]\n<english text>\n\n[HI]\n<hindi text>\n\n")
	b.WriteString("--- CURRENT PAGE TEXT TO REWRITE ---\n")
	b.WriteString(strings.TrimSpace(req.PageText))
	return b.String()
}

// ParseBilingual splits a model response into its [EN] and [HI] blocks. When a
// tag is missing the response is split at its midpoint for the missing side.
func ParseBilingual(content string) (Rewrite, error) {
	full := strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if full == "" {
		return Rewrite{}, errors.New("empty response")
	}
	blocks := map[string][]string{}
	current := ""
	for _, line := range strings.Split(full, "\n") {
		switch strings.TrimSpace(line) {
		case "[EN]":
			current = "EN"
			blocks[current] = nil
			continue
		case "[HI]":
			current = "HI"
			blocks[current] = nil
			continue
		}
		if current != "" {
			blocks[current] = append(blocks[current], line)
		}
	}
	out := Rewrite{
		English: strings.TrimSpace(strings.Join(blocks["EN"], "\n")),
		Hindi:   strings.TrimSpace(strings.Join(blocks["HI"], "\n")),
		Raw:     content,
	}
	if out.English == "" || out.Hindi == "" {
		runes := []rune(full)
		half := len(runes) / 2
		if out.English == "" {
			out.English = strings.TrimSpace(string(runes[:half]))
		}
		if out.Hindi == "" {
			out.Hindi = strings.TrimSpace(string(runes[half:]))
		}
	}
	return out, nil
}

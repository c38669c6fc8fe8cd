package backend

import (
	"fmt"
	"regexp"
	"strings"

	"codeberg.org/snonux/sheettrans/internal/locale"
)

const systemPrompt = `You are a professional translator for software and game localization.
Return ONLY the translation itself, with no explanations, notes, quotes or thinking process.
The text may contain tokens such as {X0} or {Y1}. Copy every token unchanged, exactly once, and keep the tokens in the same order.
Keep line breaks where the source has them.`

// buildPrompt returns the user message for one translation
func buildPrompt(text, sourceLocale, targetLocale string) string {
	return fmt.Sprintf("Translate the following text from %s (%s) to %s (%s).\n\nText to translate: %s",
		locale.Name(sourceLocale), sourceLocale, locale.Name(targetLocale), targetLocale, text)
}

var (
	thinkBlock   = regexp.MustCompile(`(?is)<think>.*?</think>`)
	thinkMarker  = regexp.MustCompile(`(?i)</?think>`)
	answerPrefix = regexp.MustCompile(`(?i)^(?:here(?:'s| is) the translation[^:\n]*:|the translation is:|translation:)\s*`)
	preamble     = regexp.MustCompile(`(?i)^(?:let me translate|i need to translate|translating from|translating to)[^\n]*\n+`)
)

// cleanResponse strips the reasoning and chatter some models wrap around
// the answer.
func cleanResponse(source, response string) string {
	out := thinkBlock.ReplaceAllString(response, "")
	out = thinkMarker.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)

	out = strings.TrimSpace(preamble.ReplaceAllString(out, ""))
	out = strings.TrimSpace(answerPrefix.ReplaceAllString(out, ""))

	// A trailing paragraph the source does not have is an explanation
	if !strings.Contains(source, "\n\n") {
		if i := strings.Index(out, "\n\n"); i >= 0 {
			out = strings.TrimSpace(out[:i])
		}
	}

	if len(out) >= 2 && strings.HasPrefix(out, `"`) && strings.HasSuffix(out, `"`) &&
		!strings.HasPrefix(strings.TrimSpace(source), `"`) {
		out = strings.TrimSpace(out[1 : len(out)-1])
	}

	return out
}

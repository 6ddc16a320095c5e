package ai

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// GenerationParams are the decoding settings sent with every call. They are
// fixed so the same input and weights give the same output.
type GenerationParams struct {
	NumBeams      int
	MaxLength     int
	EarlyStopping bool
	// MaxInputTokens is the input budget; longer input is truncated.
	MaxInputTokens int
}

// DefaultGenerationParams matches the MarianMT setup the service ships with.
var DefaultGenerationParams = GenerationParams{
	NumBeams:       4,
	MaxLength:      512,
	EarlyStopping:  true,
	MaxInputTokens: 512,
}

// TruncateTokens keeps the first max whitespace-separated tokens of text.
// It reports whether anything was cut.
func TruncateTokens(text string, max int) (string, bool) {
	if max <= 0 {
		return text, false
	}
	fields := strings.Fields(text)
	if len(fields) <= max {
		return text, false
	}
	return strings.Join(fields[:max], " "), true
}

var specialTokenRE = regexp.MustCompile(`</?s>|<pad>|<unk>|<\|endoftext\|>`)

// StripSpecialTokens removes tokenizer control tokens that leak into decoded
// output. Line breaks inside the translation are kept.
func StripSpecialTokens(text string) string {
	return strings.TrimSpace(specialTokenRE.ReplaceAllString(text, ""))
}

var strictPolicy = bluemonday.StrictPolicy()

// StripHTML drops HTML markup so tags never reach the tokenizer. Text
// without '<' is returned unchanged; anything else that parses as a tag,
// such as "a<b and c>d", is removed with it.
func StripHTML(text string) string {
	if !strings.ContainsRune(text, '<') {
		return text
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(text)))
}

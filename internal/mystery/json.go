package mystery

import (
	"regexp"
	"strings"
)

var (
	fenceOpenRe  = regexp.MustCompile("(?m)^```(?:json)?\\s*\n?")
	fenceCloseRe = regexp.MustCompile("(?m)\n?```\\s*$")
)

// StripMarkdownJSON removes markdown code fences and any prose around
// the outermost JSON value. Models occasionally wrap JSON output even
// when told not to.
func StripMarkdownJSON(text string) string {
	text = fenceOpenRe.ReplaceAllString(text, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return text
	}

	start := strings.Index(text, "{")
	if start == -1 {
		start = strings.Index(text, "[")
	}
	end := strings.LastIndex(text, "}")
	if e := strings.LastIndex(text, "]"); e > end {
		end = e
	}
	if start != -1 && end != -1 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// Package keyword turns free-form Telegram text into a production
// trigger. Anything that doesn't look like a usable topic is dropped,
// so stray chatter in the channel never starts a job.
package keyword

import "strings"

const maxKeywordLen = 80

// Extract returns the keyword contained in a message, or "" when the
// text holds nothing actionable. Bot commands like "/clip sunset" yield
// their argument; a bare command yields nothing.
func Extract(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if strings.HasPrefix(text, "/") {
		// "/cmd arg" or "/cmd@BotName arg"
		parts := strings.SplitN(text, " ", 2)
		if len(parts) < 2 {
			return ""
		}
		text = strings.TrimSpace(parts[1])
	}

	// Collapse internal whitespace so "sunset   timelapse" and
	// "sunset timelapse" trigger the same job.
	text = strings.Join(strings.Fields(text), " ")

	if text == "" || strings.HasPrefix(text, "/") {
		return ""
	}
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		return ""
	}
	if len(text) > maxKeywordLen {
		return ""
	}

	return text
}

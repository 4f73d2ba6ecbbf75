package message

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const previewMaxRunes = 120

var previewPolicy = bluemonday.StrictPolicy()

// Preview renders the one-line summary stored in a ticket's last_message:
// markup stripped, whitespace collapsed, length capped. Media messages
// without text show their type.
func Preview(m Message) string {
	text := html.UnescapeString(previewPolicy.Sanitize(m.Content))
	text = strings.Join(strings.Fields(text), " ")
	if text == "" && m.MType != "" && m.MType != "text" {
		return "[" + m.MType + "]"
	}
	runes := []rune(text)
	if len(runes) > previewMaxRunes {
		return string(runes[:previewMaxRunes]) + "…"
	}
	return text
}

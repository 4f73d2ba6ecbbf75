package logutil

// TruncateForLog shortens s to at most maxLen runes for log output, marking
// the cut with "...". Message bodies carry multi-byte text, so the cut never
// splits a rune.
func TruncateForLog(s string, maxLen int) string {
	if maxLen <= 0 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

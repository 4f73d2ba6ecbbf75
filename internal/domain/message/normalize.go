package message

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeContent folds a message body for comparison: NFC, case folded,
// whitespace runs collapsed.
func normalizeContent(s string) string {
	s = norm.NFC.String(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// contentMatches accepts equal bodies and bodies where one is a prefix of
// the other, as the platforms may truncate or append to what was sent.
func contentMatches(a, b string) bool {
	na, nb := normalizeContent(a), normalizeContent(b)
	if na == "" || nb == "" {
		return na == nb
	}
	return strings.HasPrefix(na, nb) || strings.HasPrefix(nb, na)
}

package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain decodes content as UTF-8 up to budget bytes of output,
// replacing invalid sequences with the replacement character. Content past
// the budget is never decoded; the snippet could not use it anyway.
func extractPlain(content []byte, budget int) string {
	if len(content) <= budget && utf8.Valid(content) {
		return string(content)
	}
	var b strings.Builder
	for len(content) > 0 && b.Len() < budget {
		r, size := utf8.DecodeRune(content)
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
		} else {
			b.WriteRune(r)
		}
		content = content[size:]
	}
	return b.String()
}

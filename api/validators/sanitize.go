package validators

import (
	"strings"
	"unicode"
)

// CleanSearch normalises a free-text catalog query: control characters are
// dropped, whitespace runs collapse to one space and the result is cut to
// maxRunes runes (0 means no limit).
func CleanSearch(input string, maxRunes int) string {
	var b strings.Builder
	b.Grow(len(input))
	n := 0
	space := false
	for _, r := range strings.TrimSpace(input) {
		if maxRunes > 0 && n >= maxRunes {
			break
		}
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space && b.Len() > 0 {
			if maxRunes > 0 && n+1 >= maxRunes {
				break
			}
			b.WriteByte(' ')
			n++
		}
		space = false
		b.WriteRune(r)
		n++
	}
	return b.String()
}

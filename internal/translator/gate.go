package translator

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Prefix marks an input as addressed to this translator.
const Prefix = "🤖, "

// Gate decides whether input is addressed to the translator. When it is, the
// prefix is stripped and the first remaining rune is upper-cased; the rest of
// the string is left untouched. When it is not, input is returned unchanged
// and addressed is false.
func Gate(input string) (query string, addressed bool) {
	rest, ok := strings.CutPrefix(input, Prefix)
	if !ok {
		return input, false
	}
	r, size := utf8.DecodeRuneInString(rest)
	if size == 0 {
		return rest, true
	}
	return string(unicode.ToUpper(r)) + rest[size:], true
}

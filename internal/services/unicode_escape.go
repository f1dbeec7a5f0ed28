package services

import (
	"strconv"
	"strings"
)

// DecodeUnicodeEscapes expands backslash escapes some clients send literally
// (\n, \t, \uXXXX, \xHH, ...). Unknown or malformed escapes are kept as is.
func DecodeUnicodeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			i++
			continue
		}
		switch s[i+1] {
		case '\'', '"':
			b.WriteByte(s[i+1])
			i += 2
			continue
		}
		r, _, tail, err := strconv.UnquoteChar(s[i:], 0)
		if err != nil {
			b.WriteString(s[i : i+2])
			i += 2
			continue
		}
		b.WriteRune(r)
		i = len(s) - len(tail)
	}
	return b.String()
}

package text

import "strings"

// DecodeEscapes turns the two-character sequences \n, \t and \r into their
// control characters in a single left-to-right pass. An escaped backslash
// (\\) becomes one literal backslash and is never re-read as the start of
// another sequence, so `\\n` decodes to a backslash followed by `n`.
// Any other backslash sequence is kept verbatim.
func DecodeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}

		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(c)
			b.WriteByte(s[i+1])
		}
		i++
	}

	return b.String()
}

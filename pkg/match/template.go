package match

import (
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/patcherr"
)

// IndentToken is replaced by the indentation captured from the anchor match
const IndentToken = "__INDENT__"

// 🧩 ApplyIndent substitutes every IndentToken in tmpl with indent
func ApplyIndent(tmpl, indent string) string {
	if !strings.Contains(tmpl, IndentToken) {
		return tmpl
	}
	return strings.ReplaceAll(tmpl, IndentToken, indent)
}

// 🧩 Expand resolves back-references in tmpl against m. Supported forms are
// \1 .. \99, \g<1> and \g<name>; \\ yields a literal backslash. Other
// backslash sequences are copied through untouched.
func Expand(m Match, tmpl string) (string, error) {
	if !strings.Contains(tmpl, `\`) {
		return tmpl, nil
	}

	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '\\' || i+1 >= len(tmpl) {
			b.WriteByte(c)
			continue
		}

		next := tmpl[i+1]
		switch {
		case next == '\\':
			b.WriteByte('\\')
			i++
		case isDigit(next):
			j := i + 1
			for j < len(tmpl) && j < i+3 && isDigit(tmpl[j]) {
				j++
			}
			n, _ := strconv.Atoi(tmpl[i+1 : j])
			val, err := group(m, strconv.Itoa(n))
			if err != nil {
				return "", err
			}
			b.WriteString(val)
			i = j - 1
		case next == 'g' && i+2 < len(tmpl) && tmpl[i+2] == '<':
			end := strings.IndexByte(tmpl[i+3:], '>')
			if end < 0 {
				return "", errors.Errorf("%w: unterminated group reference in %q", patcherr.ErrSpecShape, tmpl)
			}
			ref := tmpl[i+3 : i+3+end]
			val, err := group(m, ref)
			if err != nil {
				return "", err
			}
			b.WriteString(val)
			i = i + 3 + end
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func group(m Match, ref string) (string, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 0 || n >= len(m.Groups) {
			return "", errors.Errorf("%w: invalid group reference %d", patcherr.ErrSpecShape, n)
		}
		return m.Groups[n], nil
	}
	val, ok := m.Named[ref]
	if !ok {
		return "", errors.Errorf("%w: unknown group name %q", patcherr.ErrSpecShape, ref)
	}
	return val, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

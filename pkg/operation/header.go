package operation

import (
	"strings"

	"github.com/walteh/patchrc/pkg/text"
)

// 📜 header describes the top-of-module region new declarations go after:
// leading comments (shebang, encoding, license), the module docstring and the
// first block of import statements.
type header struct {
	end       int // byte offset just past the last header line
	docstring bool
	imports   bool
}

func scanHeader(buf text.Buffer) header {
	var h header
	rows := buf.LineCount()
	row, end := 0, 0

	for ; row < rows; row++ {
		line := buf.Line(row)
		if text.IsBlank(line) {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			break
		}
		end = row + 1
	}

	if row < rows {
		if last, ok := docstringEnd(buf, row); ok {
			row = last + 1
			end = row
			h.docstring = true
		}
	}

	for row < rows {
		line := buf.Line(row)
		if text.IsBlank(line) || strings.HasPrefix(strings.TrimSpace(line), "#") {
			row++
			continue
		}
		if !isImportStatement(line) {
			break
		}
		row = importEnd(buf, row) + 1
		end = row
		h.imports = true
	}

	if end > 0 {
		h.end = buf.LineEnd(end - 1)
	}
	return h
}

// docstringEnd returns the last row of a string literal opening at row
func docstringEnd(buf text.Buffer, row int) (int, bool) {
	line := buf.Line(row)
	l := strings.TrimLeft(line, "rRuUbB")
	if len(line)-len(l) > 2 {
		return 0, false
	}

	for _, q := range []string{`"""`, `'''`} {
		if !strings.HasPrefix(l, q) {
			continue
		}
		if strings.Contains(l[len(q):], q) {
			return row, true
		}
		for r := row + 1; r < buf.LineCount(); r++ {
			if strings.Contains(buf.Line(r), q) {
				return r, true
			}
		}
		return 0, false
	}

	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(l, q) && strings.Contains(l[1:], q) {
			return row, true
		}
	}
	return 0, false
}

// isImportStatement matches a module-level import line
func isImportStatement(line string) bool {
	return strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "from ")
}

// importEnd follows parenthesised and backslash continuations of the import at row
func importEnd(buf text.Buffer, row int) int {
	line := stripComment(buf.Line(row))
	open := strings.Count(line, "(") - strings.Count(line, ")")
	for row+1 < buf.LineCount() && (open > 0 || strings.HasSuffix(strings.TrimRight(line, " \t"), `\`)) {
		row++
		line = stripComment(buf.Line(row))
		open += strings.Count(line, "(") - strings.Count(line, ")")
	}
	return row
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

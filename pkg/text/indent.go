package text

import "strings"

// LeadingWhitespace returns the run of spaces and tabs that starts line
func LeadingWhitespace(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

// IsBlank reports whether line holds nothing but whitespace
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// 📐 Dedent strips the longest whitespace prefix shared by all non-blank lines
func Dedent(s string) string {
	lines := strings.Split(s, "\n")

	prefix := ""
	first := true
	for _, line := range lines {
		if IsBlank(line) {
			continue
		}
		ws := LeadingWhitespace(line)
		if first {
			prefix = ws
			first = false
			continue
		}
		prefix = commonPrefix(prefix, ws)
	}

	if prefix == "" {
		return s
	}

	for i, line := range lines {
		if IsBlank(line) {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}

// 📐 Indent prefixes every non-blank line of s with indent; blank lines are emptied
func Indent(s, indent string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if IsBlank(line) {
			lines[i] = ""
			continue
		}
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

// 📐 Reindent normalizes a source block to sit at indent: surrounding blank
// lines are dropped, the block is dedented, then indented, and exactly one
// trailing newline is added. A tab-only indent also turns the block's
// space indentation into tabs.
func Reindent(block, indent string) string {
	block = strings.Trim(strings.ReplaceAll(block, "\r\n", "\n"), "\n")
	body := Dedent(trimBlankEdges(block))
	if indent != "" && strings.Trim(indent, "\t") == "" {
		body = spacesToTabs(body)
	}
	return Indent(body, indent) + "\n"
}

// spacesToTabs rewrites space-only leading indentation one tab per step of
// the smallest such indent. Lines off that step keep their spaces.
func spacesToTabs(s string) string {
	lines := strings.Split(s, "\n")

	unit := 0
	for _, line := range lines {
		if n, ok := spaceIndent(line); ok && (unit == 0 || n < unit) {
			unit = n
		}
	}
	if unit == 0 {
		return s
	}

	for i, line := range lines {
		if n, ok := spaceIndent(line); ok && n%unit == 0 {
			lines[i] = strings.Repeat("\t", n/unit) + line[n:]
		}
	}
	return strings.Join(lines, "\n")
}

// spaceIndent returns the width of a non-blank line's leading run of spaces
func spaceIndent(line string) (int, bool) {
	ws := LeadingWhitespace(line)
	if ws == "" || IsBlank(line) || strings.Trim(ws, " ") != "" {
		return 0, false
	}
	return len(ws), true
}

// TrimTrailingNewlines removes every trailing \n
func TrimTrailingNewlines(s string) string {
	return strings.TrimRight(s, "\n")
}

// TrimLeadingNewlines removes every leading \n
func TrimLeadingNewlines(s string) string {
	return strings.TrimLeft(s, "\n")
}

func trimBlankEdges(s string) string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && IsBlank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && IsBlank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	for i := len(lines) - 1; i >= 0; i-- {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package diff renders the before/after text of a patched file.
package diff

import (
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
	"gitlab.com/tozd/go/errors"
)

// contextLines matches the default of diff -u
const contextLines = 3

// 📊 Stats counts changed lines between two texts
type Stats struct {
	Added   int
	Removed int
}

// 📝 Unified renders a unified diff from before to after labelled a/path and b/path.
// Identical inputs produce "".
func Unified(path, before, after string) (string, error) {
	if before == after {
		return "", nil
	}

	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(before),
		B:        splitLines(after),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  contextLines,
	})
	if err != nil {
		return "", errors.Errorf("rendering diff for %s: %w", path, err)
	}
	return out, nil
}

// 📊 LineStats counts added and removed lines with a line-mode diff
func LineStats(before, after string) Stats {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var st Stats
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if !strings.HasSuffix(d.Text, "\n") && d.Text != "" {
			n++
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			st.Added += n
		case diffmatchpatch.DiffDelete:
			st.Removed += n
		}
	}
	return st
}

// 🎨 Colorize paints a unified diff; fatih/color disables itself off a terminal
func Colorize(diff string) string {
	if diff == "" || color.NoColor {
		return diff
	}

	var b strings.Builder
	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimSuffix(line, "\n")
		nl := line[len(body):]
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			b.WriteString(color.New(color.Bold).Sprint(body))
		case strings.HasPrefix(body, "@@"):
			b.WriteString(color.CyanString("%s", body))
		case strings.HasPrefix(body, "+"):
			b.WriteString(color.GreenString("%s", body))
		case strings.HasPrefix(body, "-"):
			b.WriteString(color.RedString("%s", body))
		default:
			b.WriteString(body)
		}
		b.WriteString(nl)
	}
	return b.String()
}

// splitLines keeps line endings and marks a missing final newline like diff(1)
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if last := lines[len(lines)-1]; !strings.HasSuffix(last, "\n") {
		lines[len(lines)-1] = last + "\n\\ No newline at end of file\n"
	}
	return lines
}

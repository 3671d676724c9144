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

// Package text holds the immutable file buffer edits are applied to, plus the
// small string helpers (escape decoding, dedent/reindent) the operations share.
package text

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📄 Buffer is an immutable view of a file's text with a line index.
// Every edit returns a new Buffer; the receiver is never modified.
type Buffer struct {
	s     string
	lines []int // byte offset of the start of each line
}

// 🏭 NewBuffer indexes s
func NewBuffer(s string) Buffer {
	lines := []int{0}
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' && i+1 < len(s) {
			lines = append(lines, i+1)
		}
	}
	return Buffer{s: s, lines: lines}
}

func (b Buffer) String() string { return b.s }

func (b Buffer) Len() int { return len(b.s) }

// LineCount is the number of lines; a trailing newline does not open a new line
func (b Buffer) LineCount() int {
	if b.s == "" {
		return 0
	}
	return len(b.lines)
}

// Contains reports whether sub occurs anywhere in the buffer
func (b Buffer) Contains(sub string) bool {
	return strings.Contains(b.s, sub)
}

// Slice returns s[start:end]; out of range bounds are clamped
func (b Buffer) Slice(start, end int) string {
	start = clamp(start, 0, len(b.s))
	end = clamp(end, start, len(b.s))
	return b.s[start:end]
}

// 📏 LineStart returns the byte offset of the first byte of line row (0-based)
func (b Buffer) LineStart(row int) int {
	if row <= 0 {
		return 0
	}
	if row >= len(b.lines) {
		return len(b.s)
	}
	return b.lines[row]
}

// 📏 LineEnd returns the offset just past line row, including its newline
func (b Buffer) LineEnd(row int) int {
	if row+1 < len(b.lines) {
		return b.lines[row+1]
	}
	return len(b.s)
}

// Line returns the text of line row without its newline
func (b Buffer) Line(row int) string {
	return strings.TrimSuffix(b.Slice(b.LineStart(row), b.LineEnd(row)), "\n")
}

// 🔍 LineOf returns the row containing byte offset off
func (b Buffer) LineOf(off int) int {
	lo, hi := 0, len(b.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if b.lines[mid] <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// ✂️ ReplaceSpan returns a new buffer with [start, end) replaced by content
func (b Buffer) ReplaceSpan(start, end int, content string) (Buffer, error) {
	if start < 0 || end < start || end > len(b.s) {
		return Buffer{}, errors.Errorf("span [%d,%d) out of range for buffer of length %d", start, end, len(b.s))
	}
	return NewBuffer(b.s[:start] + content + b.s[end:]), nil
}

// ➕ Insert is ReplaceSpan with an empty span
func (b Buffer) Insert(at int, content string) (Buffer, error) {
	return b.ReplaceSpan(at, at, content)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

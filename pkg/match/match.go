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

// Package match compiles anchor patterns and enforces how many times they
// may match before an edit is allowed to act on them.
package match

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/patcherr"
)

// IndentGroup is the capture name that always wins indentation detection
const IndentGroup = "indent"

// matchTimeout bounds a single pattern evaluation against catastrophic backtracking
const matchTimeout = 5 * time.Second

// 🎯 Match is one hit of a pattern, in byte offsets of the searched text
type Match struct {
	Start  int
	End    int
	Text   string
	Indent string            // captured indentation, "" when the pattern has no whitespace group
	Groups []string          // numbered groups, Groups[0] is the whole match
	Named  map[string]string // named groups
}

// 📐 Pattern is a compiled anchor pattern
type Pattern struct {
	source string
	re     *regexp2.Regexp
}

// 🏭 Compile compiles src with Python-compatible semantics; ^ and $ match at line boundaries
func Compile(src string) (*Pattern, error) {
	re, err := regexp2.Compile(src, regexp2.Multiline)
	if err != nil {
		return nil, errors.Errorf("%w: invalid pattern %q: %s", patcherr.ErrSpecShape, src, err.Error())
	}
	re.MatchTimeout = matchTimeout
	return &Pattern{source: src, re: re}, nil
}

// MustCompile is Compile that panics, for tests and package-level patterns
func MustCompile(src string) *Pattern {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pattern) String() string { return p.source }

// 📊 CountError reports a cardinality contract violation
type CountError struct {
	Pattern string
	Want    string
	Got     int
}

func (e *CountError) Error() string {
	return "expected " + e.Want + " match for " + strconv.Quote(e.Pattern) + ", found " + strconv.Itoa(e.Got)
}

func (e *CountError) Unwrap() error { return patcherr.ErrCardinality }

// 🔍 All returns every non-overlapping match of p in s
func (p *Pattern) All(s string) ([]Match, error) {
	return p.find(s, 0, -1)
}

// 🎯 Exactly returns the single match of p in s, or a *CountError
func (p *Pattern) Exactly(s string) (Match, error) {
	// two hits are enough to know the contract is broken
	ms, err := p.find(s, 0, 2)
	if err != nil {
		return Match{}, err
	}
	if len(ms) != 1 {
		got := len(ms)
		if got > 1 {
			all, err := p.All(s)
			if err != nil {
				return Match{}, err
			}
			got = len(all)
		}
		return Match{}, &CountError{Pattern: p.source, Want: "exactly one", Got: got}
	}
	return ms[0], nil
}

// 🎯 AtMostOne returns nil for no match, the match for one, and a *CountError beyond that
func (p *Pattern) AtMostOne(s string) (*Match, error) {
	ms, err := p.All(s)
	if err != nil {
		return nil, err
	}
	switch len(ms) {
	case 0:
		return nil, nil
	case 1:
		return &ms[0], nil
	default:
		return nil, &CountError{Pattern: p.source, Want: "at most one", Got: len(ms)}
	}
}

// 🔍 FirstFrom returns the first match starting at or after byte offset from, or nil
func (p *Pattern) FirstFrom(s string, from int) (*Match, error) {
	ms, err := p.find(s, from, 1)
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, nil
	}
	return &ms[0], nil
}

func (p *Pattern) find(s string, from, limit int) ([]Match, error) {
	runes := []rune(s)
	offsets := byteOffsets(s, len(runes))

	startRune := 0
	if from > 0 {
		startRune = utf8.RuneCountInString(s[:min(from, len(s))])
	}

	var out []Match
	m, err := p.re.FindRunesMatchStartingAt(runes, startRune)
	for ; m != nil; m, err = p.re.FindNextMatch(m) {
		out = append(out, convert(m, offsets))
		if limit > 0 && len(out) >= limit {
			return out, nil
		}
	}
	if err != nil {
		return nil, errors.Errorf("evaluating pattern %q: %w", p.source, err)
	}
	return out, nil
}

// byteOffsets maps rune index to byte offset, with one extra slot for len(s)
func byteOffsets(s string, n int) []int {
	offsets := make([]int, 0, n+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	return append(offsets, len(s))
}

func convert(m *regexp2.Match, offsets []int) Match {
	out := Match{
		Start: offsets[m.Index],
		End:   offsets[m.Index+m.Length],
		Text:  m.String(),
		Named: map[string]string{},
	}

	groups := m.Groups()
	out.Groups = make([]string, 0, len(groups))
	indentFound := false
	for i, g := range groups {
		val := ""
		if len(g.Captures) > 0 {
			val = g.String()
		}
		if _, err := strconv.Atoi(g.Name); err != nil {
			out.Named[g.Name] = val
		}
		out.Groups = append(out.Groups, val)

		if g.Name == IndentGroup && len(g.Captures) > 0 {
			out.Indent = val
			indentFound = true
		}
		if !indentFound && i > 0 && out.Indent == "" && len(g.Captures) > 0 && val != "" && isIndent(val) {
			out.Indent = val
		}
	}

	return out
}

func isIndent(s string) bool {
	return strings.Trim(s, " \t") == ""
}

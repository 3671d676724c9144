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

// Package python locates Python declarations with tree-sitter.
package python

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/locate"
	"github.com/walteh/patchrc/pkg/patcherr"
	"github.com/walteh/patchrc/pkg/text"
)

// defaultIndent is one indent level, used when a body gives no hint
const defaultIndent = "    "

// 🐍 Locator implements locate.Locator for Python source
type Locator struct{}

// 🏭 New creates a Python locator
func New() *Locator {
	return &Locator{}
}

func (l *Locator) Language() string { return "python" }

func (l *Locator) Extensions() []string { return []string{".py", ".pyi", ".pyw"} }

// 🌳 Parse builds the declaration index for src. A fresh parser is used per
// call; nothing is cached between calls.
func (l *Locator) Parse(ctx context.Context, path string, src []byte) (locate.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Errorf("%w: parsing %s: %s", patcherr.ErrParse, path, err.Error())
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, errors.Errorf("%w: parsing %s: empty syntax tree", patcherr.ErrParse, path)
	}
	if root.HasError() {
		row := firstErrorRow(root)
		return nil, errors.Errorf("%w: %s has a syntax error near line %d", patcherr.ErrParse, path, row+1)
	}

	t := &pyTree{
		buf:     text.NewBuffer(string(src)),
		src:     src,
		methods: map[int][]locate.Declaration{},
	}
	t.walk(root)

	zerolog.Ctx(ctx).Debug().
		Str("path", path).
		Int("functions", len(t.functions)).
		Int("classes", len(t.classes)).
		Msg("indexed python declarations")

	return t, nil
}

// 📚 pyTree is the flattened declaration index of one parse
type pyTree struct {
	buf       text.Buffer
	src       []byte
	functions []locate.Declaration
	classes   []locate.Declaration
	methods   map[int][]locate.Declaration // class StartLine -> direct methods
}

func (t *pyTree) Functions(name string) []locate.Declaration {
	return byName(t.functions, name)
}

func (t *pyTree) Classes(name string) []locate.Declaration {
	return byName(t.classes, name)
}

func (t *pyTree) Methods(class locate.Declaration, name string) []locate.Declaration {
	return byName(t.methods[class.StartLine], name)
}

// 🚶 walk visits every node; declarations nested in any scope are indexed
func (t *pyTree) walk(n *sitter.Node) {
	switch n.Type() {
	case "function_definition":
		if d, ok := t.declaration(n, locate.KindFunction); ok {
			t.functions = append(t.functions, d)
		}
	case "class_definition":
		if d, ok := t.declaration(n, locate.KindClass); ok {
			t.classes = append(t.classes, d)
			t.methods[d.StartLine] = t.directMethods(n)
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		t.walk(n.NamedChild(i))
	}
}

// directMethods returns the functions defined in the immediate body of class
func (t *pyTree) directMethods(class *sitter.Node) []locate.Declaration {
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	var out []locate.Declaration
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		def := child
		if child.Type() == "decorated_definition" {
			def = child.ChildByFieldName("definition")
		}
		if def == nil || def.Type() != "function_definition" {
			continue
		}
		if d, ok := t.declaration(def, locate.KindFunction); ok {
			out = append(out, d)
		}
	}
	return out
}

// declaration builds the span of def, widened to cover its decorators
func (t *pyTree) declaration(def *sitter.Node, kind locate.DeclKind) (locate.Declaration, bool) {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return locate.Declaration{}, false
	}

	startRow := int(def.StartPoint().Row)
	if parent := def.Parent(); parent != nil && parent.Type() == "decorated_definition" {
		startRow = min(startRow, int(parent.StartPoint().Row))
	}

	endRow := int(def.EndPoint().Row)
	if def.EndPoint().Column == 0 && endRow > startRow {
		endRow--
	}

	d := locate.Declaration{
		Kind:      kind,
		Name:      nameNode.Content(t.src),
		StartLine: startRow,
		EndLine:   endRow,
		StartByte: t.buf.LineStart(startRow),
		EndByte:   t.buf.LineEnd(endRow),
		Indent:    text.LeadingWhitespace(t.buf.Line(startRow)),
	}

	headerRow := int(def.StartPoint().Row)
	if body := def.ChildByFieldName("body"); body != nil {
		if colon := body.PrevSibling(); colon != nil {
			headerRow = int(colon.EndPoint().Row)
		}
		d.BodyStartLine = int(body.StartPoint().Row)
		d.BodyStartByte = int(body.StartByte())
		d.InlineBody = d.BodyStartLine == headerRow
	}

	d.BodyIndent = t.bodyIndent(d, headerRow)
	return d, true
}

// bodyIndent infers indentation from the first non-blank, non-comment body line
func (t *pyTree) bodyIndent(d locate.Declaration, headerRow int) string {
	if !d.InlineBody {
		for row := headerRow + 1; row <= d.EndLine; row++ {
			line := t.buf.Line(row)
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			return text.LeadingWhitespace(line)
		}
	}
	return d.Indent + defaultIndent
}

func byName(decls []locate.Declaration, name string) []locate.Declaration {
	var out []locate.Declaration
	for _, d := range decls {
		if d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

// firstErrorRow returns the row of the first ERROR or missing node under n
func firstErrorRow(n *sitter.Node) int {
	if n.Type() == "ERROR" || n.IsMissing() {
		return int(n.StartPoint().Row)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.HasError() || child.IsMissing() {
			return firstErrorRow(child)
		}
	}
	return int(n.StartPoint().Row)
}

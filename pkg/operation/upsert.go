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

package operation

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/locate"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/patcherr"
	"github.com/walteh/patchrc/pkg/text"
)

const (
	moduleBlankLines = 2
	nestedBlankLines = 1
)

// 🌳 parse runs the structural locator for env's file over the current text
func (e *Env) parse(ctx context.Context, buf text.Buffer) (locate.Tree, error) {
	if e.Locators == nil {
		return nil, errors.Errorf("%w: no structural locators configured", patcherr.ErrSpecShape)
	}
	loc, err := e.Locators.For(e.Path, e.Language)
	if err != nil {
		return nil, errors.Errorf("%w: %s", patcherr.ErrSpecShape, err.Error())
	}
	return loc.Parse(ctx, e.Path, []byte(buf.String()))
}

// 🔄 upsertDecl replaces a module function or class by name, or inserts it
type upsertDecl struct {
	kind     string
	declKind locate.DeclKind
	name     string
	block    string
	fallback *match.Pattern
	skip     *string
}

func buildUpsertDecl(kind string, declKind locate.DeclKind) func(op config.Op) (Operation, error) {
	return func(op config.Op) (Operation, error) {
		name, err := identifier("name", op.Name, false)
		if err != nil {
			return nil, err
		}
		fallback, err := compile("fallback_anchor", op.FallbackAnchor)
		if err != nil {
			return nil, err
		}
		return &upsertDecl{
			kind:     kind,
			declKind: declKind,
			name:     name,
			block:    *op.Block,
			fallback: fallback,
			skip:     op.SkipIfContains,
		}, nil
	}
}

func (o *upsertDecl) Kind() string { return o.kind }

func (o *upsertDecl) Apply(ctx context.Context, env *Env, buf text.Buffer) (text.Buffer, error) {
	logger := zerolog.Ctx(ctx)

	if skipped(ctx, o.kind, buf, o.skip) {
		return buf, nil
	}

	tree, err := env.parse(ctx, buf)
	if err != nil {
		return buf, err
	}

	var found []locate.Declaration
	if o.declKind == locate.KindClass {
		found = tree.Classes(o.name)
	} else {
		found = tree.Functions(o.name)
	}

	switch len(found) {
	case 0:
	case 1:
		logger.Debug().Str("file", env.Path).Str(string(o.declKind), o.name).Int("line", found[0].StartLine+1).Msg("replacing declaration")
		return replaceDecl(buf, found[0], o.block)
	default:
		return buf, patcherr.Field("name", patcherr.ErrCardinality,
			"expected at most one %s named %q, found %d", o.declKind, o.name, len(found))
	}

	if o.fallback == nil {
		h := scanHeader(buf)
		logger.Debug().Str("file", env.Path).Str(string(o.declKind), o.name).Int("offset", h.end).Msg("inserting declaration after module header")
		return insertSpaced(buf, h.end, text.Reindent(o.block, ""), moduleBlankLines)
	}

	m, err := o.fallback.Exactly(buf.String())
	if err != nil {
		return buf, patcherr.WithField("fallback_anchor", err)
	}
	blank := moduleBlankLines
	if m.Indent != "" {
		blank = nestedBlankLines
	}
	return insertSpaced(buf, lineAfter(buf, m), text.Reindent(o.block, m.Indent), blank)
}

// 🔄 upsertMethod replaces or adds a method in the body of a unique class
type upsertMethod struct {
	class string
	name  string
	block string
	skip  *string
}

func buildUpsertMethod(op config.Op) (Operation, error) {
	class, err := identifier("class", op.Class, false)
	if err != nil {
		return nil, err
	}
	name, err := identifier("name", op.Name, false)
	if err != nil {
		return nil, err
	}
	return &upsertMethod{class: class, name: name, block: *op.Block, skip: op.SkipIfContains}, nil
}

func (o *upsertMethod) Kind() string { return KindUpsertMethod }

func (o *upsertMethod) Apply(ctx context.Context, env *Env, buf text.Buffer) (text.Buffer, error) {
	if skipped(ctx, KindUpsertMethod, buf, o.skip) {
		return buf, nil
	}

	tree, err := env.parse(ctx, buf)
	if err != nil {
		return buf, err
	}

	classes := tree.Classes(o.class)
	if len(classes) != 1 {
		return buf, patcherr.Field("class", patcherr.ErrCardinality,
			"expected exactly one class named %q, found %d", o.class, len(classes))
	}
	class := classes[0]

	methods := tree.Methods(class, o.name)
	switch len(methods) {
	case 0:
	case 1:
		return replaceDecl(buf, methods[0], o.block)
	default:
		return buf, patcherr.Field("name", patcherr.ErrCardinality,
			"expected at most one method %q in class %q, found %d", o.name, o.class, len(methods))
	}

	method := text.Reindent(o.block, class.BodyIndent)

	if class.InlineBody {
		return expandInlineClass(buf, class, method)
	}

	zerolog.Ctx(ctx).Debug().Str("file", env.Path).Str("class", o.class).Str("method", o.name).Msg("appending method to class body")

	ins := "\n" + method
	if class.EndByte == buf.Len() && !strings.HasSuffix(buf.String(), "\n") {
		ins = "\n" + ins
	}
	return buf.Insert(class.EndByte, ins)
}

// expandInlineClass rewrites `class A: pass` onto its own body lines, then appends method
func expandInlineClass(buf text.Buffer, class locate.Declaration, method string) (text.Buffer, error) {
	if class.BodyStartLine != class.EndLine {
		return buf, patcherr.Field("class", patcherr.ErrParse,
			"class %q has an inline body spanning several lines", class.Name)
	}

	head := strings.TrimRight(buf.Slice(class.StartByte, class.BodyStartByte), " \t")
	body := strings.TrimSpace(buf.Slice(class.BodyStartByte, class.EndByte))
	current := buf.Slice(class.StartByte, class.EndByte)

	repl := head + "\n" + class.BodyIndent + body + "\n\n" + method
	if !strings.HasSuffix(current, "\n") {
		repl = strings.TrimSuffix(repl, "\n")
	}
	return buf.ReplaceSpan(class.StartByte, class.EndByte, repl)
}

// replaceDecl swaps a declaration's full span for block re-indented to match it
func replaceDecl(buf text.Buffer, d locate.Declaration, block string) (text.Buffer, error) {
	repl := text.Reindent(block, d.Indent)
	current := buf.Slice(d.StartByte, d.EndByte)
	if !strings.HasSuffix(current, "\n") {
		repl = strings.TrimSuffix(repl, "\n")
	}
	if current == repl {
		return buf, nil
	}
	return buf.ReplaceSpan(d.StartByte, d.EndByte, repl)
}

// insertSpaced inserts blk at pos with exactly blank empty lines on each side
// that has neighbouring text.
func insertSpaced(buf text.Buffer, pos int, blk string, blank int) (text.Buffer, error) {
	s := buf.String()
	before := strings.TrimRight(s[:pos], "\n")
	after := strings.TrimLeft(s[pos:], "\n")

	var b strings.Builder
	if before != "" {
		b.WriteString(strings.Repeat("\n", blank+1))
	}
	b.WriteString(blk)
	if after != "" {
		b.WriteString(strings.Repeat("\n", blank))
	}

	return buf.ReplaceSpan(len(before), len(s)-len(after), b.String())
}

// lineAfter is the offset just past the line holding m's end
func lineAfter(buf text.Buffer, m match.Match) int {
	if m.End > m.Start && buf.Slice(m.End-1, m.End) == "\n" {
		return m.End
	}
	return buf.LineEnd(buf.LineOf(m.End))
}

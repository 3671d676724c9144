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
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/locate"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/patcherr"
	"github.com/walteh/patchrc/pkg/text"
)

// 🏷️ Operation kinds accepted in a specification
const (
	KindInsertAfter          = "insert_after"
	KindInsertBefore         = "insert_before"
	KindReplaceOnce          = "replace_once"
	KindReplaceBlock         = "replace_block"
	KindReplaceOrInsertBlock = "replace_or_insert_block"
	KindEnsureImport         = "ensure_import"
	KindUpsertDef            = "upsert_def"
	KindUpsertClass          = "upsert_class"
	KindUpsertMethod         = "upsert_method"
)

// 🎯 Operation is one typed edit. Apply never modifies buf; it returns the
// edited buffer, or buf itself when the edit is a no-op.
type Operation interface {
	Kind() string
	Apply(ctx context.Context, env *Env, buf text.Buffer) (text.Buffer, error)
}

// 🌍 Env is what an operation may know about the file it edits
type Env struct {
	Path     string
	Language string // overrides extension-based locator selection
	Locators *locate.Registry
}

// kindSpec lists the fields a kind requires and the ones it merely accepts
type kindSpec struct {
	required []string
	optional []string
	build    func(op config.Op) (Operation, error)
}

var kinds = map[string]kindSpec{
	KindInsertAfter: {
		required: []string{"anchor", "text"},
		optional: []string{"skip_if_contains"},
		build:    buildInsertAfter,
	},
	KindInsertBefore: {
		required: []string{"anchor", "text"},
		optional: []string{"skip_if_contains"},
		build:    buildInsertBefore,
	},
	KindReplaceOnce: {
		required: []string{"anchor", "replacement"},
		optional: []string{"skip_if_contains"},
		build:    buildReplaceOnce,
	},
	KindReplaceBlock: {
		required: []string{"start", "end", "block"},
		optional: []string{"include_end", "skip_if_contains"},
		build:    buildReplaceBlock,
	},
	KindReplaceOrInsertBlock: {
		required: []string{"start", "end", "block", "fallback_anchor"},
		optional: []string{"include_end", "skip_if_contains"},
		build:    buildReplaceOrInsertBlock,
	},
	KindEnsureImport: {
		required: []string{"name"},
		optional: []string{"line", "skip_if_contains"},
		build:    buildEnsureImport,
	},
	KindUpsertDef: {
		required: []string{"name", "block"},
		optional: []string{"fallback_anchor", "skip_if_contains"},
		build:    buildUpsertDecl(KindUpsertDef, locate.KindFunction),
	},
	KindUpsertClass: {
		required: []string{"name", "block"},
		optional: []string{"fallback_anchor", "skip_if_contains"},
		build:    buildUpsertDecl(KindUpsertClass, locate.KindClass),
	},
	KindUpsertMethod: {
		required: []string{"class", "name", "block"},
		optional: []string{"skip_if_contains"},
		build:    buildUpsertMethod,
	},
}

// Kinds returns every supported operation kind, sorted
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// 🏭 Build turns a raw spec operation into a typed one, checking that it
// carries exactly the fields its kind allows and that its patterns compile.
func Build(op config.Op) (Operation, error) {
	ks, ok := kinds[op.Op]
	if !ok {
		return nil, patcherr.Field("op", patcherr.ErrUnknownOperation, "%q (want one of %s)", op.Op, strings.Join(Kinds(), ", "))
	}

	set := op.Fields()
	for _, f := range set {
		if !slices.Contains(ks.required, f) && !slices.Contains(ks.optional, f) {
			return nil, patcherr.Field(f, patcherr.ErrSpecShape, "not allowed for %s", op.Op)
		}
	}
	for _, f := range ks.required {
		if !slices.Contains(set, f) {
			return nil, patcherr.Field(f, patcherr.ErrSpecShape, "required for %s", op.Op)
		}
	}
	if op.SkipIfContains != nil && *op.SkipIfContains == "" {
		return nil, patcherr.Field("skip_if_contains", patcherr.ErrSpecShape, "must not be empty")
	}

	return ks.build(op)
}

// 📚 BuildAll builds every operation of a FileEdit, stopping at the first bad one
func BuildAll(path string, ops []config.Op) ([]Operation, error) {
	out := make([]Operation, 0, len(ops))
	for i, raw := range ops {
		op, err := Build(raw)
		if err != nil {
			return nil, patcherr.Wrap(err, path, i, raw.Op)
		}
		out = append(out, op)
	}
	return out, nil
}

// compile compiles a pattern field; empty patterns match everywhere and are rejected
func compile(field string, src *string) (*match.Pattern, error) {
	if src == nil {
		return nil, nil
	}
	if *src == "" {
		return nil, patcherr.Field(field, patcherr.ErrSpecShape, "pattern must not be empty")
	}
	p, err := match.Compile(*src)
	if err != nil {
		return nil, patcherr.WithField(field, err)
	}
	return p, nil
}

// identifier checks v is a Python identifier, or a dotted path of them
func identifier(field string, v *string, dotted bool) (string, error) {
	parts := []string{*v}
	if dotted {
		parts = strings.Split(*v, ".")
	}
	for _, part := range parts {
		if !isIdent(part) {
			return "", patcherr.Field(field, patcherr.ErrSpecShape, "%q is not a valid identifier", *v)
		}
	}
	return *v, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// skipped reports whether the skip predicate already holds for buf
func skipped(ctx context.Context, kind string, buf text.Buffer, skip *string) bool {
	if skip == nil || !buf.Contains(*skip) {
		return false
	}
	zerolog.Ctx(ctx).Debug().Str("op", kind).Str("skip_if_contains", *skip).Msg("skip predicate matched, operation is a no-op")
	return true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

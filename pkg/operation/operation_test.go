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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/locate"
	"github.com/walteh/patchrc/pkg/locate/python"
	"github.com/walteh/patchrc/pkg/patcherr"
	"github.com/walteh/patchrc/pkg/text"
)

func ptr[T any](v T) *T { return &v }

func testEnv() *Env {
	return &Env{Path: "mod.py", Locators: locate.NewRegistry(python.New())}
}

// applyOp builds op and applies it once to src
func applyOp(t *testing.T, op config.Op, src string) (string, error) {
	t.Helper()
	o, err := Build(op)
	require.NoError(t, err)
	out, err := o.Apply(context.Background(), testEnv(), text.NewBuffer(src))
	return out.String(), err
}

// applyTwice applies op, then applies it again to its own output
func applyTwice(t *testing.T, op config.Op, src string) (string, string) {
	t.Helper()
	first, err := applyOp(t, op, src)
	require.NoError(t, err)
	second, err := applyOp(t, op, first)
	require.NoError(t, err)
	return first, second
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name      string
		op        config.Op
		wantClass error
		wantField string
	}{
		{
			name:      "unknown_kind",
			op:        config.Op{Op: "delete_everything"},
			wantClass: patcherr.ErrUnknownOperation,
			wantField: "op",
		},
		{
			name:      "foreign_field",
			op:        config.Op{Op: KindInsertAfter, Anchor: ptr("x"), Text: ptr("y"), Block: ptr("z")},
			wantClass: patcherr.ErrSpecShape,
			wantField: "block",
		},
		{
			name:      "missing_required_field",
			op:        config.Op{Op: KindInsertAfter, Anchor: ptr("x")},
			wantClass: patcherr.ErrSpecShape,
			wantField: "text",
		},
		{
			name:      "invalid_pattern",
			op:        config.Op{Op: KindReplaceOnce, Anchor: ptr("(unclosed"), Replacement: ptr("")},
			wantClass: patcherr.ErrSpecShape,
			wantField: "anchor",
		},
		{
			name:      "empty_pattern",
			op:        config.Op{Op: KindReplaceBlock, Start: ptr(""), End: ptr("x"), Block: ptr("")},
			wantClass: patcherr.ErrSpecShape,
			wantField: "start",
		},
		{
			name:      "empty_skip_predicate",
			op:        config.Op{Op: KindInsertBefore, Anchor: ptr("x"), Text: ptr("y"), SkipIfContains: ptr("")},
			wantClass: patcherr.ErrSpecShape,
			wantField: "skip_if_contains",
		},
		{
			name:      "invalid_identifier",
			op:        config.Op{Op: KindUpsertDef, Name: ptr("1st"), Block: ptr("def x(): pass")},
			wantClass: patcherr.ErrSpecShape,
			wantField: "name",
		},
		{
			name:      "method_needs_class",
			op:        config.Op{Op: KindUpsertMethod, Name: ptr("run"), Block: ptr("def run(self): pass")},
			wantClass: patcherr.ErrSpecShape,
			wantField: "class",
		},
		{
			name:      "fallback_required_for_replace_or_insert",
			op:        config.Op{Op: KindReplaceOrInsertBlock, Start: ptr("a"), End: ptr("b"), Block: ptr("")},
			wantClass: patcherr.ErrSpecShape,
			wantField: "fallback_anchor",
		},
		{
			name: "dotted_import_name",
			op:   config.Op{Op: KindEnsureImport, Name: ptr("os.path")},
		},
		{
			name: "include_end_is_optional",
			op:   config.Op{Op: KindReplaceBlock, Start: ptr("a"), End: ptr("b"), Block: ptr(""), IncludeEnd: ptr(false)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := Build(tt.op)
			if tt.wantClass == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.op.Op, op.Kind())
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantClass), "want %v, got %v", tt.wantClass, err)
			assert.Equal(t, tt.wantField, patcherr.FieldOf(err))
		})
	}
}

func TestBuildAllPinsIndex(t *testing.T) {
	_, err := BuildAll("app.py", []config.Op{
		{Op: KindEnsureImport, Name: ptr("os")},
		{Op: "rename_file"},
	})
	require.Error(t, err)

	var oe *patcherr.OperationError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "app.py", oe.Path)
	assert.Equal(t, 1, oe.Index)
	assert.Equal(t, "rename_file", oe.Kind)
	assert.Equal(t, "op", oe.Field)
	assert.Equal(t, "UnknownOperationError", patcherr.Class(err))
}

func TestKinds(t *testing.T) {
	assert.Equal(t, []string{
		KindEnsureImport,
		KindInsertAfter,
		KindInsertBefore,
		KindReplaceBlock,
		KindReplaceOnce,
		KindReplaceOrInsertBlock,
		KindUpsertClass,
		KindUpsertDef,
		KindUpsertMethod,
	}, Kinds())
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	ops, err := BuildAll("mod.py", []config.Op{
		{Op: KindInsertAfter, Anchor: ptr(`^# A$`), Text: ptr("a()\n")},
		{Op: KindInsertAfter, Anchor: ptr(`^# MISSING$`), Text: ptr("b()\n")},
		{Op: KindInsertAfter, Anchor: ptr(`^# A$`), Text: ptr("c()\n")},
	})
	require.NoError(t, err)

	src := text.NewBuffer("# A\n")
	out, err := Apply(context.Background(), testEnv(), src, ops)
	require.Error(t, err)
	assert.Equal(t, "# A\n", out.String(), "input returned untouched on failure")

	var oe *patcherr.OperationError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, 1, oe.Index)
	assert.Equal(t, "anchor", oe.Field)
	assert.True(t, errors.Is(err, patcherr.ErrCardinality))
	assert.Contains(t, err.Error(), `mod.py: op #1 (insert_after) field "anchor"`)
}

func TestApplySequencesOperations(t *testing.T) {
	ops, err := BuildAll("mod.py", []config.Op{
		{Op: KindInsertAfter, Anchor: ptr(`^# A$`), Text: ptr("one()\n")},
		{Op: KindInsertAfter, Anchor: ptr(`^one\(\)$`), Text: ptr("two()\n")},
	})
	require.NoError(t, err)

	out, err := Apply(context.Background(), testEnv(), text.NewBuffer("# A\n"), ops)
	require.NoError(t, err)
	assert.Equal(t, "# A\none()\ntwo()\n", out.String())
}

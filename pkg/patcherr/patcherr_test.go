package patcherr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantClass string
		wantField string
		wantMsg   string
	}{
		{
			name:      "field_error",
			err:       Field("anchor", ErrCardinality, "expected exactly one match, found %d", 3),
			wantClass: "CardinalityError",
			wantField: "anchor",
			wantMsg:   `app.py: op #2 (insert_after) field "anchor": unexpected match count: expected exactly one match, found 3`,
		},
		{
			name:      "plain_error",
			err:       errors.Errorf("%w: boom", ErrParse),
			wantClass: "ParseError",
			wantMsg:   "app.py: op #2 (insert_after): source is not structurally valid: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Wrap(tt.err, "app.py", 2, "insert_after")
			require.Error(t, err)

			var oe *OperationError
			require.True(t, errors.As(err, &oe))
			assert.Equal(t, tt.wantField, oe.Field)
			assert.Equal(t, tt.wantClass, Class(err))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestWrapKeepsExistingContext(t *testing.T) {
	inner := Wrap(Field("end", ErrDelimiterNotFound, "pattern %q", "# END"), "a.py", 0, "replace_block")
	outer := Wrap(errors.Errorf("while applying: %w", inner), "b.py", 5, "insert_after")

	var oe *OperationError
	require.True(t, errors.As(outer, &oe))
	assert.Equal(t, "a.py", oe.Path)
	assert.Equal(t, 0, oe.Index)
	assert.True(t, errors.Is(outer, ErrDelimiterNotFound))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "a.py", 0, "insert_after"))
}

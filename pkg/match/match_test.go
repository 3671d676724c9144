package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/patchrc/pkg/patcherr"
)

func TestExactly(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		content    string
		wantStart  int
		wantEnd    int
		wantIndent string
		wantGot    int
		wantError  bool
	}{
		{
			name:      "single_match",
			pattern:   `^# MARKER$`,
			content:   "a\n# MARKER\nb\n",
			wantStart: 2,
			wantEnd:   10,
		},
		{
			name:       "named_indent_group",
			pattern:    `^(?<indent>[ \t]*)return x$`,
			content:    "def f():\n    return x\n",
			wantStart:  9,
			wantEnd:    21,
			wantIndent: "    ",
		},
		{
			name:       "first_whitespace_group",
			pattern:    `^(\w+)(\s*)pass$`,
			content:    "x\tpass\n",
			wantStart:  0,
			wantEnd:    6,
			wantIndent: "\t",
		},
		{
			name:      "no_match",
			pattern:   `nothing`,
			content:   "abc",
			wantError: true,
			wantGot:   0,
		},
		{
			name:      "ambiguous",
			pattern:   `x`,
			content:   "x x x",
			wantError: true,
			wantGot:   3,
		},
		{
			name:      "multibyte_offsets_are_bytes",
			pattern:   `target`,
			content:   "é€ target",
			wantStart: 6,
			wantEnd:   12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			require.NoError(t, err)

			m, err := p.Exactly(tt.content)
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, patcherr.ErrCardinality))
				var ce *CountError
				require.True(t, errors.As(err, &ce))
				assert.Equal(t, tt.wantGot, ce.Got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, m.Start)
			assert.Equal(t, tt.wantEnd, m.End)
			assert.Equal(t, tt.content[m.Start:m.End], m.Text)
			assert.Equal(t, tt.wantIndent, m.Indent)
		})
	}
}

func TestAtMostOne(t *testing.T) {
	p := MustCompile(`^# BEGIN$`)

	m, err := p.AtMostOne("nothing here")
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = p.AtMostOne("x\n# BEGIN\n")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 2, m.Start)

	_, err = p.AtMostOne("# BEGIN\n# BEGIN\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, patcherr.ErrCardinality))
}

func TestFirstFrom(t *testing.T) {
	p := MustCompile(`END`)
	content := "END start END"

	m, err := p.FirstFrom(content, 3)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 10, m.Start)

	m, err = p.FirstFrom(content, 11)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestCompileInvalid(t *testing.T) {
	_, err := Compile(`(unclosed`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, patcherr.ErrSpecShape))
}

func TestExpand(t *testing.T) {
	p := MustCompile(`(?<key>\w+) = (?<val>\d+)`)
	m, err := p.Exactly("answer = 42")
	require.NoError(t, err)

	tests := []struct {
		name      string
		tmpl      string
		want      string
		wantError bool
	}{
		{name: "numbered", tmpl: `\2 is \1`, want: "42 is answer"},
		{name: "g_numbered", tmpl: `\g<0>!`, want: "answer = 42!"},
		{name: "g_named", tmpl: `\g<key>: int`, want: "answer: int"},
		{name: "literal_backslash", tmpl: `a\\1`, want: `a\1`},
		{name: "other_escape_kept", tmpl: `\d`, want: `\d`},
		{name: "bad_group", tmpl: `\9`, wantError: true},
		{name: "unknown_name", tmpl: `\g<nope>`, wantError: true},
		{name: "unterminated", tmpl: `\g<key`, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(m, tt.tmpl)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyIndent(t *testing.T) {
	assert.Equal(t, "    a\n    b", ApplyIndent("__INDENT__a\n__INDENT__b", "    "))
	assert.Equal(t, "unchanged", ApplyIndent("unchanged", "  "))
}

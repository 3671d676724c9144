package diff

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnified(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
		want   string
	}{
		{
			name:   "identical",
			before: "a\nb\n",
			after:  "a\nb\n",
			want:   "",
		},
		{
			name:   "single_line_change",
			before: "a\nb\nc\n",
			after:  "a\nB\nc\n",
			want:   "--- a/x.py\n+++ b/x.py\n@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n",
		},
		{
			name:   "from_empty",
			before: "",
			after:  "a\n",
			want:   "--- a/x.py\n+++ b/x.py\n@@ -0,0 +1 @@\n+a\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unified("x.py", tt.before, tt.after)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnifiedMarksMissingNewline(t *testing.T) {
	got, err := Unified("x.py", "a\n", "a")
	require.NoError(t, err)
	assert.Contains(t, got, "-a\n")
	assert.Contains(t, got, "+a\n\\ No newline at end of file\n")
}

func TestLineStats(t *testing.T) {
	tests := []struct {
		name   string
		before string
		after  string
		want   Stats
	}{
		{name: "identical", before: "a\n", after: "a\n", want: Stats{}},
		{name: "change_and_append", before: "a\nb\nc\n", after: "a\nB\nc\nd\n", want: Stats{Added: 2, Removed: 1}},
		{name: "delete_all", before: "a\nb\n", after: "", want: Stats{Removed: 2}},
		{name: "unterminated_last_line", before: "", after: "a\nb", want: Stats{Added: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LineStats(tt.before, tt.after))
		})
	}
}

func TestColorize(t *testing.T) {
	d := "--- a/x.py\n+++ b/x.py\n@@ -1 +1 @@\n-a\n+b\n"

	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })

	color.NoColor = true
	assert.Equal(t, d, Colorize(d))

	color.NoColor = false
	got := Colorize(d)
	assert.Contains(t, got, "\x1b[32m+b")
	assert.Contains(t, got, "\x1b[31m-a")
	assert.Contains(t, got, "\x1b[36m@@ -1 +1 @@")
	assert.Equal(t, 5, len(splitLines(got)), "line structure is preserved")
}

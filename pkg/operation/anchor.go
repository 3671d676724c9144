package operation

import (
	"context"
	"strings"

	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/patcherr"
	"github.com/walteh/patchrc/pkg/text"
)

// ➕ insertAfter inserts text after the line holding the anchor's end
type insertAfter struct {
	anchor *match.Pattern
	text   string
	skip   *string
}

func buildInsertAfter(op config.Op) (Operation, error) {
	anchor, err := compile("anchor", op.Anchor)
	if err != nil {
		return nil, err
	}
	return &insertAfter{anchor: anchor, text: *op.Text, skip: op.SkipIfContains}, nil
}

func (o *insertAfter) Kind() string { return KindInsertAfter }

func (o *insertAfter) Apply(ctx context.Context, env *Env, buf text.Buffer) (text.Buffer, error) {
	if skipped(ctx, KindInsertAfter, buf, o.skip) {
		return buf, nil
	}

	m, err := o.anchor.Exactly(buf.String())
	if err != nil {
		return buf, patcherr.WithField("anchor", err)
	}

	return insertAfterMatch(buf, m, match.ApplyIndent(o.text, m.Indent))
}

// insertAfterMatch places ins right after the newline ending the line that
// contains m's end. An anchor line at EOF without a newline gets one first.
func insertAfterMatch(buf text.Buffer, m match.Match, ins string) (text.Buffer, error) {
	s := buf.String()

	pos := len(s)
	switch {
	case m.End > m.Start && s[m.End-1] == '\n':
		pos = m.End
	default:
		if nl := strings.IndexByte(s[m.End:], '\n'); nl >= 0 {
			pos = m.End + nl + 1
		}
	}

	if strings.HasPrefix(s[pos:], ins) {
		return buf, nil
	}
	if pos == len(s) && s != "" && !strings.HasSuffix(s, "\n") {
		ins = "\n" + ins
	}

	return buf.Insert(pos, ins)
}

// ➕ insertBefore inserts text right before the anchor's start
type insertBefore struct {
	anchor *match.Pattern
	text   string
	skip   *string
}

func buildInsertBefore(op config.Op) (Operation, error) {
	anchor, err := compile("anchor", op.Anchor)
	if err != nil {
		return nil, err
	}
	return &insertBefore{anchor: anchor, text: *op.Text, skip: op.SkipIfContains}, nil
}

func (o *insertBefore) Kind() string { return KindInsertBefore }

func (o *insertBefore) Apply(ctx context.Context, env *Env, buf text.Buffer) (text.Buffer, error) {
	if skipped(ctx, KindInsertBefore, buf, o.skip) {
		return buf, nil
	}

	m, err := o.anchor.Exactly(buf.String())
	if err != nil {
		return buf, patcherr.WithField("anchor", err)
	}

	ins := match.ApplyIndent(o.text, m.Indent)
	if strings.HasSuffix(buf.Slice(0, m.Start), ins) {
		return buf, nil
	}
	return buf.Insert(m.Start, ins)
}

// 🔁 replaceOnce swaps the single anchor match for an expanded replacement
type replaceOnce struct {
	anchor      *match.Pattern
	replacement string
	skip        *string
}

func buildReplaceOnce(op config.Op) (Operation, error) {
	anchor, err := compile("anchor", op.Anchor)
	if err != nil {
		return nil, err
	}
	return &replaceOnce{anchor: anchor, replacement: *op.Replacement, skip: op.SkipIfContains}, nil
}

func (o *replaceOnce) Kind() string { return KindReplaceOnce }

func (o *replaceOnce) Apply(ctx context.Context, env *Env, buf text.Buffer) (text.Buffer, error) {
	if skipped(ctx, KindReplaceOnce, buf, o.skip) {
		return buf, nil
	}

	m, err := o.anchor.Exactly(buf.String())
	if err != nil {
		return buf, patcherr.WithField("anchor", err)
	}

	// indentation first: captured indentation never holds a backslash
	repl, err := match.Expand(m, match.ApplyIndent(o.replacement, m.Indent))
	if err != nil {
		return buf, patcherr.WithField("replacement", err)
	}
	if repl == m.Text {
		return buf, nil
	}
	return buf.ReplaceSpan(m.Start, m.End, repl)
}

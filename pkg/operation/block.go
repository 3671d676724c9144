package operation

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/patchrc/pkg/config"
	"github.com/walteh/patchrc/pkg/match"
	"github.com/walteh/patchrc/pkg/patcherr"
	"github.com/walteh/patchrc/pkg/text"
)

// 🧱 blockBounds is the delimiter pair shared by both block operations
type blockBounds struct {
	start      *match.Pattern
	end        *match.Pattern
	block      string
	includeEnd bool
}

func buildBounds(op config.Op) (blockBounds, error) {
	start, err := compile("start", op.Start)
	if err != nil {
		return blockBounds{}, err
	}
	end, err := compile("end", op.End)
	if err != nil {
		return blockBounds{}, err
	}
	includeEnd := true
	if op.IncludeEnd != nil {
		includeEnd = *op.IncludeEnd
	}
	return blockBounds{start: start, end: end, block: *op.Block, includeEnd: includeEnd}, nil
}

// replace swaps [start, end) for the templated block; end is searched only after start.
// A block ending in a newline also consumes the newline ending the region.
func (b blockBounds) replace(buf text.Buffer, start match.Match, end match.Match) (text.Buffer, error) {
	stop := end.Start
	if b.includeEnd {
		stop = end.End
	}

	blk := match.ApplyIndent(b.block, start.Indent)
	if strings.HasSuffix(blk, "\n") && buf.Slice(stop, stop+1) == "\n" && !strings.HasSuffix(buf.Slice(start.Start, stop), "\n") {
		stop++
	}
	if buf.Slice(start.Start, stop) == blk {
		return buf, nil
	}
	return buf.ReplaceSpan(start.Start, stop, blk)
}

func (b blockBounds) findEnd(buf text.Buffer, start match.Match) (*match.Match, error) {
	end, err := b.end.FirstFrom(buf.String(), start.End)
	if err != nil {
		return nil, patcherr.WithField("end", err)
	}
	return end, nil
}

// 🔁 replaceBlock replaces a delimited region whose start matches exactly once
type replaceBlock struct {
	blockBounds
	skip *string
}

func buildReplaceBlock(op config.Op) (Operation, error) {
	bounds, err := buildBounds(op)
	if err != nil {
		return nil, err
	}
	return &replaceBlock{blockBounds: bounds, skip: op.SkipIfContains}, nil
}

func (o *replaceBlock) Kind() string { return KindReplaceBlock }

func (o *replaceBlock) Apply(ctx context.Context, env *Env, buf text.Buffer) (text.Buffer, error) {
	if skipped(ctx, KindReplaceBlock, buf, o.skip) {
		return buf, nil
	}

	start, err := o.start.Exactly(buf.String())
	if err != nil {
		return buf, patcherr.WithField("start", err)
	}

	end, err := o.findEnd(buf, start)
	if err != nil {
		return buf, err
	}
	if end == nil {
		return buf, patcherr.Field("end", patcherr.ErrDelimiterNotFound,
			"pattern %q not found after start at line %d", o.end.String(), buf.LineOf(start.Start)+1)
	}

	return o.replace(buf, start, *end)
}

// 🔁 replaceOrInsertBlock upgrades a block when present and inserts it at a fallback anchor when not
type replaceOrInsertBlock struct {
	blockBounds
	fallback *match.Pattern
	skip     *string
}

func buildReplaceOrInsertBlock(op config.Op) (Operation, error) {
	bounds, err := buildBounds(op)
	if err != nil {
		return nil, err
	}
	fallback, err := compile("fallback_anchor", op.FallbackAnchor)
	if err != nil {
		return nil, err
	}
	return &replaceOrInsertBlock{blockBounds: bounds, fallback: fallback, skip: op.SkipIfContains}, nil
}

func (o *replaceOrInsertBlock) Kind() string { return KindReplaceOrInsertBlock }

func (o *replaceOrInsertBlock) Apply(ctx context.Context, env *Env, buf text.Buffer) (text.Buffer, error) {
	logger := zerolog.Ctx(ctx)

	if skipped(ctx, KindReplaceOrInsertBlock, buf, o.skip) {
		return buf, nil
	}

	start, err := o.start.AtMostOne(buf.String())
	if err != nil {
		return buf, patcherr.WithField("start", err)
	}

	if start != nil {
		end, err := o.findEnd(buf, *start)
		if err != nil {
			return buf, err
		}
		if end != nil {
			return o.replace(buf, *start, *end)
		}
		// the start exists without its end; the fallback insert may duplicate it
		logger.Warn().
			Str("file", env.Path).
			Int("line", buf.LineOf(start.Start)+1).
			Str("end", o.end.String()).
			Msg("block start found without an end delimiter, inserting at fallback anchor")
	}

	fb, err := o.fallback.Exactly(buf.String())
	if err != nil {
		return buf, patcherr.WithField("fallback_anchor", err)
	}
	blk := match.ApplyIndent(o.block, fb.Indent)
	if !strings.HasSuffix(blk, "\n") {
		blk += "\n"
	}
	return insertAfterMatch(buf, fb, blk)
}

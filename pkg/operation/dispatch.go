package operation

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/walteh/patchrc/pkg/patcherr"
	"github.com/walteh/patchrc/pkg/text"
)

// 🎬 Apply runs ops in order against buf, each seeing the previous result.
// The first failure stops the sequence and comes back as a
// *patcherr.OperationError; buf is returned unchanged with it.
func Apply(ctx context.Context, env *Env, buf text.Buffer, ops []Operation) (text.Buffer, error) {
	logger := zerolog.Ctx(ctx)

	cur := buf
	for i, op := range ops {
		next, err := op.Apply(ctx, env, cur)
		if err != nil {
			return buf, patcherr.Wrap(err, env.Path, i, op.Kind())
		}
		logger.Debug().
			Str("file", env.Path).
			Int("index", i).
			Str("op", op.Kind()).
			Bool("changed", next.String() != cur.String()).
			Msg("applied operation")
		cur = next
	}
	return cur, nil
}

package game

import (
	"context"
	"errors"

	"github.com/veszto/darkcity/darkcity/database/repositories"
)

const maxConflictRetries = 3

// RetryConflict runs fn until it returns something other than the repository
// version-conflict sentinel, up to a small fixed number of attempts. Each
// retry is expected to re-read state inside fn.
func RetryConflict(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = fn(ctx)
		if !errors.Is(err, repositories.ErrConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return Conflict("too many concurrent updates, try again")
}

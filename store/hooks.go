package store

import (
	"context"
	"time"

	"github.com/hazelset/nestedset/pkg/log"
)

type queryTimerKey struct{}

// hooks satisfies sqlhooks.Hooks. It logs every statement and its elapsed
// time at debug level; nothing here ever swallows an error or changes
// control flow, it only observes.
type hooks struct{}

func (hooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("SQL query %s %q", query, args)
	return context.WithValue(ctx, queryTimerKey{}, time.Now()), nil
}

func (hooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	if begin, ok := ctx.Value(queryTimerKey{}).(time.Time); ok {
		log.Debugf("SQL query took %s", time.Since(begin))
	}
	return ctx, nil
}

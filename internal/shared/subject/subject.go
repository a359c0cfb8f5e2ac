// Package subject carries the authenticated principal through a request.
package subject

import (
	"context"

	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
)

type ctxKey struct{}

// Subject is produced only by a successful authentication run.
type Subject struct {
	Username  string
	Clearance blp.Level
}

// Set returns a copy of ctx carrying s.
func Set(ctx context.Context, s Subject) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Get returns the subject stored in ctx, if any.
func Get(ctx context.Context) (Subject, bool) {
	s, ok := ctx.Value(ctxKey{}).(Subject)
	return s, ok
}

// Package auth carries the household a request was resolved to and the
// person acting on it.
package auth

import "context"

type contextKey struct{}

type HouseholdContext struct {
	HouseholdID int64
	Code        string
	Actor       string
}

func WithHousehold(ctx context.Context, hc HouseholdContext) context.Context {
	return context.WithValue(ctx, contextKey{}, hc)
}

func FromContext(ctx context.Context) (HouseholdContext, bool) {
	hc, ok := ctx.Value(contextKey{}).(HouseholdContext)
	return hc, ok
}

func HouseholdID(ctx context.Context) int64 {
	hc, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return hc.HouseholdID
}

func Code(ctx context.Context) string {
	hc, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return hc.Code
}

// Actor names whoever made the request, for instance edit history. Empty when
// the client did not say.
func Actor(ctx context.Context) string {
	hc, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return hc.Actor
}

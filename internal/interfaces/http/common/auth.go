package common

import "context"

type contextKey string

const creatorContextKey contextKey = "creator"

// Creator is the principal behind an authenticated creator request.
type Creator struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	// Alias is the creator's public name, taken from the preferred_username claim.
	Alias string `json:"alias,omitempty"`
}

// ContextWithCreator stores the authenticated creator into context.
func ContextWithCreator(ctx context.Context, creator Creator) context.Context {
	return context.WithValue(ctx, creatorContextKey, creator)
}

// CreatorFromContext extracts the authenticated creator from context.
func CreatorFromContext(ctx context.Context) (Creator, bool) {
	creator, ok := ctx.Value(creatorContextKey).(Creator)
	return creator, ok
}

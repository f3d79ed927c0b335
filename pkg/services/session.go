package services

import "context"

type sessionKey struct{}

// WithSession tags ctx with the editing session that issued a write. The
// session id travels as the origin of the resulting invalidation so the
// issuing editor can ignore its own echo.
func WithSession(ctx context.Context, sessionID string) context.Context {
	if sessionID == "" {
		return ctx
	}

	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFrom returns the session id set by WithSession, or "".
func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)

	return id
}

package gateway

import "context"

type tokenKey struct{}

// WithToken returns a context carrying the caller's bearer token. Requests
// made with that context run under the caller's gateway identity; without a
// token the client falls back to the service API key.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom extracts the bearer token from ctx, if any.
func TokenFrom(ctx context.Context) string {
	if t, ok := ctx.Value(tokenKey{}).(string); ok {
		return t
	}
	return ""
}

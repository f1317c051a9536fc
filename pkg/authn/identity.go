// Package authn resolves the acting user for a request. The core stores
// never read ambient identity; every operation receives an explicit Actor
// resolved here before invocation.
package authn

import (
	"context"
	"net/http"
)

// Actor is the resolved identity of the caller: a stable user id and the
// caller's global role. Either field may be empty when the deployment does
// not supply it; authorization checks treat empty as "no match".
type Actor struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type contextKey struct{}

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// FromContext returns the actor resolved for this request, or a zero Actor
// if none was set.
func FromContext(ctx context.Context) Actor {
	if actor, ok := ctx.Value(contextKey{}).(Actor); ok {
		return actor
	}
	return Actor{}
}

// Extractor resolves an Actor from an incoming request.
type Extractor func(r *http.Request) Actor

// HeaderExtractor reads identity from the X-User-Id and X-User-Role
// headers. Suitable behind a trusted proxy that authenticates upstream.
func HeaderExtractor() Extractor {
	return func(r *http.Request) Actor {
		return Actor{
			UserID: r.Header.Get("X-User-Id"),
			Role:   r.Header.Get("X-User-Role"),
		}
	}
}

// Middleware resolves the actor with the given extractor and stores it on
// the request context.
func Middleware(extract Extractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := extract(r)
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

package authn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestActorContext(t *testing.T) {
	ctx := context.Background()

	// Missing actor yields the zero value.
	if got := FromContext(ctx); got != (Actor{}) {
		t.Errorf("FromContext(empty) = %+v, want zero", got)
	}

	actor := Actor{UserID: "alice", Role: "admin"}
	got := FromContext(WithActor(ctx, actor))
	if got != actor {
		t.Errorf("FromContext() = %+v, want %+v", got, actor)
	}
}

func TestHeaderExtractor(t *testing.T) {
	extract := HeaderExtractor()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-User-Id", "alice")
	req.Header.Set("X-User-Role", "lead")

	actor := extract(req)
	if actor.UserID != "alice" || actor.Role != "lead" {
		t.Errorf("extract() = %+v, want alice/lead", actor)
	}

	// Missing headers yield a zero actor.
	if actor := extract(httptest.NewRequest("GET", "/", nil)); actor != (Actor{}) {
		t.Errorf("extract(no headers) = %+v, want zero", actor)
	}
}

func TestMiddleware(t *testing.T) {
	var seen Actor
	handler := Middleware(HeaderExtractor())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-User-Id", "bob")
	req.Header.Set("X-User-Role", "head")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen.UserID != "bob" || seen.Role != "head" {
		t.Errorf("actor on context = %+v, want bob/head", seen)
	}
}

package cache

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestReadMiddleware(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T)
	}{
		{"GETCachedOnSecondCall", testGETCachedOnSecondCall},
		{"MutatingMethodsNotCached", testMutatingMethodsNotCached},
		{"Non200NotCached", testNon200NotCached},
		{"DifferentURLsCachedSeparately", testDifferentURLsCachedSeparately},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.fn)
	}
}

func testGETCachedOnSecondCall(t *testing.T) {
	callCount := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"logicalKey":"asset-001","version":1}`))
	})

	c := NewLRU(10, 5*time.Second)
	wrapped := ReadMiddleware(c)(handler)

	req1 := httptest.NewRequest(http.MethodGet, "/api/v1/assets/asset-001", nil)
	rec1 := httptest.NewRecorder()
	wrapped.ServeHTTP(rec1, req1)

	if callCount != 1 {
		t.Fatalf("expected handler called once, got %d", callCount)
	}
	if rec1.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("expected X-Cache: MISS, got %q", rec1.Header().Get("X-Cache"))
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/assets/asset-001", nil)
	rec2 := httptest.NewRecorder()
	wrapped.ServeHTTP(rec2, req2)

	if callCount != 1 {
		t.Fatalf("expected handler not called again, got %d", callCount)
	}
	if rec2.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("expected X-Cache: HIT, got %q", rec2.Header().Get("X-Cache"))
	}

	body, _ := io.ReadAll(rec2.Result().Body)
	if string(body) != `{"logicalKey":"asset-001","version":1}` {
		t.Fatalf("unexpected cached body %q", string(body))
	}
}

func testMutatingMethodsNotCached(t *testing.T) {
	callCount := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`ok`))
	})

	c := NewLRU(10, 5*time.Second)
	wrapped := ReadMiddleware(c)(handler)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/api/v1/assets", nil)
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)

		if rec.Header().Get("X-Cache") != "" {
			t.Fatalf("expected no X-Cache header on %s, got %q", method, rec.Header().Get("X-Cache"))
		}
	}

	if c.Size() != 0 {
		t.Fatalf("expected cache size 0 after writes, got %d", c.Size())
	}
	if callCount != 3 {
		t.Fatalf("expected handler called 3 times, got %d", callCount)
	}
}

func testNon200NotCached(t *testing.T) {
	callCount := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`not found`))
	})

	c := NewLRU(10, 5*time.Second)
	wrapped := ReadMiddleware(c)(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assets/ghost", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if c.Size() != 0 {
		t.Fatalf("expected cache size 0 for non-200, got %d", c.Size())
	}

	// Second request still reaches the handler.
	rec2 := httptest.NewRecorder()
	wrapped.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/api/v1/assets/ghost", nil))
	if callCount != 2 {
		t.Fatalf("expected handler called twice, got %d", callCount)
	}
}

func testDifferentURLsCachedSeparately(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(r.URL.Path))
	})

	c := NewLRU(10, 5*time.Second)
	wrapped := ReadMiddleware(c)(handler)

	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/assets/a", nil))
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/assets/b", nil))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/assets/a", nil))

	body, _ := io.ReadAll(rec.Result().Body)
	if string(body) != "/api/v1/assets/a" {
		t.Fatalf("unexpected cached body %q", string(body))
	}
	if c.Size() != 2 {
		t.Fatalf("expected 2 cached entries, got %d", c.Size())
	}
}

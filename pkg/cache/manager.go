package cache

import (
	"net/http"
	"strings"
)

// Manager owns the read cache for the asset endpoints and provides the
// paired middlewares: one serving cached GETs, one dropping stale entries
// after successful writes. Version-pinned snapshot reads are immutable and
// stay cached until TTL; latest, history, and changes views are dropped
// whenever their logical key is written.
type Manager struct {
	reads  *LRU
	prefix string
}

// NewManager creates a Manager from the given configuration. If cfg is nil
// or disabled, it returns nil; a nil Manager is safe to use and disables
// caching.
func NewManager(cfg *Config) *Manager {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	return &Manager{
		reads:  NewLRU(cfg.MaxSize, cfg.TTL),
		prefix: "/api/v1/assets",
	}
}

// InvalidateAsset drops the mutable cached views of one logical key.
func (m *Manager) InvalidateAsset(logicalKey string) {
	if m == nil {
		return
	}
	base := m.prefix + "/" + logicalKey
	m.reads.Invalidate(base)
	m.reads.Invalidate(base + "/history")
	m.reads.Invalidate(base + "/changes")
}

// InvalidateAll clears the whole read cache.
func (m *Manager) InvalidateAll() {
	if m == nil {
		return
	}
	m.reads.InvalidateAll()
}

// ReadMiddleware serves asset GETs from the cache. On a nil Manager it is a
// passthrough.
func (m *Manager) ReadMiddleware() func(http.Handler) http.Handler {
	if m == nil {
		return passthrough
	}
	return ReadMiddleware(m.reads)
}

// WriteInvalidationMiddleware drops cached views after a successful
// mutating request. A write to one logical key invalidates that key's
// views; a create on the collection clears the cache entirely.
func (m *Manager) WriteInvalidationMiddleware() func(http.Handler) http.Handler {
	if m == nil {
		return passthrough
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			crw := &cacheResponseWriter{ResponseWriter: w}
			next.ServeHTTP(crw, r)

			if crw.statusCode < 200 || crw.statusCode >= 300 {
				return
			}
			if key := m.logicalKeyFromPath(r.URL.Path); key != "" {
				m.InvalidateAsset(key)
			} else {
				m.InvalidateAll()
			}
		})
	}
}

// logicalKeyFromPath extracts the logical key from an asset path such as
// /api/v1/assets/{logicalKey}/history. Returns "" for collection paths.
func (m *Manager) logicalKeyFromPath(path string) string {
	rest := strings.TrimPrefix(path, m.prefix)
	if rest == path {
		return ""
	}
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return ""
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

func passthrough(next http.Handler) http.Handler {
	return next
}

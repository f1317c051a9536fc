package audit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/solaius/asset-registry/pkg/authn"
)

// responseCapture wraps http.ResponseWriter to capture the status code.
type responseCapture struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rc *responseCapture) WriteHeader(code int) {
	if !rc.written {
		rc.statusCode = code
		rc.written = true
	}
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.written {
		rc.statusCode = http.StatusOK
		rc.written = true
	}
	return rc.ResponseWriter.Write(b)
}

// Middleware creates middleware that records an audit event for every
// mutating request. It wraps the ResponseWriter to capture the status code,
// then appends an EventRecord after the handler completes. Domain-level
// events (approval sign/revoke, asset writes) are emitted separately by the
// handlers; this trail captures the HTTP surface, including failures.
func Middleware(store *Store, cfg *Config, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg == nil || !cfg.Enabled || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !isAuditedEndpoint(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			startTime := time.Now()

			capture := &responseCapture{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(capture, r)

			outcome := outcomeFromStatus(capture.statusCode)
			if outcome == OutcomeDenied && !cfg.LogDenied {
				return
			}

			actor := authn.FromContext(r.Context())
			actorID := actor.UserID
			if actorID == "" {
				actorID = "anonymous"
			}

			subjectType, subjectKey := extractSubject(r.URL.Path)
			if subjectType == "" {
				subjectType = "http"
				subjectKey = r.URL.Path
			}

			event := &EventRecord{
				EventType:   "http",
				Actor:       actorID,
				SubjectType: subjectType,
				SubjectKey:  subjectKey,
				Action:      extractActionVerb(r.Method, r.URL.Path),
				Outcome:     outcome,
				NewValue: JSONValues{
					"method":     r.Method,
					"path":       r.URL.Path,
					"statusCode": capture.statusCode,
					"duration":   time.Since(startTime).String(),
					"requestId":  middleware.GetReqID(r.Context()),
				},
			}

			// Best-effort write: don't fail the request if audit write fails.
			if err := store.Append(event); err != nil {
				logger.Error("failed to write audit event", "error", err, "path", r.URL.Path)
			}
		})
	}
}

// outcomeFromStatus maps HTTP status codes to audit outcomes.
func outcomeFromStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return OutcomeSuccess
	case code == http.StatusForbidden:
		return OutcomeDenied
	default:
		return OutcomeFailure
	}
}

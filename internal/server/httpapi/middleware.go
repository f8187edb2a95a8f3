package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/logging"
	"github.com/dmitrijs2005/messagely/internal/server/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type ctxKey string

const userNameKey ctxKey = "username"

const maxBodyBytes = 1 << 20

// UserNameFromContext returns the authenticated caller, if any.
func UserNameFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userNameKey).(string)
	return v, ok && v != ""
}

func withUserName(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userNameKey, username)
}

// requestLogger logs one line per request. Requests without a chi request id
// get a random one so log lines can still be correlated.
func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			reqID := middleware.GetReqID(r.Context())
			if reqID == "" {
				reqID = uuid.NewString()
			}

			next.ServeHTTP(ww, r)

			logger.Info(r.Context(), "http request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

// tokenFromRequest looks for a token in the Authorization header, then in a
// _token query parameter, then in a _token field of a JSON body. The body is
// restored for the next handler.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get(common.AuthorizationHeaderName); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}

	if t := r.URL.Query().Get(common.TokenFieldName); t != "" {
		return t
	}

	if r.Body == nil || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil || len(data) == 0 {
		return ""
	}

	var carrier map[string]json.RawMessage
	if json.Unmarshal(data, &carrier) != nil {
		return ""
	}
	var t string
	if raw, ok := carrier[common.TokenFieldName]; ok && json.Unmarshal(raw, &t) == nil {
		return t
	}
	return ""
}

// RequireAuth rejects requests without a valid token and stores the caller's
// username in the request context.
func RequireAuth(secret []byte, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				writeError(r.Context(), w, logger, common.ErrorUnauthorized)
				return
			}

			username, err := auth.GetUsernameFromToken(token, secret)
			if err != nil {
				writeError(r.Context(), w, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withUserName(r.Context(), username)))
		})
	}
}

// RequireSameUser only lets the caller through when the {username} path
// parameter names the caller. Must run after RequireAuth.
func RequireSameUser(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := UserNameFromContext(r.Context())
			if !ok || caller != chi.URLParam(r, "username") {
				writeError(r.Context(), w, logger, common.ErrorUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

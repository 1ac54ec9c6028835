package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"tailscale.com/client/tailscale/apitype"
)

type contextKey int

const (
	userIDKey contextKey = iota
	userInfoKey
)

// UserInfo is the identity a request acts as.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

// WhoIser resolves a tailnet peer address to its owner. The tsnet local
// client satisfies it.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// UserStore maps a login to a stable user id.
type UserStore interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
}

// UserID returns the user id resolved by the identity middleware.
func UserID(r *http.Request) (int, bool) {
	id, ok := r.Context().Value(userIDKey).(int)
	return id, ok
}

func userInfoFromContext(r *http.Request) UserInfo {
	if info, ok := r.Context().Value(userInfoKey).(UserInfo); ok {
		return info
	}
	return UserInfo{}
}

func withIdentity(r *http.Request, id int, info UserInfo) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, id)
	ctx = context.WithValue(ctx, userInfoKey, info)
	return r.WithContext(ctx)
}

// mustUserID writes 401 and returns false when no identity was resolved.
func mustUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := UserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthenticated", Message: "no user identity"})
	}
	return id, ok
}

// identity picks Tailscale identity when a client is configured and the
// dev user otherwise. The choice is made per request since SetTailscale
// runs after routing is built.
func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(s.db, s.devUser, s.log)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois != nil {
			TailscaleIdentity(s.whois, s.db, s.log)(next).ServeHTTP(w, r)
			return
		}
		dev.ServeHTTP(w, r)
	})
}

// TailscaleIdentity returns middleware that resolves the calling tailnet
// user and stores their user id in the request context. Tagged nodes carry
// no user and are rejected.
func TailscaleIdentity(whois WhoIser, users UserStore, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, err := whois.WhoIs(r.Context(), r.RemoteAddr)
			if err != nil {
				log.Warn("tailscale whois failed", "remote", r.RemoteAddr, "error", err)
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthenticated", Message: "unknown tailnet peer"})
				return
			}
			if who.UserProfile == nil || who.UserProfile.LoginName == "" || (who.Node != nil && who.Node.IsTagged()) {
				writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden", Message: "tagged nodes cannot act as a user"})
				return
			}
			info := UserInfo{Login: who.UserProfile.LoginName, DisplayName: who.UserProfile.DisplayName}
			id, err := users.GetOrCreateUser(r.Context(), info.Login, info.DisplayName)
			if err != nil {
				log.Error("resolving tailnet user", "login", info.Login, "error", err)
				writeError(w, log, err)
				return
			}
			next.ServeHTTP(w, withIdentity(r, id, info))
		})
	}
}

// DevIdentity returns middleware that makes every request act as login,
// for local development without Tailscale.
func DevIdentity(users UserStore, login string, log *slog.Logger) func(http.Handler) http.Handler {
	info := UserInfo{Login: login, DisplayName: "Local Dev User"}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := users.GetOrCreateUser(r.Context(), info.Login, info.DisplayName)
			if err != nil {
				log.Error("resolving dev user", "login", info.Login, "error", err)
				writeError(w, log, err)
				return
			}
			next.ServeHTTP(w, withIdentity(r, id, info))
		})
	}
}

// APIKeyAuth returns middleware that validates the X-API-Key header. An
// empty configured key rejects every request.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthenticated", Message: "missing API key"})
				return
			}
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden", Message: "invalid API key"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Export-Name")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush lets streamed MCP responses through.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

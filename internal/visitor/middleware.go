package visitor

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const CookieName = "gpa_visitor"

type contextKey string

const visitorIDKey = contextKey("visitorID")

// Middleware resolves the visitor from the cookie or a bearer token and
// issues a new identity when neither holds a valid one.
func Middleware(issuer *Issuer, logger log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tokenStr := tokenFromRequest(r); tokenStr != "" {
			claims, err := issuer.Parse(tokenStr)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), claims.VisitorID)))
				return
			}
			level.Debug(logger).Log("msg", "discarding visitor token", "err", err)
		}

		id, token, err := issuer.NewVisitor()
		if err != nil {
			level.Error(logger).Log("msg", "failed to issue visitor token", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    token,
			Path:     "/",
			Expires:  issuer.now().Add(issuer.ttl),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		w.Header().Set("X-Visitor-Token", token)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
	})
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func NewContext(ctx context.Context, visitorID string) context.Context {
	return context.WithValue(ctx, visitorIDKey, visitorID)
}

func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(visitorIDKey).(string)
	return id, ok && id != ""
}

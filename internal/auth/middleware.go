package auth

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const ctxKeySubject ctxKey = "rate-router.subject"

// Subject returns the validated token subject from the request context, if any.
func Subject(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeySubject).(string); ok {
		return s
	}
	return ""
}

// RequireToken guards the analytics routes with HS256 bearer validation.
// Token issuance lives in the surrounding platform; this service only
// verifies. An empty secret disables the guard (dev mode). The webhook
// endpoint is never behind this: the platform's ack SLA comes first.
func RequireToken(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil {
				log.Printf("[auth] token rejected: %v", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			sub, _ := claims.GetSubject()
			ctx := context.WithValue(r.Context(), ctxKeySubject, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[7:])
}

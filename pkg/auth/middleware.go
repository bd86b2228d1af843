package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/GlebRadaev/dogefaucet/pkg/utils"
)

type ContextKey string

const CallerKey ContextKey = "caller"

// Caller is the authenticated user behind a request.
type Caller struct {
	ID      uuid.UUID
	IsAdmin bool
}

func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(Caller)
	return caller, ok
}

type Middleware struct {
	jwt JWTServiceInterface
}

func NewMiddleware(jwt JWTServiceInterface) *Middleware {
	return &Middleware{jwt: jwt}
}

func (m *Middleware) caller(r *http.Request) (Caller, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return Caller{}, false
	}
	claims, err := m.jwt.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return Caller{}, false
	}
	return Caller{ID: claims.UserID, IsAdmin: claims.IsAdmin}, true
}

// Required rejects requests without a valid bearer token.
func (m *Middleware) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := m.caller(r)
		if !ok {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// Optional attaches the caller when a valid token is present and lets
// anonymous requests through.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if caller, ok := m.caller(r); ok {
			r = r.WithContext(WithCaller(r.Context(), caller))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) AdminOnly(next http.Handler) http.Handler {
	return m.Required(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, _ := CallerFromContext(r.Context())
		if !caller.IsAdmin {
			utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

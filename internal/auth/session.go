// Package auth validates the session tokens issued by the sign-in service.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	applog "finsight/internal/log"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "session"

var (
	ErrNoSession     = errors.New("no session token")
	ErrNotConfigured = errors.New("session secret not configured")
	ErrNotAllowed    = errors.New("email not allowed")
)

type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type contextKey struct{}

// Sessions validates HS256 session tokens and optionally restricts them to a
// set of email addresses.
type Sessions struct {
	secret  []byte
	issuer  string
	allowed map[string]struct{}
}

// NewSessions builds a validator. An empty allow list admits any email.
func NewSessions(secret, issuer string, allowedEmails []string) *Sessions {
	s := &Sessions{
		secret:  []byte(secret),
		issuer:  issuer,
		allowed: make(map[string]struct{}, len(allowedEmails)),
	}
	for _, e := range allowedEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			s.allowed[e] = struct{}{}
		}
	}
	return s
}

// Issue signs a session for email valid for ttl.
func (s *Sessions) Issue(email string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNotConfigured
	}
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates a token string and its email against the allow list.
func (s *Sessions) Parse(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrNotConfigured
	}
	if tokenString == "" {
		return nil, ErrNoSession
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired()}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	claims := &Claims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if len(s.allowed) > 0 {
		if _, ok := s.allowed[strings.ToLower(claims.Email)]; !ok {
			return nil, ErrNotAllowed
		}
	}
	return claims, nil
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Middleware rejects requests without a valid session with 401 before any
// handler work happens.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.Parse(TokenFromRequest(r))
		if err != nil {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).
				DebugContext(r.Context(), "Session rejected", applog.FieldError, err)
			Unauthorized(w)
			return
		}
		ctx := context.WithValue(r.Context(), contextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Unauthorized writes the 401 body shared by every protected endpoint.
func Unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}

// FromContext returns the claims stored by Middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(*Claims)
	return c, ok
}

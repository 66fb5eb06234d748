package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSessions_Parse(t *testing.T) {
	s := NewSessions("secret", "finsight", []string{" Me@Example.com "})

	valid, err := s.Issue("me@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	stranger, _ := s.Issue("other@example.com", time.Hour)
	expired, _ := s.Issue("me@example.com", -time.Minute)
	foreign, _ := NewSessions("secret", "someone-else", nil).Issue("me@example.com", time.Hour)
	forged, _ := NewSessions("wrong", "finsight", nil).Issue("me@example.com", time.Hour)

	tests := []struct {
		name    string
		token   string
		wantErr bool
		is      error
	}{
		{"valid", valid, false, nil},
		{"empty", "", true, ErrNoSession},
		{"not allowed", stranger, true, ErrNotAllowed},
		{"expired", expired, true, jwt.ErrTokenExpired},
		{"wrong issuer", foreign, true, jwt.ErrTokenInvalidIssuer},
		{"wrong secret", forged, true, jwt.ErrTokenSignatureInvalid},
		{"garbage", "abc.def.ghi", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := s.Parse(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("err = %v, want %v", err, tt.is)
			}
			if !tt.wantErr && claims.Email != "me@example.com" {
				t.Errorf("email = %q", claims.Email)
			}
		})
	}
}

func TestSessions_NotConfigured(t *testing.T) {
	s := NewSessions("", "", nil)
	if _, err := s.Parse("anything"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
	if _, err := s.Issue("me@example.com", time.Hour); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestMiddleware(t *testing.T) {
	s := NewSessions("secret", "", nil)
	token, _ := s.Issue("me@example.com", time.Hour)

	var gotEmail string
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := FromContext(r.Context())
		gotEmail = c.Email
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/budget", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent || gotEmail != "me@example.com" {
			t.Errorf("code = %d, email = %q", rec.Code, gotEmail)
		}
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/budget", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("code = %d", rec.Code)
		}
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/budget", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("code = %d, want 401", rec.Code)
		}
		if body := strings.TrimSpace(rec.Body.String()); body != `{"error":"Unauthorized"}` {
			t.Errorf("body = %s", body)
		}
	})
}

package security

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newExchangerFixture(t *testing.T, tokenStatus int, userinfo map[string]any) *HTTPOAuthExchanger {
	t.Helper()

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("token endpoint hit with %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			t.Errorf("unexpected grant_type %q", r.PostForm.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(tokenStatus)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(tokenSrv.Close)

	userSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer access-123" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userinfo)
	}))
	t.Cleanup(userSrv.Close)

	return NewHTTPOAuthExchanger(OAuthExchangerConfig{
		Provider:     "google",
		TokenURL:     tokenSrv.URL,
		UserInfoURL:  userSrv.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://app.test/auth/oauth/callback",
	})
}

func TestOAuthExchangeReturnsProfile(t *testing.T) {
	t.Parallel()

	exchanger := newExchangerFixture(t, http.StatusOK, map[string]any{
		"sub":            "subject-1",
		"email":          "User@Example.COM",
		"email_verified": true,
	})

	profile, err := exchanger.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if profile.Provider != "google" || profile.Subject != "subject-1" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if profile.Email != "user@example.com" {
		t.Fatalf("expected normalized email, got %q", profile.Email)
	}
	if !profile.EmailVerified {
		t.Fatalf("expected verified email")
	}
}

func TestOAuthExchangeRejectsEmptyCode(t *testing.T) {
	t.Parallel()

	exchanger := NewHTTPOAuthExchanger(OAuthExchangerConfig{})
	if _, err := exchanger.Exchange(context.Background(), "  "); err == nil {
		t.Fatalf("expected empty code rejected")
	}
}

func TestOAuthExchangeTokenEndpointFailure(t *testing.T) {
	t.Parallel()

	exchanger := newExchangerFixture(t, http.StatusBadRequest, nil)
	if _, err := exchanger.Exchange(context.Background(), "bad-code"); err == nil {
		t.Fatalf("expected token endpoint failure surfaced")
	}
}

func TestOAuthExchangeMissingSubject(t *testing.T) {
	t.Parallel()

	exchanger := newExchangerFixture(t, http.StatusOK, map[string]any{
		"email": "nobody@example.com",
	})
	if _, err := exchanger.Exchange(context.Background(), "auth-code"); err == nil {
		t.Fatalf("expected missing subject rejected")
	}
}

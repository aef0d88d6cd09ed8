package security

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/venuescout/auth-service/internal/ports"
)

// OAuthExchangerConfig holds the generic code-exchange endpoints. Provider
// quirks beyond "exchange code, fetch profile" are out of scope; anything
// fancier belongs in a dedicated implementation of ports.OAuthExchanger.
type OAuthExchangerConfig struct {
	HTTPClient   *http.Client
	Provider     string
	TokenURL     string
	UserInfoURL  string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// HTTPOAuthExchanger implements the generic authorization-code exchange
// against any provider exposing a token endpoint and an OIDC-style
// userinfo endpoint.
type HTTPOAuthExchanger struct {
	cfg        OAuthExchangerConfig
	httpClient *http.Client
}

func NewHTTPOAuthExchanger(cfg OAuthExchangerConfig) *HTTPOAuthExchanger {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	return &HTTPOAuthExchanger{cfg: cfg, httpClient: httpClient}
}

type oauthTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type oauthUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

func (e *HTTPOAuthExchanger) Exchange(ctx context.Context, code string) (ports.OAuthProfile, error) {
	if strings.TrimSpace(code) == "" {
		return ports.OAuthProfile{}, fmt.Errorf("authorization code is required")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", e.cfg.ClientID)
	form.Set("client_secret", e.cfg.ClientSecret)
	form.Set("redirect_uri", e.cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return ports.OAuthProfile{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return ports.OAuthProfile{}, fmt.Errorf("token exchange: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ports.OAuthProfile{}, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ports.OAuthProfile{}, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var token oauthTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return ports.OAuthProfile{}, fmt.Errorf("parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return ports.OAuthProfile{}, fmt.Errorf("token endpoint returned empty access token")
	}

	return e.fetchProfile(ctx, token.AccessToken)
}

func (e *HTTPOAuthExchanger) fetchProfile(ctx context.Context, accessToken string) (ports.OAuthProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.UserInfoURL, nil)
	if err != nil {
		return ports.OAuthProfile{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return ports.OAuthProfile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ports.OAuthProfile{}, fmt.Errorf("read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ports.OAuthProfile{}, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var info oauthUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return ports.OAuthProfile{}, fmt.Errorf("parse userinfo response: %w", err)
	}
	if info.Sub == "" {
		return ports.OAuthProfile{}, fmt.Errorf("userinfo response missing subject")
	}

	return ports.OAuthProfile{
		Provider:      e.cfg.Provider,
		Subject:       info.Sub,
		Email:         strings.ToLower(strings.TrimSpace(info.Email)),
		EmailVerified: info.EmailVerified,
	}, nil
}

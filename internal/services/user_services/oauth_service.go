package user_services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/auth"
	"github.com/iyunix/go-dreamer/internal/domain"
)

var (
	googleEndpoint = oauth2.Endpoint{
		AuthURL:   "https://accounts.google.com/o/oauth2/auth",
		TokenURL:  "https://oauth2.googleapis.com/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	appleEndpoint = oauth2.Endpoint{
		AuthURL:   "https://appleid.apple.com/auth/authorize",
		TokenURL:  "https://appleid.apple.com/auth/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	AppleClientID      string
	AppleTeamID        string
	AppleKeyID         string
	ApplePrivateKey    []byte
	CallbackBaseURL    string
	FrontendURL        string

	// Overridable for tests.
	GoogleEndpoint    oauth2.Endpoint
	GoogleUserInfoURL string
	AppleEndpoint     oauth2.Endpoint
	HTTPClient        *http.Client
}

// OAuthService runs the authorization-code flows for Google and Apple.
type OAuthService struct {
	google *oauth2.Config
	apple  *oauth2.Config
	cfg    OAuthConfig
	state  *auth.StateSigner
	auth   *AuthService
	logger Logger
	now    func() time.Time
}

func NewOAuthService(cfg OAuthConfig, state *auth.StateSigner, authService *AuthService, logger Logger) *OAuthService {
	if cfg.GoogleEndpoint.TokenURL == "" {
		cfg.GoogleEndpoint = googleEndpoint
	}
	if cfg.GoogleUserInfoURL == "" {
		cfg.GoogleUserInfoURL = googleUserInfoURL
	}
	if cfg.AppleEndpoint.TokenURL == "" {
		cfg.AppleEndpoint = appleEndpoint
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	base := strings.TrimRight(cfg.CallbackBaseURL, "/")

	s := &OAuthService{cfg: cfg, state: state, auth: authService, logger: logger, now: time.Now}
	if cfg.GoogleClientID != "" {
		s.google = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     cfg.GoogleEndpoint,
			RedirectURL:  base + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
		}
	}
	if cfg.AppleClientID != "" && len(cfg.ApplePrivateKey) > 0 {
		s.apple = &oauth2.Config{
			ClientID:    cfg.AppleClientID,
			Endpoint:    cfg.AppleEndpoint,
			RedirectURL: base + "/auth/apple/callback",
			Scopes:      []string{"name", "email"},
		}
	}
	return s
}

func (s *OAuthService) config(provider domain.AuthProvider) (*oauth2.Config, error) {
	var c *oauth2.Config
	switch provider {
	case domain.ProviderGoogle:
		c = s.google
	case domain.ProviderApple:
		c = s.apple
	}
	if c == nil {
		return nil, apperr.NewValidationError("OAuthService", fmt.Sprintf("%s login is not configured", provider))
	}
	return c, nil
}

// AuthURL is where the browser is sent to start the flow.
func (s *OAuthService) AuthURL(provider domain.AuthProvider) (string, error) {
	c, err := s.config(provider)
	if err != nil {
		return "", err
	}
	state, err := s.state.Issue(string(provider))
	if err != nil {
		return "", apperr.NewInternalError("OAuthService.AuthURL", "failed to issue state", err)
	}
	if provider == domain.ProviderApple {
		// Apple only returns email/name scopes with form_post
		return c.AuthCodeURL(state, oauth2.SetAuthURLParam("response_mode", "form_post")), nil
	}
	return c.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Callback verifies state, exchanges the code and signs the identity in.
func (s *OAuthService) Callback(ctx context.Context, provider domain.AuthProvider, code, state string) (*AuthResult, error) {
	const op = "OAuthService.Callback"
	c, err := s.config(provider)
	if err != nil {
		return nil, err
	}
	if err := s.state.Verify(state, string(provider)); err != nil {
		s.logger.Warn("oauth state rejected", "provider", provider, "error", err)
		return nil, apperr.NewUnauthorizedError(op, "invalid oauth state")
	}
	if code == "" {
		return nil, apperr.NewValidationError(op, "authorization code is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.cfg.HTTPClient)
	var id *OAuthIdentity
	switch provider {
	case domain.ProviderGoogle:
		id, err = s.googleIdentity(ctx, c, code)
	case domain.ProviderApple:
		id, err = s.appleIdentity(ctx, c, code)
	}
	if err != nil {
		s.logger.Error("oauth exchange failed", "provider", provider, "error", err)
		return nil, apperr.NewUnauthorizedError(op, fmt.Sprintf("%s authentication failed", provider))
	}
	return s.auth.OAuthLogin(ctx, *id)
}

func (s *OAuthService) googleIdentity(ctx context.Context, c *oauth2.Config, code string) (*OAuthIdentity, error) {
	tok, err := c.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.GoogleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.ID == "" {
		return nil, errors.New("userinfo has no id")
	}
	return &OAuthIdentity{Provider: domain.ProviderGoogle, ProviderID: info.ID, Email: info.Email}, nil
}

func (s *OAuthService) appleIdentity(ctx context.Context, c *oauth2.Config, code string) (*OAuthIdentity, error) {
	secret, err := auth.AppleClientSecret(s.cfg.AppleTeamID, s.cfg.AppleClientID, s.cfg.AppleKeyID, s.cfg.ApplePrivateKey, s.now())
	if err != nil {
		return nil, err
	}
	withSecret := *c
	withSecret.ClientSecret = secret

	tok, err := withSecret.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return nil, errors.New("apple token response has no id_token")
	}
	ident, err := auth.ParseAppleIDToken(idToken)
	if err != nil {
		return nil, err
	}
	return &OAuthIdentity{Provider: domain.ProviderApple, ProviderID: ident.Subject, Email: ident.Email}, nil
}

// RedirectURL hands the tokens to the frontend callback page.
func (s *OAuthService) RedirectURL(result *AuthResult) string {
	q := url.Values{}
	q.Set("token", result.AccessToken)
	q.Set("refresh", result.RefreshToken)
	return strings.TrimRight(s.cfg.FrontendURL, "/") + "/auth/callback?" + q.Encode()
}

// ErrorRedirectURL sends the browser back to the frontend login page with a reason.
func (s *OAuthService) ErrorRedirectURL(reason string) string {
	return strings.TrimRight(s.cfg.FrontendURL, "/") + "/auth/login?error=" + url.QueryEscape(reason)
}

package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/auth"
	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/dtos"
	"github.com/iyunix/go-dreamer/internal/middleware"
	"github.com/iyunix/go-dreamer/internal/services/user_services"
)

type Authenticator interface {
	Register(ctx context.Context, email, password, nickname string) (*user_services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*user_services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*user_services.AuthResult, error)
	Logout(ctx context.Context, access *auth.Claims, refreshToken string) error
}

type AccountManager interface {
	GetUserProfile(ctx context.Context, userID string) (*user_services.UserProfile, error)
	UpdateNickname(ctx context.Context, userID, nickname string) error
	DeleteAccount(ctx context.Context, userID string) error
}

type NicknameChecker interface {
	CheckNicknameAvailability(ctx context.Context, nickname string) (bool, error)
	GenerateUniqueNickname(ctx context.Context) (string, error)
}

type OAuthFlow interface {
	AuthURL(provider domain.AuthProvider) (string, error)
	Callback(ctx context.Context, provider domain.AuthProvider, code, state string) (*user_services.AuthResult, error)
	RedirectURL(result *user_services.AuthResult) string
	ErrorRedirectURL(reason string) string
}

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	auth      Authenticator
	accounts  AccountManager
	nicknames NicknameChecker
	oauth     OAuthFlow
	logger    Logger
}

func NewAuthHandler(a Authenticator, accounts AccountManager, nicknames NicknameChecker, oauth OAuthFlow, logger Logger) *AuthHandler {
	return &AuthHandler{auth: a, accounts: accounts, nicknames: nicknames, oauth: oauth, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	result, err := h.auth.Register(r.Context(), req.Email, req.Password, strings.TrimSpace(req.Nickname))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dtos.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	result, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req dtos.LogoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if err := h.auth.Logout(r.Context(), middleware.ClaimsFrom(r.Context()), req.RefreshToken); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.accounts.GetUserProfile(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *AuthHandler) CheckNickname(w http.ResponseWriter, r *http.Request) {
	q := dtos.CheckNicknameQuery{Nickname: strings.TrimSpace(r.URL.Query().Get("nickname"))}
	if err := dtos.Validate(q); err != nil {
		writeServiceError(w, r, h.logger, apperr.NewValidationError("check_nickname", err.Error()))
		return
	}
	available, err := h.nicknames.CheckNicknameAvailability(r.Context(), q.Nickname)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.NicknameAvailability{Available: available, Nickname: q.Nickname})
}

func (h *AuthHandler) GenerateNickname(w http.ResponseWriter, r *http.Request) {
	nickname, err := h.nicknames.GenerateUniqueNickname(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.GeneratedNickname{Nickname: nickname})
}

func (h *AuthHandler) UpdateNickname(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdateNicknameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	nickname := strings.TrimSpace(req.Nickname)
	if err := h.accounts.UpdateNickname(r.Context(), middleware.UserIDFrom(r.Context()), nickname); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Nickname updated", "nickname": nickname})
}

func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.DeleteAccount(r.Context(), middleware.UserIDFrom(r.Context())); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

// OAuthStart redirects to the provider named in the route.
func (h *AuthHandler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	provider := domain.AuthProvider(mux.Vars(r)["provider"])
	target, err := h.oauth.AuthURL(provider)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// OAuthCallback finishes a provider login. Apple posts the code as a form.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := domain.AuthProvider(mux.Vars(r)["provider"])
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, h.oauth.ErrorRedirectURL("invalid_request"), http.StatusFound)
		return
	}
	if reason := r.FormValue("error"); reason != "" {
		h.logger.Warn("OAuth provider returned an error", "provider", provider, "error", reason)
		http.Redirect(w, r, h.oauth.ErrorRedirectURL(reason), http.StatusFound)
		return
	}

	result, err := h.oauth.Callback(r.Context(), provider, r.FormValue("code"), r.FormValue("state"))
	if err != nil {
		h.logger.Warn("OAuth callback failed", "provider", provider, "request_id", middleware.RequestIDFrom(r.Context()), "error", err)
		reason := "oauth_failed"
		if apperr.Is(err, apperr.KindConflict) {
			reason = "account_exists"
		}
		http.Redirect(w, r, h.oauth.ErrorRedirectURL(reason), http.StatusFound)
		return
	}
	// form_post callbacks arrive as POST; the browser must GET the frontend
	http.Redirect(w, r, h.oauth.RedirectURL(result), http.StatusSeeOther)
}

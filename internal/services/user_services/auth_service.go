package user_services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/auth"
	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
	"github.com/iyunix/go-dreamer/internal/repository/user"
)

const msgInvalidCredentials = "invalid credentials"

type AuthService struct {
	userRepo    user.UserRepository
	tokens      *auth.TokenIssuer
	revoker     auth.TokenRevoker
	nicknames   *NicknameService
	adminEmails map[string]struct{}
	logger      Logger
	now         func() time.Time
}

func NewAuthService(userRepo user.UserRepository, tokens *auth.TokenIssuer, revoker auth.TokenRevoker, nicknames *NicknameService, adminEmails []string, logger Logger) *AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[normalizeEmail(e)] = struct{}{}
	}
	if revoker == nil {
		revoker = auth.NewMemoryTokenRevoker()
	}
	return &AuthService{
		userRepo:    userRepo,
		tokens:      tokens,
		revoker:     revoker,
		nicknames:   nicknames,
		adminEmails: admins,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, nickname string) (*AuthResult, error) {
	const op = "AuthService.Register"
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, apperr.NewValidationError(op, "a valid email is required")
	}

	s.logger.Info("user registration attempt", "email", mask(email))

	if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing != nil {
		s.logger.Warn("registration failed - email already exists", "email", mask(email))
		return nil, apperr.NewConflictError(op, "User with this email already exists")
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NewInternalError(op, "failed to look up user", err)
	}

	u := &domain.User{
		Email:              email,
		Provider:           domain.ProviderEmail,
		SubscriptionStatus: domain.SubscriptionFree,
		IsActive:           true,
		IsAdmin:            s.isAdminEmail(email),
	}
	if err := u.HashPassword(password); err != nil {
		return nil, apperr.NewValidationError(op, err.Error())
	}

	var err error
	if u.Nickname, err = s.resolveNickname(ctx, nickname); err != nil {
		return nil, err
	}

	created, err := s.userRepo.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.NewConflictError(op, "User with this email or nickname already exists")
		}
		s.logger.Error("user creation failed", "error", err, "email", mask(email))
		return nil, apperr.NewInternalError(op, "failed to create user", err)
	}

	s.logger.Info("user registered successfully", "user_id", created.ID, "is_admin", created.IsAdmin)
	return s.signIn(op, created)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	const op = "AuthService.Login"
	if email == "" || password == "" {
		s.logger.Warn("login attempt with empty credentials", "has_email", email != "", "has_password", password != "")
		return nil, apperr.NewValidationError(op, "email and password are required")
	}
	email = normalizeEmail(email)

	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NewInternalError(op, "failed to look up user", err)
		}
		s.logger.Warn("login failed - user not found", "email", mask(email))
		return nil, apperr.NewUnauthorizedError(op, msgInvalidCredentials)
	}

	// social accounts never reach the hash comparison
	if u.Provider != domain.ProviderEmail {
		s.logger.Warn("password login for social account", "user_id", u.ID, "provider", u.Provider)
		return nil, apperr.NewUnauthorizedError(op, fmt.Sprintf("This account was registered with %s. Please use %s login.", u.Provider, u.Provider))
	}
	if !u.IsActive || u.Password == "" {
		return nil, apperr.NewUnauthorizedError(op, msgInvalidCredentials)
	}
	if err := u.ValidatePassword(password); err != nil {
		s.logger.Warn("login failed - invalid password", "user_id", u.ID)
		return nil, apperr.NewUnauthorizedError(op, msgInvalidCredentials)
	}

	s.logger.Info("login successful", "user_id", u.ID, "is_admin", u.IsAdmin, "subscription", u.SubscriptionStatus)
	return s.signIn(op, u)
}

// OAuthLogin signs in a provider identity, creating the account on first use.
func (s *AuthService) OAuthLogin(ctx context.Context, id OAuthIdentity) (*AuthResult, error) {
	const op = "AuthService.OAuthLogin"
	if id.ProviderID == "" {
		return nil, apperr.NewValidationError(op, "provider id is required")
	}

	u, err := s.userRepo.FindByProvider(ctx, id.Provider, id.ProviderID)
	if err == nil {
		if !u.IsActive {
			return nil, apperr.NewUnauthorizedError(op, "account is deactivated")
		}
		s.logger.Info("oauth login", "user_id", u.ID, "provider", id.Provider)
		return s.signIn(op, u)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NewInternalError(op, "failed to look up user", err)
	}

	email := normalizeEmail(id.Email)
	if email == "" {
		return nil, apperr.NewValidationError(op, "provider did not return an email")
	}
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing.Provider != id.Provider {
		s.logger.Warn("oauth email belongs to another provider", "email", mask(email), "provider", id.Provider, "existing_provider", existing.Provider)
		return nil, apperr.NewConflictError(op, "User with this email already exists with different provider")
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NewInternalError(op, "failed to look up user", err)
	}

	nickname, err := s.resolveNickname(ctx, id.Nickname)
	if err != nil {
		return nil, err
	}
	providerID := id.ProviderID
	created, err := s.userRepo.Create(ctx, &domain.User{
		Email:              email,
		Nickname:           nickname,
		Provider:           id.Provider,
		ProviderID:         &providerID,
		SubscriptionStatus: domain.SubscriptionFree,
		IsActive:           true,
		IsAdmin:            s.isAdminEmail(email),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.NewConflictError(op, "User with this email already exists")
		}
		return nil, apperr.NewInternalError(op, "failed to create user", err)
	}
	s.logger.Info("oauth user created", "user_id", created.ID, "provider", id.Provider)
	return s.signIn(op, created)
}

// Refresh rotates a refresh token into a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	const op = "AuthService.Refresh"
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		s.logger.Warn("refresh token rejected", "error", err)
		return nil, apperr.NewUnauthorizedError(op, "invalid refresh token")
	}
	if revoked, err := s.revoker.IsRevoked(ctx, claims.ID); err != nil {
		return nil, apperr.NewInternalError(op, "failed to check token", err)
	} else if revoked {
		return nil, apperr.NewUnauthorizedError(op, "refresh token has been revoked")
	}

	u, err := s.userRepo.FindByID(ctx, claims.UserID())
	if err != nil || !u.IsActive {
		return nil, apperr.NewUnauthorizedError(op, "User not found")
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.Remaining(s.now())); err != nil {
		s.logger.Warn("failed to revoke rotated refresh token", "error", err, "user_id", u.ID)
	}
	return s.signIn(op, u)
}

// Authenticate validates an access token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	const op = "AuthService.Authenticate"
	claims, err := s.tokens.ValidateAccess(accessToken)
	if err != nil {
		return nil, apperr.NewUnauthorizedError(op, "invalid or expired token")
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperr.NewInternalError(op, "failed to check token", err)
	}
	if revoked {
		return nil, apperr.NewUnauthorizedError(op, "token has been revoked")
	}
	return claims, nil
}

// Logout revokes the access token and, when given, the refresh token until they expire.
func (s *AuthService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	const op = "AuthService.Logout"
	now := s.now()
	if err := s.revoker.Revoke(ctx, access.ID, access.Remaining(now)); err != nil {
		return apperr.NewInternalError(op, "failed to revoke token", err)
	}
	if refreshToken != "" {
		if claims, err := s.tokens.ValidateRefresh(refreshToken); err == nil && claims.UserID() == access.UserID() {
			if err := s.revoker.Revoke(ctx, claims.ID, claims.Remaining(now)); err != nil {
				return apperr.NewInternalError(op, "failed to revoke token", err)
			}
		}
	}
	s.logger.Info("user logged out", "user_id", access.UserID())
	return nil
}

// IsPremiumUser also flips a lapsed premium subscription to expired.
func (s *AuthService) IsPremiumUser(ctx context.Context, userID string) (bool, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load user %s: %w", userID, err)
	}

	premium, lapsed := u.PremiumAt(s.now())
	if lapsed {
		s.logger.Info("premium subscription lapsed", "user_id", userID, "expired_at", u.PremiumExpiresAt)
		if err := s.UpdateUserSubscriptionStatus(ctx, userID, domain.SubscriptionExpired, nil); err != nil {
			s.logger.Error("failed to mark subscription expired", "error", err, "user_id", userID)
		}
	}
	return premium, nil
}

func (s *AuthService) UpdateUserSubscriptionStatus(ctx context.Context, userID string, status domain.SubscriptionStatus, expiresAt *time.Time) error {
	const op = "AuthService.UpdateUserSubscriptionStatus"
	if !status.Valid() {
		return apperr.NewValidationError(op, fmt.Sprintf("invalid subscription status: %s", status))
	}
	fields := map[string]interface{}{"subscription_status": status}
	if expiresAt != nil {
		fields["premium_expires_at"] = *expiresAt
	}
	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NewNotFoundError(op, "User not found")
		}
		return apperr.NewInternalError(op, "failed to update subscription status", err)
	}
	return nil
}

// resolveNickname checks a chosen nickname or generates one when none was given.
func (s *AuthService) resolveNickname(ctx context.Context, nickname string) (string, error) {
	const op = "AuthService.resolveNickname"
	if nickname = strings.TrimSpace(nickname); nickname != "" {
		if err := ValidateNickname(nickname); err != nil {
			return "", apperr.NewValidationError(op, err.Error())
		}
		available, err := s.nicknames.CheckNicknameAvailability(ctx, nickname)
		if err != nil {
			return "", apperr.NewInternalError(op, "failed to check nickname", err)
		}
		if !available {
			return "", apperr.NewConflictError(op, "Nickname is already taken")
		}
		return nickname, nil
	}
	generated, err := s.nicknames.GenerateUniqueNickname(ctx)
	if err != nil {
		return "", apperr.NewInternalError(op, "failed to generate nickname", err)
	}
	return generated, nil
}

func (s *AuthService) signIn(op string, u *domain.User) (*AuthResult, error) {
	pair, err := s.tokens.IssuePair(u.ID, u.Email)
	if err != nil {
		s.logger.Error("JWT token generation failed", "error", err, "user_id", u.ID)
		return nil, apperr.NewInternalError(op, "failed to generate token", err)
	}
	return newAuthResult(u, pair), nil
}

func (s *AuthService) isAdminEmail(email string) bool {
	_, ok := s.adminEmails[email]
	return ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package admin_services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
	"github.com/iyunix/go-dreamer/internal/repository/user"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// AdminService provides functionalities for administrative tasks.
type AdminService struct {
	userRepo user.UserRepository
	now      func() time.Time
}

func NewAdminService(userRepo user.UserRepository) *AdminService {
	return &AdminService{userRepo: userRepo, now: time.Now}
}

type UserPage struct {
	Users  []domain.User `json:"users"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListUsers pages through all users, newest first.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) (*UserPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)
	offset = max(offset, 0)

	users, total, err := s.userRepo.FindAllWithPagination(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &UserPage{Users: users, Total: total, Limit: limit, Offset: offset}, nil
}

// SetSubscription changes a user's plan. Granting premium without an expiry
// means no expiry; a past expiry is rejected.
func (s *AdminService) SetSubscription(ctx context.Context, userID string, status domain.SubscriptionStatus, expiresAt *time.Time) (*domain.User, error) {
	const op = "AdminService.SetSubscription"
	if !status.Valid() {
		return nil, apperr.NewValidationError(op, fmt.Sprintf("invalid subscription status: %s", status))
	}
	if expiresAt != nil && status == domain.SubscriptionPremium && !expiresAt.After(s.now()) {
		return nil, apperr.NewValidationError(op, "premium expiry must be in the future")
	}

	fields := map[string]interface{}{"subscription_status": status, "premium_expires_at": gorm.Expr("NULL")}
	if expiresAt != nil {
		fields["premium_expires_at"] = *expiresAt
	}
	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NewNotFoundError(op, "User not found")
		}
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	return u, nil
}

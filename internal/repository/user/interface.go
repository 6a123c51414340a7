package user

import (
	"context"

	"github.com/iyunix/go-dreamer/internal/domain"
)

// UserRepository handles user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByNickname(ctx context.Context, nickname string) (*domain.User, error)
	FindByProvider(ctx context.Context, provider domain.AuthProvider, providerID string) (*domain.User, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	FindAllWithPagination(ctx context.Context, limit, offset int) ([]domain.User, int64, error)
}

package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
)

type gormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := validateUserInput(user); err != nil {
		log.Printf("[UserRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		log.Printf("[UserRepository] Database error during user creation: %v", err)
		return nil, repository.TranslateError(err)
	}

	log.Printf("[UserRepository] User created successfully with ID: %s (provider %s)", user.ID, user.Provider)
	return user, nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, repository.ErrNotFound
	}
	var user domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return handleFindError(err, &user, "FindByID")
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	return handleFindError(err, &user, "FindByEmail")
}

// FindByNickname returns repository.ErrNotFound when no row matches; any other
// error is a query failure and must not be read as "available".
func (r *gormUserRepository) FindByNickname(ctx context.Context, nickname string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("nickname = ?", nickname).First(&user).Error
	return handleFindError(err, &user, "FindByNickname")
}

func (r *gormUserRepository) FindByProvider(ctx context.Context, provider domain.AuthProvider, providerID string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_id = ?", provider, providerID).
		First(&user).Error
	return handleFindError(err, &user, "FindByProvider")
}

func (r *gormUserRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		log.Printf("[UserRepository] Update failed for user %s: %v", id, result.Error)
		return repository.TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *gormUserRepository) FindAllWithPagination(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	if limit <= 0 || limit > 1000 {
		return nil, 0, errors.New("invalid limit: must be between 1 and 1000")
	}
	if offset < 0 {
		return nil, 0, errors.New("invalid offset: must be >= 0")
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		log.Printf("[UserRepository] Database error counting users: %v", err)
		return nil, 0, fmt.Errorf("database error counting users: %w", err)
	}

	var users []domain.User
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		log.Printf("[UserRepository] Database error in paginated query: %v", err)
		return nil, 0, fmt.Errorf("database error retrieving users: %w", err)
	}
	return users, total, nil
}

func validateUserInput(user *domain.User) error {
	if user == nil {
		return errors.New("user cannot be nil")
	}
	if !strings.Contains(user.Email, "@") {
		return errors.New("a valid email is required")
	}
	if strings.TrimSpace(user.Nickname) == "" {
		return errors.New("nickname is required")
	}
	if user.Provider != domain.ProviderEmail && (user.ProviderID == nil || *user.ProviderID == "") {
		return errors.New("provider ID is required for social accounts")
	}
	return nil
}

func handleFindError(err error, user *domain.User, operation string) (*domain.User, error) {
	if err == nil {
		return user, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	log.Printf("[UserRepository] %s database error: %v", operation, err)
	return nil, fmt.Errorf("database query failed: %w", err)
}

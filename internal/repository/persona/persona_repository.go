// Package persona persists the bot settings and personality catalog.
package persona

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
)

type PersonaRepository interface {
	SeedSettings(ctx context.Context, settings []domain.BotSettings) error
	SeedPersonalities(ctx context.Context, personalities []domain.BotPersonality) error
	FindAll(ctx context.Context) ([]domain.BotPersonality, error)
	FindByName(ctx context.Context, name string) (*domain.BotPersonality, error)
}

type gormPersonaRepository struct {
	db *gorm.DB
}

func NewPersonaRepository(db *gorm.DB) PersonaRepository {
	return &gormPersonaRepository{db: db}
}

// SeedSettings inserts the combinations that are missing; existing rows keep their ids.
func (r *gormPersonaRepository) SeedSettings(ctx context.Context, settings []domain.BotSettings) error {
	if len(settings) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "gender"}, {Name: "style"}}, DoNothing: true}).
		Create(&settings).Error
	if err != nil {
		log.Printf("[PersonaRepository] Seeding bot settings failed: %v", err)
		return fmt.Errorf("seed bot settings: %w", err)
	}
	return nil
}

func (r *gormPersonaRepository) SeedPersonalities(ctx context.Context, personalities []domain.BotPersonality) error {
	if len(personalities) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&personalities).Error
	if err != nil {
		log.Printf("[PersonaRepository] Seeding bot personalities failed: %v", err)
		return fmt.Errorf("seed bot personalities: %w", err)
	}
	return nil
}

func (r *gormPersonaRepository) FindAll(ctx context.Context) ([]domain.BotPersonality, error) {
	var out []domain.BotPersonality
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("gender asc, style asc").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("database error fetching personalities: %w", err)
	}
	return out, nil
}

func (r *gormPersonaRepository) FindByName(ctx context.Context, name string) (*domain.BotPersonality, error) {
	var p domain.BotPersonality
	err := r.db.WithContext(ctx).Where("name = ? AND is_active = ?", name, true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

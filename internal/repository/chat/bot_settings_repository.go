package chat

import (
	"context"

	"gorm.io/gorm"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
)

type gormBotSettingsRepository struct {
	db *gorm.DB
}

func NewBotSettingsRepository(db *gorm.DB) BotSettingsRepository {
	return &gormBotSettingsRepository{db: db}
}

func (r *gormBotSettingsRepository) FindSettings(ctx context.Context, gender domain.BotGender, style domain.BotStyle) (*domain.BotSettings, error) {
	var settings domain.BotSettings
	err := r.db.WithContext(ctx).Where("gender = ? AND style = ?", gender, style).First(&settings).Error
	if err != nil {
		return nil, repository.TranslateError(err)
	}
	return &settings, nil
}

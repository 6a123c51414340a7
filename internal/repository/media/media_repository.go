// Package media stores generated images and videos.
package media

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
)

type MediaRepository interface {
	CreateImage(ctx context.Context, image *domain.GeneratedImage) error
	FindLatestImageForRoom(ctx context.Context, roomID string) (*domain.GeneratedImage, error)
	CountImagesByUser(ctx context.Context, userID string) (int64, error)
	CreateVideo(ctx context.Context, video *domain.Video) error
}

type gormMediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &gormMediaRepository{db: db}
}

func (r *gormMediaRepository) CreateImage(ctx context.Context, image *domain.GeneratedImage) error {
	if image == nil || image.ImageURL == "" {
		return errors.New("image URL is required")
	}
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		log.Printf("[MediaRepository] Saving image for room %s failed: %v", image.ChatRoomID, err)
		return fmt.Errorf("database error saving image: %w", err)
	}
	return nil
}

func (r *gormMediaRepository) FindLatestImageForRoom(ctx context.Context, roomID string) (*domain.GeneratedImage, error) {
	var img domain.GeneratedImage
	err := r.db.WithContext(ctx).Where("chat_room_id = ?", roomID).Order("created_at desc").First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *gormMediaRepository) CountImagesByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.GeneratedImage{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *gormMediaRepository) CreateVideo(ctx context.Context, video *domain.Video) error {
	if video == nil || video.VideoURL == "" {
		return errors.New("video URL is required")
	}
	if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
		log.Printf("[MediaRepository] Saving video for room %s failed: %v", video.ChatRoomID, err)
		return fmt.Errorf("database error saving video: %w", err)
	}
	return nil
}

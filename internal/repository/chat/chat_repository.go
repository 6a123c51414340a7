package chat

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

type gormChatRoomRepository struct {
	db *gorm.DB
}

func NewChatRoomRepository(db *gorm.DB) ChatRoomRepository {
	return &gormChatRoomRepository{db: db}
}

// Create inserts the room without touching its BotSettings association.
// Unique violations come back wrapped in repository.ErrConflict.
func (r *gormChatRoomRepository) Create(ctx context.Context, room *domain.ChatRoom) (*domain.ChatRoom, error) {
	if err := validateRoom(room); err != nil {
		log.Printf("[ChatRoomRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(room).Error; err != nil {
		log.Printf("[ChatRoomRepository] Create failed for user %s on %s: %v", room.UserID, room.Date, err)
		return nil, repository.TranslateError(err)
	}

	log.Printf("[ChatRoomRepository] Chat room %s created for user %s on %s", room.ID, room.UserID, room.Date)
	return room, nil
}

func (r *gormChatRoomRepository) FindByID(ctx context.Context, id string) (*domain.ChatRoom, error) {
	if id == "" {
		return nil, repository.ErrNotFound
	}
	var room domain.ChatRoom
	err := r.db.WithContext(ctx).
		Preload("BotSettings").
		Where("id = ? AND is_active = ?", id, true).
		First(&room).Error
	return handleFindError(err, &room, "FindByID")
}

func (r *gormChatRoomRepository) FindByUserAndDate(ctx context.Context, userID, date string) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := r.db.WithContext(ctx).
		Preload("BotSettings").
		Where("user_id = ? AND date = ? AND is_active = ?", userID, date, true).
		First(&room).Error
	return handleFindError(err, &room, "FindByUserAndDate")
}

// FindByUserAndDateAnyState reads on a fresh session and ignores the active flag.
// It is the fallback after a unique violation, where the conflicting row may be
// soft-deleted or not yet visible to the scoped query.
func (r *gormChatRoomRepository) FindByUserAndDateAnyState(ctx context.Context, userID, date string) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := r.db.Session(&gorm.Session{NewDB: true, Context: ctx}).
		Preload("BotSettings").
		Where("user_id = ? AND date = ?", userID, date).
		First(&room).Error
	return handleFindError(err, &room, "FindByUserAndDateAnyState")
}

func (r *gormChatRoomRepository) FindByUserID(ctx context.Context, userID string, limit int) ([]domain.ChatRoom, error) {
	if limit <= 0 {
		limit = 50
	}
	var rooms []domain.ChatRoom
	err := r.db.WithContext(ctx).
		Preload("BotSettings").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("date DESC").
		Limit(limit).
		Find(&rooms).Error
	if err != nil {
		log.Printf("[ChatRoomRepository] Database error listing rooms for user %s: %v", userID, err)
		return nil, fmt.Errorf("database error fetching chat rooms: %w", err)
	}
	return rooms, nil
}

func (r *gormChatRoomRepository) UpdateTitle(ctx context.Context, id, title string) error {
	return r.updateColumn(ctx, id, "title", title)
}

func (r *gormChatRoomRepository) UpdateBotSettings(ctx context.Context, id string, settingsID uint) error {
	return r.updateColumn(ctx, id, "bot_settings_id", settingsID)
}

func (r *gormChatRoomRepository) SetActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).Model(&domain.ChatRoom{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		log.Printf("[ChatRoomRepository] SetActive failed for room %s: %v", id, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Deactivate hides the room and removes its messages in one transaction.
// The row itself stays so the (user, date) slot can be reactivated empty.
func (r *gormChatRoomRepository) Deactivate(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.ChatRoom{}).Where("id = ?", id).Update("is_active", false)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return tx.Where("chat_room_id = ?", id).Delete(&domain.Message{}).Error
	})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("[ChatRoomRepository] Deactivate failed for room %s: %v", id, err)
	}
	return err
}

func (r *gormChatRoomRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ChatRoom{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *gormChatRoomRepository) updateColumn(ctx context.Context, id, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&domain.ChatRoom{}).
		Where("id = ? AND is_active = ?", id, true).
		Update(column, value)
	if result.Error != nil {
		log.Printf("[ChatRoomRepository] Update of %s failed for room %s: %v", column, id, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func validateRoom(room *domain.ChatRoom) error {
	if room == nil {
		return errors.New("chat room cannot be nil")
	}
	if room.UserID == "" {
		return errors.New("user ID is required")
	}
	if len(room.Date) != len(domain.DateLayout) {
		return fmt.Errorf("invalid date %q", room.Date)
	}
	if room.BotSettingsID == 0 {
		return errors.New("bot settings are required")
	}
	return nil
}

func handleFindError(err error, room *domain.ChatRoom, operation string) (*domain.ChatRoom, error) {
	if err == nil {
		return room, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	log.Printf("[ChatRoomRepository] %s database error: %v", operation, err)
	return nil, fmt.Errorf("database query failed: %w", err)
}

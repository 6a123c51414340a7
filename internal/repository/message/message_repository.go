package message

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
)

const maxMessageLength = 20000

type gormMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) Create(ctx context.Context, message *domain.Message) (*domain.Message, error) {
	if err := validateMessageInput(message); err != nil {
		log.Printf("[MessageRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		// content is never logged
		log.Printf("[MessageRepository] Database error during message creation for room %s: %v", message.ChatRoomID, err)
		return nil, fmt.Errorf("database error creating message: %w", repository.TranslateError(err))
	}
	return message, nil
}

// CreateIfEmpty inserts message only when its room has no messages yet and
// otherwise returns the room's first message. The room row is locked for the
// check so concurrent openers insert at most one message.
func (r *gormMessageRepository) CreateIfEmpty(ctx context.Context, message *domain.Message) (*domain.Message, bool, error) {
	if err := validateMessageInput(message); err != nil {
		return nil, false, fmt.Errorf("validation failed: %w", err)
	}

	var out *domain.Message
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room domain.ChatRoom
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Where("id = ?", message.ChatRoomID).Take(&room).Error; err != nil {
			return repository.TranslateError(err)
		}
		var first domain.Message
		err := tx.Where("chat_room_id = ?", message.ChatRoomID).Order("created_at asc").First(&first).Error
		if err == nil {
			out = &first
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(message).Error; err != nil {
			return repository.TranslateError(err)
		}
		out, created = message, true
		return nil
	})
	if err != nil {
		log.Printf("[MessageRepository] CreateIfEmpty failed for room %s: %v", message.ChatRoomID, err)
		return nil, false, fmt.Errorf("database error creating first message: %w", err)
	}
	return out, created, nil
}

// FindByChatRoomIDWithPagination returns one page plus the room total.
func (r *gormMessageRepository) FindByChatRoomIDWithPagination(ctx context.Context, roomID string, limit, offset int, ascending bool) ([]domain.Message, int64, error) {
	if limit <= 0 || limit > 1000 {
		return nil, 0, errors.New("invalid limit: must be between 1 and 1000")
	}
	if offset < 0 {
		return nil, 0, errors.New("invalid offset: must be >= 0")
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Message{}).Where("chat_room_id = ?", roomID).Count(&total).Error; err != nil {
		log.Printf("[MessageRepository] Database error counting messages for room %s: %v", roomID, err)
		return nil, 0, fmt.Errorf("database error counting messages: %w", err)
	}

	order := "created_at desc"
	if ascending {
		order = "created_at asc"
	}
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_room_id = ?", roomID).
		Order(order).
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error in paginated query for room %s: %v", roomID, err)
		return nil, 0, fmt.Errorf("database error retrieving messages: %w", err)
	}
	return messages, total, nil
}

// FindRecentMessages returns the newest messages in chronological order.
func (r *gormMessageRepository) FindRecentMessages(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 10
	}
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_room_id = ?", roomID).
		Order("created_at desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		log.Printf("[MessageRepository] Database error finding recent messages for room %s: %v", roomID, err)
		return nil, fmt.Errorf("database error fetching recent messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *gormMessageRepository) FindFirstMessage(ctx context.Context, roomID string) (*domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).Where("chat_room_id = ?", roomID).Order("created_at asc").First(&m).Error
	return handleFindError(err, &m, "FindFirstMessage")
}

func (r *gormMessageRepository) FindLatestByType(ctx context.Context, roomID string, messageType domain.MessageType) (*domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_room_id = ? AND type = ?", roomID, messageType).
		Order("created_at desc").
		First(&m).Error
	return handleFindError(err, &m, "FindLatestByType")
}

func (r *gormMessageRepository) FindAllByType(ctx context.Context, roomID string, messageType domain.MessageType) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("chat_room_id = ? AND type = ?", roomID, messageType).
		Order("created_at asc").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("database error fetching messages by type: %w", err)
	}
	return messages, nil
}

func (r *gormMessageRepository) CountByChatRoomID(ctx context.Context, roomID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).Where("chat_room_id = ?", roomID).Count(&count).Error
	return count, err
}

// CountBotMessagesByUser counts bot replies across the user's rooms, optionally since a time.
func (r *gormMessageRepository) CountBotMessagesByUser(ctx context.Context, userID string, since *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Message{}).
		Joins("JOIN chat_rooms ON chat_rooms.id = messages.chat_room_id").
		Where("chat_rooms.user_id = ? AND messages.type = ?", userID, domain.MessageTypeBot)
	if since != nil {
		q = q.Where("messages.created_at >= ?", *since)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		log.Printf("[MessageRepository] Database error counting bot messages for user %s: %v", userID, err)
		return 0, err
	}
	return count, nil
}

// LastActivityByUser returns the newest message time across the user's rooms, nil when none.
func (r *gormMessageRepository) LastActivityByUser(ctx context.Context, userID string) (*time.Time, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).
		Joins("JOIN chat_rooms ON chat_rooms.id = messages.chat_room_id").
		Where("chat_rooms.user_id = ?", userID).
		Order("messages.created_at desc").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m.CreatedAt, nil
}

func validateMessageInput(message *domain.Message) error {
	if message == nil {
		return errors.New("message cannot be nil")
	}
	if message.ChatRoomID == "" {
		return errors.New("chat room ID is required")
	}
	if message.Type != domain.MessageTypeUser && message.Type != domain.MessageTypeBot {
		return fmt.Errorf("invalid message type %q", message.Type)
	}
	if strings.TrimSpace(message.Content) == "" {
		return errors.New("message content cannot be empty")
	}
	if len(message.Content) > maxMessageLength {
		return fmt.Errorf("message content exceeds %d bytes", maxMessageLength)
	}
	return nil
}

func handleFindError(err error, message *domain.Message, operation string) (*domain.Message, error) {
	if err == nil {
		return message, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	log.Printf("[MessageRepository] %s database error: %v", operation, err)
	return nil, fmt.Errorf("database query failed: %w", err)
}

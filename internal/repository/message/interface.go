// File: internal/repository/message/interface.go
package message

import (
	"context"
	"time"

	"github.com/iyunix/go-dreamer/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) (*domain.Message, error)
	CreateIfEmpty(ctx context.Context, message *domain.Message) (*domain.Message, bool, error)
	FindByChatRoomIDWithPagination(ctx context.Context, roomID string, limit, offset int, ascending bool) ([]domain.Message, int64, error)
	FindRecentMessages(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
	FindFirstMessage(ctx context.Context, roomID string) (*domain.Message, error)
	FindLatestByType(ctx context.Context, roomID string, messageType domain.MessageType) (*domain.Message, error)
	FindAllByType(ctx context.Context, roomID string, messageType domain.MessageType) ([]domain.Message, error)
	CountByChatRoomID(ctx context.Context, roomID string) (int64, error)
	CountBotMessagesByUser(ctx context.Context, userID string, since *time.Time) (int64, error)
	LastActivityByUser(ctx context.Context, userID string) (*time.Time, error)
}

// Package community serves the public dream feed: posts built from finished
// interpretations, likes, bookmarks and threaded comments.
package community

import (
	"context"

	"github.com/iyunix/go-dreamer/internal/domain"
)

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

const (
	defaultPageSize   = 20
	maxPageSize       = 50
	maxCommentLength  = 1000
	maxTitleWords     = 8
	maxTitleRunes     = 50
	defaultPostTitle  = "내 꿈 이야기"
	msgRoomNotFound   = "채팅룸을 찾을 수 없습니다"
	msgNoInterpreted  = "완성된 해몽이 없는 채팅룸입니다"
	msgPostNotFound   = "게시글을 찾을 수 없습니다"
	msgPrivatePost    = "비공개 게시글에는 댓글을 달 수 없습니다"
	msgParentNotFound = "부모 댓글을 찾을 수 없습니다"
	msgCommentMissing = "댓글을 찾을 수 없습니다"
	msgCommentOwner   = "본인의 댓글만 삭제할 수 있습니다"
)

type CreatePostInput struct {
	ChatRoomID string
	Title      string
	Tags       []string
	IsPublic   *bool
}

// PostQuery is the feed request as received; the service validates it.
type PostQuery struct {
	Tags      []string
	BotGender domain.BotGender
	BotStyle  domain.BotStyle
	Search    string
	SortBy    string
	Cursor    string
	Limit     int
}

type PostPage struct {
	Posts      []domain.Post `json:"posts"`
	HasMore    bool          `json:"hasMore"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

type LikeResult struct {
	IsLiked    bool `json:"isLiked"`
	LikesCount int  `json:"likesCount"`
}

type BookmarkResult struct {
	IsBookmarked bool `json:"isBookmarked"`
}

// Narrow views of the chat-side repositories a post is assembled from.
type RoomReader interface {
	FindByID(ctx context.Context, id string) (*domain.ChatRoom, error)
}

type MessageReader interface {
	FindAllByType(ctx context.Context, roomID string, messageType domain.MessageType) ([]domain.Message, error)
}

type ImageReader interface {
	FindLatestImageForRoom(ctx context.Context, roomID string) (*domain.GeneratedImage, error)
}

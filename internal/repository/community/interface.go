// Package community persists posts, comments, likes and bookmarks.
package community

import (
	"context"
	"time"

	"github.com/iyunix/go-dreamer/internal/domain"
)

type SortOrder string

const (
	SortLatest   SortOrder = "latest"
	SortPopular  SortOrder = "popular"
	SortTrending SortOrder = "trending"
)

// PostFilter narrows the public feed. Limit is the number of rows fetched.
type PostFilter struct {
	Tags      []string
	BotGender domain.BotGender
	BotStyle  domain.BotStyle
	Search    string
	Sort      SortOrder
	Cursor    *PostCursor
	Since     *time.Time
	Limit     int
}

// PostCursor is the last row of the previous page. LikesCount only matters for
// the popular and trending orders; an empty ID skips the tie-break.
type PostCursor struct {
	LikesCount int
	CreatedAt  time.Time
	ID         string
}

type CommunityRepository interface {
	CreatePost(ctx context.Context, post *domain.Post) error
	ListPublicPosts(ctx context.Context, filter PostFilter) ([]domain.Post, error)
	FindPostByID(ctx context.Context, id string) (*domain.Post, error)
	IncrementViews(ctx context.Context, postID string) error
	LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
	BookmarkedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
	TogglePostLike(ctx context.Context, postID, userID string) (liked bool, likes int, err error)
	TogglePostBookmark(ctx context.Context, postID, userID string) (bookmarked bool, err error)

	CreateComment(ctx context.Context, comment *domain.Comment) error
	FindCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	ListComments(ctx context.Context, postID string) ([]domain.Comment, error)
	LikedCommentIDs(ctx context.Context, userID string, commentIDs []string) (map[string]bool, error)
	ToggleCommentLike(ctx context.Context, commentID, userID string) (liked bool, likes int, err error)
	DeleteCommentTree(ctx context.Context, commentID string) (removed int, err error)
}

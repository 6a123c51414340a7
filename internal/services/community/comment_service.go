package community

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
	repo "github.com/iyunix/go-dreamer/internal/repository/community"
)

type CommentService struct {
	repo   repo.CommunityRepository
	logger Logger
}

func NewCommentService(r repo.CommunityRepository, logger Logger) *CommentService {
	return &CommentService{repo: r, logger: logger}
}

func (s *CommentService) CreateComment(ctx context.Context, postID, userID, content string, parentID *string) (*domain.Comment, error) {
	const op = "CommentService.CreateComment"
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n < 1 || n > maxCommentLength {
		return nil, apperr.NewValidationError(op, fmt.Sprintf("content must be between 1 and %d characters", maxCommentLength))
	}

	post, err := s.repo.FindPostByID(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NewNotFoundError(op, msgPostNotFound)
	}
	if err != nil {
		return nil, apperr.NewInternalError(op, "댓글 생성에 실패했습니다", err)
	}
	if !post.IsPublic {
		return nil, apperr.NewForbiddenError(op, msgPrivatePost)
	}

	if parentID != nil && *parentID != "" {
		parent, err := s.repo.FindCommentByID(ctx, *parentID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NewInternalError(op, "댓글 생성에 실패했습니다", err)
		}
		if err != nil || parent.PostID != postID {
			return nil, apperr.NewNotFoundError(op, msgParentNotFound)
		}
	} else {
		parentID = nil
	}

	c := &domain.Comment{PostID: postID, UserID: userID, ParentCommentID: parentID, Content: content}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		s.logger.Error("comment creation failed", "post_id", postID, "user_id", userID, "error", err)
		return nil, apperr.NewInternalError(op, "댓글 생성에 실패했습니다", err)
	}
	c.Replies = []*domain.Comment{}
	s.logger.Info("comment created", "comment_id", c.ID, "post_id", postID, "reply", parentID != nil)
	return c, nil
}

// GetCommentsByPostID returns root comments oldest first with replies nested under them.
func (s *CommentService) GetCommentsByPostID(ctx context.Context, postID, viewerID string) ([]*domain.Comment, error) {
	const op = "CommentService.GetCommentsByPostID"
	comments, err := s.repo.ListComments(ctx, postID)
	if err != nil {
		return nil, apperr.NewInternalError(op, "댓글 목록 조회에 실패했습니다", err)
	}

	ids := make([]string, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
	}
	liked, err := s.repo.LikedCommentIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, apperr.NewInternalError(op, "댓글 목록 조회에 실패했습니다", err)
	}
	return buildTree(comments, liked), nil
}

func buildTree(comments []domain.Comment, liked map[string]bool) []*domain.Comment {
	byID := make(map[string]*domain.Comment, len(comments))
	for i := range comments {
		c := &comments[i]
		c.User = domain.AuthorOf(c.Owner)
		c.IsLiked = liked[c.ID]
		c.Replies = []*domain.Comment{}
		byID[c.ID] = c
	}
	roots := []*domain.Comment{}
	for i := range comments {
		c := &comments[i]
		if c.ParentCommentID != nil {
			if parent, ok := byID[*c.ParentCommentID]; ok {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}

func (s *CommentService) ToggleCommentLike(ctx context.Context, commentID, userID string) (*LikeResult, error) {
	const op = "CommentService.ToggleCommentLike"
	if _, err := s.findComment(ctx, op, commentID); err != nil {
		return nil, err
	}
	liked, count, err := s.repo.ToggleCommentLike(ctx, commentID, userID)
	if err != nil {
		return nil, apperr.NewInternalError(op, "좋아요 처리에 실패했습니다", err)
	}
	return &LikeResult{IsLiked: liked, LikesCount: count}, nil
}

// DeleteComment removes the caller's comment together with its replies.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, userID string) error {
	const op = "CommentService.DeleteComment"
	c, err := s.findComment(ctx, op, commentID)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return apperr.NewForbiddenError(op, msgCommentOwner)
	}
	removed, err := s.repo.DeleteCommentTree(ctx, commentID)
	if err != nil {
		return apperr.NewInternalError(op, "댓글 삭제에 실패했습니다", err)
	}
	s.logger.Info("comment deleted", "comment_id", commentID, "removed", removed)
	return nil
}

func (s *CommentService) findComment(ctx context.Context, op, commentID string) (*domain.Comment, error) {
	c, err := s.repo.FindCommentByID(ctx, commentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NewNotFoundError(op, msgCommentMissing)
	}
	if err != nil {
		return nil, apperr.NewInternalError(op, "댓글 조회에 실패했습니다", err)
	}
	return c, nil
}

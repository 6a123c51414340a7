package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/dtos"
	"github.com/iyunix/go-dreamer/internal/middleware"
	"github.com/iyunix/go-dreamer/internal/services/community"
)

type PostManager interface {
	CreatePost(ctx context.Context, userID string, in community.CreatePostInput) (*domain.Post, error)
	GetPosts(ctx context.Context, q community.PostQuery, viewerID string) (*community.PostPage, error)
	GetPostByID(ctx context.Context, postID, viewerID string) (*domain.Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (*community.LikeResult, error)
	ToggleBookmark(ctx context.Context, postID, userID string) (*community.BookmarkResult, error)
}

type CommentManager interface {
	CreateComment(ctx context.Context, postID, userID, content string, parentID *string) (*domain.Comment, error)
	GetCommentsByPostID(ctx context.Context, postID, viewerID string) ([]*domain.Comment, error)
	ToggleCommentLike(ctx context.Context, commentID, userID string) (*community.LikeResult, error)
	DeleteComment(ctx context.Context, commentID, userID string) error
}

// CommunityHandler serves /community. Every success body is a dtos.Envelope.
type CommunityHandler struct {
	posts    PostManager
	comments CommentManager
	logger   Logger
}

func NewCommunityHandler(posts PostManager, comments CommentManager, logger Logger) *CommunityHandler {
	return &CommunityHandler{posts: posts, comments: comments, logger: logger}
}

func (h *CommunityHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	post, err := h.posts.CreatePost(r.Context(), middleware.UserIDFrom(r.Context()), community.CreatePostInput{
		ChatRoomID: req.ChatRoomID,
		Title:      req.Title,
		Tags:       req.Tags,
		IsPublic:   req.IsPublic,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, http.StatusCreated, post, "게시글이 작성되었습니다")
}

// ListPosts reads filters from the query string; tags may repeat or be comma separated.
func (h *CommunityHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	var tags []string
	for _, raw := range q["tags"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	page, err := h.posts.GetPosts(r.Context(), community.PostQuery{
		Tags:      tags,
		BotGender: domain.BotGender(q.Get("botGender")),
		BotStyle:  domain.BotStyle(q.Get("botStyle")),
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		Cursor:    q.Get("cursor"),
		Limit:     limit,
	}, middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, http.StatusOK, page, "")
}

func (h *CommunityHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetPostByID(r.Context(), mux.Vars(r)["postId"], middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, http.StatusOK, post, "")
}

func (h *CommunityHandler) TogglePostLike(w http.ResponseWriter, r *http.Request) {
	result, err := h.posts.ToggleLike(r.Context(), mux.Vars(r)["postId"], middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, http.StatusOK, result, "")
}

func (h *CommunityHandler) TogglePostBookmark(w http.ResponseWriter, r *http.Request) {
	result, err := h.posts.ToggleBookmark(r.Context(), mux.Vars(r)["postId"], middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, http.StatusOK, result, "")
}

func (h *CommunityHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	comment, err := h.comments.CreateComment(r.Context(), mux.Vars(r)["postId"], middleware.UserIDFrom(r.Context()), req.Content, req.ParentID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, http.StatusCreated, comment, "댓글이 작성되었습니다")
}

func (h *CommunityHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.GetCommentsByPostID(r.Context(), mux.Vars(r)["postId"], middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if comments == nil {
		comments = []*domain.Comment{}
	}
	writeEnvelope(w, http.StatusOK, comments, "")
}

func (h *CommunityHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	result, err := h.comments.ToggleCommentLike(r.Context(), mux.Vars(r)["commentId"], middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, http.StatusOK, result, "")
}

func (h *CommunityHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.comments.DeleteComment(r.Context(), mux.Vars(r)["commentId"], middleware.UserIDFrom(r.Context())); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeEnvelope(w, http.StatusOK, nil, "댓글이 삭제되었습니다")
}

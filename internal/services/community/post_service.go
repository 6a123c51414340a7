package community

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
	repo "github.com/iyunix/go-dreamer/internal/repository/community"
)

var titleNoise = regexp.MustCompile(`[^A-Za-z0-9_\s가-힣]`)

type PostService struct {
	posts    repo.CommunityRepository
	rooms    RoomReader
	messages MessageReader
	images   ImageReader
	logger   Logger
	now      func() time.Time
}

func NewPostService(posts repo.CommunityRepository, rooms RoomReader, messages MessageReader, images ImageReader, logger Logger) *PostService {
	return &PostService{posts: posts, rooms: rooms, messages: messages, images: images, logger: logger, now: time.Now}
}

// CreatePost publishes the dream and interpretation of one of the user's rooms.
func (s *PostService) CreatePost(ctx context.Context, userID string, in CreatePostInput) (*domain.Post, error) {
	const op = "PostService.CreatePost"
	room, err := s.rooms.FindByID(ctx, in.ChatRoomID)
	if err != nil || room.UserID != userID {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NewInternalError(op, "could not load chat room", err)
		}
		return nil, apperr.NewNotFoundError(op, msgRoomNotFound)
	}

	dream, interpretation, err := s.dreamPair(ctx, room.ID)
	if err != nil {
		return nil, apperr.NewInternalError(op, "could not load messages", err)
	}
	if dream == nil || interpretation == nil {
		return nil, apperr.NewForbiddenError(op, msgNoInterpreted)
	}

	post := &domain.Post{
		UserID:                userID,
		ChatRoomID:            room.ID,
		DreamContent:          dream.Content,
		InterpretationContent: interpretation.Content,
		BotGender:             room.BotSettings.Gender,
		BotStyle:              room.BotSettings.Style,
		Title:                 strings.TrimSpace(in.Title),
		Tags:                  normalizeTags(in.Tags),
		IsPublic:              in.IsPublic == nil || *in.IsPublic,
	}
	img, err := s.images.FindLatestImageForRoom(ctx, room.ID)
	switch {
	case err == nil:
		post.ImageURL = img.ImageURL
		post.IsPremium = img.IsPremium
		if img.BotGender != "" {
			post.BotGender = img.BotGender
		}
		if img.BotStyle != "" {
			post.BotStyle = img.BotStyle
		}
	case !errors.Is(err, repository.ErrNotFound):
		s.logger.Warn("could not load room image for post", "room_id", room.ID, "error", err)
	}
	if post.Title == "" {
		post.Title = TitleFromDream(dream.Content)
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.logger.Error("post creation failed", "user_id", userID, "room_id", room.ID, "error", err)
		return nil, apperr.NewInternalError(op, "게시글 생성에 실패했습니다", err)
	}
	s.logger.Info("post created", "post_id", post.ID, "user_id", userID, "public", post.IsPublic)
	return post, nil
}

// dreamPair finds the first user message and the interpretation that answered it.
// The first bot message flagged as an interpretation wins, otherwise the latest bot reply.
func (s *PostService) dreamPair(ctx context.Context, roomID string) (*domain.Message, *domain.Message, error) {
	users, err := s.messages.FindAllByType(ctx, roomID, domain.MessageTypeUser)
	if err != nil {
		return nil, nil, err
	}
	bots, err := s.messages.FindAllByType(ctx, roomID, domain.MessageTypeBot)
	if err != nil {
		return nil, nil, err
	}
	if len(users) == 0 || len(bots) == 0 {
		return nil, nil, nil
	}
	interpretation := &bots[len(bots)-1]
	for i := range bots {
		if bots[i].Interpretation {
			interpretation = &bots[i]
			break
		}
	}
	return &users[0], interpretation, nil
}

// TitleFromDream builds a title from the first eight words of the dream.
func TitleFromDream(dream string) string {
	cleaned := strings.TrimSpace(titleNoise.ReplaceAllString(dream, ""))
	words := strings.Fields(cleaned)
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	title := []rune(strings.Join(words, " "))
	if len(title) > maxTitleRunes {
		return string(title[:maxTitleRunes-3]) + "..."
	}
	if len(title) == 0 {
		return defaultPostTitle
	}
	return string(title)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// GetPosts returns a page of public posts decorated for the viewer.
func (s *PostService) GetPosts(ctx context.Context, q PostQuery, viewerID string) (*PostPage, error) {
	const op = "PostService.GetPosts"
	filter, err := s.filterFor(q)
	if err != nil {
		return nil, apperr.NewValidationError(op, err.Error())
	}
	limit := filter.Limit
	filter.Limit = limit + 1

	posts, err := s.posts.ListPublicPosts(ctx, filter)
	if err != nil {
		return nil, apperr.NewInternalError(op, "게시글 목록 조회에 실패했습니다", err)
	}

	page := &PostPage{}
	if len(posts) > limit {
		page.HasMore = true
		posts = posts[:limit]
		page.NextCursor = encodeCursor(filter.Sort, posts[len(posts)-1])
	}
	if err := s.decorate(ctx, posts, viewerID); err != nil {
		return nil, apperr.NewInternalError(op, "게시글 목록 조회에 실패했습니다", err)
	}
	page.Posts = posts
	return page, nil
}

func (s *PostService) filterFor(q PostQuery) (repo.PostFilter, error) {
	f := repo.PostFilter{
		Tags:      normalizeTags(q.Tags),
		BotGender: q.BotGender,
		BotStyle:  q.BotStyle,
		Search:    strings.TrimSpace(q.Search),
		Limit:     q.Limit,
	}
	if f.Limit == 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit < 1 || f.Limit > maxPageSize {
		return f, fmt.Errorf("limit must be between 1 and %d", maxPageSize)
	}
	if f.BotGender != "" && !f.BotGender.Valid() {
		return f, fmt.Errorf("invalid botGender: %s", f.BotGender)
	}
	if f.BotStyle != "" && !f.BotStyle.Valid() {
		return f, fmt.Errorf("invalid botStyle: %s", f.BotStyle)
	}
	switch repo.SortOrder(q.SortBy) {
	case "", repo.SortLatest:
		f.Sort = repo.SortLatest
	case repo.SortPopular:
		f.Sort = repo.SortPopular
	case repo.SortTrending:
		f.Sort = repo.SortTrending
		since := s.now().Add(-24 * time.Hour)
		f.Since = &since
	default:
		return f, fmt.Errorf("invalid sortBy: %s", q.SortBy)
	}
	if q.Cursor != "" {
		c, err := parseCursor(f.Sort, q.Cursor)
		if err != nil {
			return f, fmt.Errorf("invalid cursor: %s", q.Cursor)
		}
		f.Cursor = c
	}
	return f, nil
}

// encodeCursor writes "<createdAt>_<id>", prefixed with "<likes>_" for the like-ordered feeds.
func encodeCursor(sort repo.SortOrder, last domain.Post) string {
	c := last.CreatedAt.UTC().Format(time.RFC3339Nano) + "_" + last.ID
	if sort == repo.SortLatest {
		return c
	}
	return strconv.Itoa(last.LikesCount) + "_" + c
}

// parseCursor also accepts a bare timestamp for the latest feed.
func parseCursor(sort repo.SortOrder, raw string) (*repo.PostCursor, error) {
	parts := strings.Split(raw, "_")
	c := &repo.PostCursor{}
	if sort != repo.SortLatest {
		if len(parts) != 3 {
			return nil, errors.New("malformed cursor")
		}
		likes, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, err
		}
		c.LikesCount = likes
		parts = parts[1:]
	}
	if len(parts) > 2 {
		return nil, errors.New("malformed cursor")
	}
	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, err
	}
	c.CreatedAt = t
	if len(parts) == 2 {
		c.ID = parts[1]
	}
	return c, nil
}

// GetPostByID counts a view and returns the post with rendered HTML.
// Private posts are only visible to their owner.
func (s *PostService) GetPostByID(ctx context.Context, postID, viewerID string) (*domain.Post, error) {
	const op = "PostService.GetPostByID"
	post, err := s.visiblePost(ctx, op, postID, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.posts.IncrementViews(ctx, post.ID); err != nil {
		s.logger.Warn("view count update failed", "post_id", post.ID, "error", err)
	} else {
		post.ViewsCount++
	}

	one := []domain.Post{*post}
	if err := s.decorate(ctx, one, viewerID); err != nil {
		return nil, apperr.NewInternalError(op, "게시글 조회에 실패했습니다", err)
	}
	out := &one[0]
	if html, err := renderMarkdown(out.InterpretationContent); err != nil {
		s.logger.Warn("markdown render failed", "post_id", out.ID, "error", err)
	} else {
		out.InterpretationHTML = html
	}
	return out, nil
}

func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (*LikeResult, error) {
	const op = "PostService.ToggleLike"
	if _, err := s.visiblePost(ctx, op, postID, userID); err != nil {
		return nil, err
	}
	liked, count, err := s.posts.TogglePostLike(ctx, postID, userID)
	if err != nil {
		return nil, apperr.NewInternalError(op, "좋아요 처리에 실패했습니다", err)
	}
	return &LikeResult{IsLiked: liked, LikesCount: count}, nil
}

func (s *PostService) ToggleBookmark(ctx context.Context, postID, userID string) (*BookmarkResult, error) {
	const op = "PostService.ToggleBookmark"
	if _, err := s.visiblePost(ctx, op, postID, userID); err != nil {
		return nil, err
	}
	bookmarked, err := s.posts.TogglePostBookmark(ctx, postID, userID)
	if err != nil {
		return nil, apperr.NewInternalError(op, "북마크 처리에 실패했습니다", err)
	}
	return &BookmarkResult{IsBookmarked: bookmarked}, nil
}

// visiblePost hides another user's private post behind the same not-found error as a missing one.
func (s *PostService) visiblePost(ctx context.Context, op, postID, viewerID string) (*domain.Post, error) {
	post, err := s.findPost(ctx, op, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsPublic && post.UserID != viewerID {
		return nil, apperr.NewNotFoundError(op, msgPostNotFound)
	}
	return post, nil
}

func (s *PostService) findPost(ctx context.Context, op, postID string) (*domain.Post, error) {
	post, err := s.posts.FindPostByID(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NewNotFoundError(op, msgPostNotFound)
	}
	if err != nil {
		return nil, apperr.NewInternalError(op, "게시글 조회에 실패했습니다", err)
	}
	return post, nil
}

func (s *PostService) decorate(ctx context.Context, posts []domain.Post, viewerID string) error {
	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		posts[i].User = domain.AuthorOf(posts[i].Owner)
		if posts[i].Tags == nil {
			posts[i].Tags = []string{}
		}
	}
	if viewerID == "" || len(posts) == 0 {
		return nil
	}
	liked, err := s.posts.LikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	bookmarked, err := s.posts.BookmarkedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].IsLiked = liked[posts[i].ID]
		posts[i].IsBookmarked = bookmarked[posts[i].ID]
	}
	return nil
}

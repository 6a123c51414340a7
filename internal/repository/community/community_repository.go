package community

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
)

const decrementLikes = "CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END"

type gormCommunityRepository struct {
	db *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &gormCommunityRepository{db: db}
}

// CreatePost stores the post and one PostTag row per distinct tag.
func (r *gormCommunityRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Owner").Create(post).Error; err != nil {
			log.Printf("[CommunityRepository] Creating post for room %s failed: %v", post.ChatRoomID, err)
			return repository.TranslateError(err)
		}
		seen := map[string]bool{}
		var tags []domain.PostTag
		for _, tag := range post.Tags {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			tags = append(tags, domain.PostTag{PostID: post.ID, Tag: tag})
		}
		if len(tags) == 0 {
			return nil
		}
		return tx.Create(&tags).Error
	})
}

func (r *gormCommunityRepository) ListPublicPosts(ctx context.Context, f PostFilter) ([]domain.Post, error) {
	q := r.db.WithContext(ctx).Model(&domain.Post{}).Preload("Owner").Where("is_public = ?", true)

	if len(f.Tags) > 0 {
		q = q.Where("id IN (?)", r.db.Model(&domain.PostTag{}).Select("post_id").Where("tag IN ?", f.Tags))
	}
	if f.BotGender != "" {
		q = q.Where("bot_gender = ?", f.BotGender)
	}
	if f.BotStyle != "" {
		q = q.Where("bot_style = ?", f.BotStyle)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(dream_content) LIKE ? OR LOWER(interpretation_content) LIKE ?", like, like)
	}
	byLikes := f.Sort == SortPopular || f.Sort == SortTrending
	if c := f.Cursor; c != nil {
		// keyset on the whole sort key
		if byLikes {
			q = q.Where("(likes_count < ? OR (likes_count = ? AND (created_at < ? OR (created_at = ? AND id < ?))))",
				c.LikesCount, c.LikesCount, c.CreatedAt, c.CreatedAt, c.ID)
		} else {
			q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", c.CreatedAt, c.CreatedAt, c.ID)
		}
	}
	if f.Sort == SortTrending && f.Since != nil {
		q = q.Where("created_at >= ?", *f.Since)
	}

	if byLikes {
		q = q.Order("likes_count desc")
	}
	q = q.Order("created_at desc").Order("id desc")

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	var posts []domain.Post
	if err := q.Limit(limit).Find(&posts).Error; err != nil {
		log.Printf("[CommunityRepository] Listing posts failed: %v", err)
		return nil, fmt.Errorf("database error listing posts: %w", err)
	}
	return posts, nil
}

func (r *gormCommunityRepository) FindPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).Preload("Owner").Where("id = ?", id).First(&post).Error
	if err != nil {
		return nil, repository.TranslateError(err)
	}
	return &post, nil
}

func (r *gormCommunityRepository) IncrementViews(ctx context.Context, postID string) error {
	return r.db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", postID).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1)).Error
}

func (r *gormCommunityRepository) LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	return r.markedIDs(ctx, &domain.Like{}, "post_id", userID, postIDs)
}

func (r *gormCommunityRepository) BookmarkedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	return r.markedIDs(ctx, &domain.Bookmark{}, "post_id", userID, postIDs)
}

func (r *gormCommunityRepository) LikedCommentIDs(ctx context.Context, userID string, commentIDs []string) (map[string]bool, error) {
	return r.markedIDs(ctx, &domain.Like{}, "comment_id", userID, commentIDs)
}

func (r *gormCommunityRepository) markedIDs(ctx context.Context, model interface{}, column, userID string, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if userID == "" || len(ids) == 0 {
		return out, nil
	}
	var hits []string
	err := r.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND "+column+" IN ?", userID, ids).
		Pluck(column, &hits).Error
	if err != nil {
		return nil, err
	}
	for _, id := range hits {
		out[id] = true
	}
	return out, nil
}

func (r *gormCommunityRepository) TogglePostLike(ctx context.Context, postID, userID string) (bool, int, error) {
	var (
		liked bool
		count int
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var like domain.Like
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&like).Error
		switch {
		case err == nil:
			if err := tx.Delete(&like).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.Post{}).Where("id = ?", postID).
				UpdateColumn("likes_count", gorm.Expr(decrementLikes)).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			pid := postID
			if err := tx.Create(&domain.Like{UserID: userID, PostID: &pid}).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.Post{}).Where("id = ?", postID).
				UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error; err != nil {
				return err
			}
			liked = true
		default:
			return err
		}
		return tx.Model(&domain.Post{}).Where("id = ?", postID).Select("likes_count").Scan(&count).Error
	})
	if err != nil {
		log.Printf("[CommunityRepository] Toggling like on post %s failed: %v", postID, err)
		return false, 0, repository.TranslateError(err)
	}
	return liked, count, nil
}

func (r *gormCommunityRepository) TogglePostBookmark(ctx context.Context, postID, userID string) (bool, error) {
	var bookmarked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b domain.Bookmark
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&b).Error
		switch {
		case err == nil:
			return tx.Delete(&b).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			bookmarked = true
			return tx.Create(&domain.Bookmark{UserID: userID, PostID: postID}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, repository.TranslateError(err)
	}
	return bookmarked, nil
}

// CreateComment stores the comment and bumps the post's comment counter.
func (r *gormCommunityRepository) CreateComment(ctx context.Context, comment *domain.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Owner").Create(comment).Error; err != nil {
			log.Printf("[CommunityRepository] Creating comment on post %s failed: %v", comment.PostID, err)
			return err
		}
		return tx.Model(&domain.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1)).Error
	})
}

func (r *gormCommunityRepository) FindCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	var c domain.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, repository.TranslateError(err)
	}
	return &c, nil
}

func (r *gormCommunityRepository) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := r.db.WithContext(ctx).Preload("Owner").
		Where("post_id = ?", postID).
		Order("created_at asc").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("database error listing comments: %w", err)
	}
	return comments, nil
}

func (r *gormCommunityRepository) ToggleCommentLike(ctx context.Context, commentID, userID string) (bool, int, error) {
	var (
		liked bool
		count int
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var like domain.Like
		err := tx.Where("user_id = ? AND comment_id = ?", userID, commentID).First(&like).Error
		switch {
		case err == nil:
			if err := tx.Delete(&like).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.Comment{}).Where("id = ?", commentID).
				UpdateColumn("likes_count", gorm.Expr(decrementLikes)).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			cid := commentID
			if err := tx.Create(&domain.Like{UserID: userID, CommentID: &cid}).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.Comment{}).Where("id = ?", commentID).
				UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error; err != nil {
				return err
			}
			liked = true
		default:
			return err
		}
		return tx.Model(&domain.Comment{}).Where("id = ?", commentID).Select("likes_count").Scan(&count).Error
	})
	if err != nil {
		return false, 0, repository.TranslateError(err)
	}
	return liked, count, nil
}

// DeleteCommentTree removes the comment, every descendant reply and their likes,
// and lowers the post's comment counter by the number removed.
func (r *gormCommunityRepository) DeleteCommentTree(ctx context.Context, commentID string) (int, error) {
	var removed int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root domain.Comment
		if err := tx.Where("id = ?", commentID).First(&root).Error; err != nil {
			return err
		}

		ids := []string{root.ID}
		frontier := []string{root.ID}
		for len(frontier) > 0 {
			var children []string
			if err := tx.Model(&domain.Comment{}).Where("parent_comment_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}

		if err := tx.Where("comment_id IN ?", ids).Delete(&domain.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		removed = len(ids)
		return tx.Model(&domain.Post{}).Where("id = ?", root.PostID).
			UpdateColumn("comments_count", gorm.Expr("CASE WHEN comments_count >= ? THEN comments_count - ? ELSE 0 END", removed, removed)).Error
	})
	if err != nil {
		return 0, repository.TranslateError(err)
	}
	return removed, nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Author is the public slice of a user shown next to posts and comments.
type Author struct {
	ID              string `json:"id"`
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

func AuthorOf(u *User) *Author {
	if u == nil {
		return nil
	}
	return &Author{ID: u.ID, Nickname: u.Nickname, ProfileImageURL: u.ProfileImageURL}
}

type Post struct {
	ID                    string                      `gorm:"primaryKey;size:36" json:"id"`
	UserID                string                      `gorm:"size:36;not null;index" json:"userId"`
	ChatRoomID            string                      `gorm:"size:36;not null;index" json:"chatRoomId"`
	DreamContent          string                      `gorm:"type:text;not null" json:"dreamContent"`
	InterpretationContent string                      `gorm:"type:text;not null" json:"interpretationContent"`
	ImageURL              string                      `gorm:"size:2048" json:"imageUrl,omitempty"`
	BotGender             BotGender                   `gorm:"size:10;index" json:"botGender"`
	BotStyle              BotStyle                    `gorm:"size:10;index" json:"botStyle"`
	Title                 string                      `gorm:"size:255" json:"title"`
	Tags                  datatypes.JSONSlice[string] `json:"tags"`
	IsPublic              bool                        `gorm:"not null;index" json:"isPublic"`
	IsPremium             bool                        `gorm:"not null;default:false" json:"isPremium"`
	LikesCount            int                         `gorm:"not null;default:0" json:"likesCount"`
	CommentsCount         int                         `gorm:"not null;default:0" json:"commentsCount"`
	ViewsCount            int                         `gorm:"not null;default:0" json:"viewsCount"`
	CreatedAt             time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt             time.Time                   `json:"updatedAt"`

	Owner *User `gorm:"foreignKey:UserID" json:"-"`

	User               *Author `gorm:"-" json:"user,omitempty"`
	IsLiked            bool    `gorm:"-" json:"isLiked"`
	IsBookmarked       bool    `gorm:"-" json:"isBookmarked"`
	InterpretationHTML string  `gorm:"-" json:"interpretationHtml,omitempty"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type PostTag struct {
	PostID string `gorm:"primaryKey;size:36"`
	Tag    string `gorm:"primaryKey;size:50;index"`
}

type Comment struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	PostID          string    `gorm:"size:36;not null;index" json:"postId"`
	UserID          string    `gorm:"size:36;not null;index" json:"userId"`
	ParentCommentID *string   `gorm:"size:36;index" json:"parentCommentId,omitempty"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	LikesCount      int       `gorm:"not null;default:0" json:"likesCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Owner *User `gorm:"foreignKey:UserID" json:"-"`

	User    *Author    `gorm:"-" json:"user,omitempty"`
	IsLiked bool       `gorm:"-" json:"isLiked"`
	Replies []*Comment `gorm:"-" json:"replies"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Like targets either a post or a comment; exactly one of the ids is set.
type Like struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_likes_user_post;uniqueIndex:idx_likes_user_comment"`
	PostID    *string   `gorm:"size:36;uniqueIndex:idx_likes_user_post"`
	CommentID *string   `gorm:"size:36;uniqueIndex:idx_likes_user_comment"`
	CreatedAt time.Time
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

type Bookmark struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;not null;uniqueIndex:idx_bookmarks_user_post"`
	PostID    string `gorm:"size:36;not null;uniqueIndex:idx_bookmarks_user_post"`
	CreatedAt time.Time
}

func (b *Bookmark) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

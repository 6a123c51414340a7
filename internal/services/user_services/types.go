package user_services

import (
	"context"
	"time"

	"github.com/iyunix/go-dreamer/internal/auth"
	"github.com/iyunix/go-dreamer/internal/domain"
)

// Logger interface for all user services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// AuthResult is returned by every flow that signs a user in.
type AuthResult struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
}

func newAuthResult(u *domain.User, pair *auth.TokenPair) *AuthResult {
	return &AuthResult{User: u, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, ExpiresIn: pair.ExpiresIn}
}

type UserStats struct {
	TotalDreamInterpretations   int64      `json:"totalDreamInterpretations"`
	TotalImagesGenerated        int64      `json:"totalImagesGenerated"`
	TotalChatRooms              int64      `json:"totalChatRooms"`
	CurrentMonthInterpretations int64      `json:"currentMonthInterpretations"`
	IsPremiumUser               bool       `json:"isPremiumUser"`
	JoinedDate                  time.Time  `json:"joinedDate"`
	LastActivityDate            *time.Time `json:"lastActivityDate,omitempty"`
}

type UserProfile struct {
	User  *domain.User `json:"user"`
	Stats UserStats    `json:"stats"`
}

// OAuthIdentity is what a provider callback resolves to.
type OAuthIdentity struct {
	Provider   domain.AuthProvider
	ProviderID string
	Email      string
	Nickname   string
}

// Stats sources for the profile page; satisfied by the chat, message and media repositories.
type RoomCounter interface {
	CountByUserID(ctx context.Context, userID string) (int64, error)
}

type MessageStats interface {
	CountBotMessagesByUser(ctx context.Context, userID string, since *time.Time) (int64, error)
	LastActivityByUser(ctx context.Context, userID string) (*time.Time, error)
}

type ImageCounter interface {
	CountImagesByUser(ctx context.Context, userID string) (int64, error)
}

// mask keeps the first four characters of an identifier for logs.
func mask(s string) string {
	return s[:min(4, len(s))] + "****"
}

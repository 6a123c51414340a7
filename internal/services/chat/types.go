package chat

import (
	"context"

	"github.com/iyunix/go-dreamer/internal/domain"
)

// Logger defines the logging interface used across chat services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// PremiumChecker answers whether a user currently has a premium subscription.
type PremiumChecker interface {
	IsPremiumUser(ctx context.Context, userID string) (bool, error)
}

// BotSettingsInput selects a persona by gender and style.
type BotSettingsInput struct {
	Gender domain.BotGender `json:"gender"`
	Style  domain.BotStyle  `json:"style"`
}

type SendResult struct {
	UserMessage *domain.Message `json:"userMessage"`
	BotMessage  *domain.Message `json:"botMessage"`
}

type RoomMessages struct {
	ChatRoom      *domain.ChatRoom `json:"chatRoom"`
	Messages      []domain.Message `json:"messages"`
	TotalMessages int64            `json:"totalMessages"`
}

// ImageResult is the outcome of an on-demand image request. Failures are
// reported here rather than as errors.
type ImageResult struct {
	Success         bool            `json:"success"`
	ImageURL        string          `json:"imageUrl,omitempty"`
	Message         string          `json:"message"`
	IsPremium       bool            `json:"isPremium"`
	UpgradeRequired bool            `json:"upgradeRequired,omitempty"`
	ImageMessage    *domain.Message `json:"imageMessage,omitempty"`
}

type VideoResult struct {
	VideoURL       string            `json:"videoUrl"`
	Provider       string            `json:"provider"`
	Title          string            `json:"title"`
	Interpretation string            `json:"interpretation"`
	DreamContent   string            `json:"dreamContent"`
	Style          domain.VideoStyle `json:"style"`
	CreatedAt      string            `json:"createdAt"`
}

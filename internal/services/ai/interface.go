// File: internal/services/ai/interface.go
package ai

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string
	Content string
}

type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float32
}

type ImageRequest struct {
	Model   string
	Prompt  string
	Size    string
	Quality string
	// Style is "natural" or "vivid"
	Style string
}

// CompletionProvider handles chat completions
type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ImageProvider turns a prompt into a hosted image URL.
type ImageProvider interface {
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
}

// Logger defines the logging interface used across AI services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

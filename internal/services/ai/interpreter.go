package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/services/persona"
)

// Interpreter produces dream interpretations in the voice of a persona.
// It never fails: backend problems become apology text.
type Interpreter struct {
	completion CompletionProvider
	personas   *persona.Catalog
	config     *Config
	logger     Logger
}

func NewInterpreter(completion CompletionProvider, personas *persona.Catalog, config *Config, logger Logger) *Interpreter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Interpreter{completion: completion, personas: personas, config: config, logger: logger}
}

// BuildMessages assembles system prompt, prior turns and the templated user turn.
func (i *Interpreter) BuildMessages(dream string, settings domain.BotSettings, history []domain.Message) []ChatMessage {
	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: RoleSystem, Content: i.personas.PromptFor(settings.Gender, settings.Style)})

	for _, m := range history {
		switch m.Type {
		case domain.MessageTypeUser:
			messages = append(messages, ChatMessage{Role: RoleUser, Content: m.Content})
		case domain.MessageTypeBot:
			messages = append(messages, ChatMessage{Role: RoleAssistant, Content: StripImageSuffix(m.Content)})
		}
	}

	messages = append(messages, ChatMessage{Role: RoleUser, Content: i.personas.AnalysisPrompt(dream)})
	return messages
}

func (i *Interpreter) GenerateDreamInterpretation(ctx context.Context, dream string, settings domain.BotSettings, history []domain.Message) string {
	reply, err := i.completion.Complete(ctx, CompletionRequest{
		Model:       i.config.ChatModel,
		Messages:    i.BuildMessages(dream, settings, history),
		MaxTokens:   i.config.MaxTokens,
		Temperature: i.config.Temperature,
	})
	if err != nil {
		if errors.Is(err, ErrEmptyResponse) {
			i.logger.Warn("Empty interpretation from model", "model", i.config.ChatModel)
			return EmptyReplyText
		}
		aiErr := Classify("interpretation", err)
		i.logger.Error("Interpretation failed", "type", aiErr.Type, "code", aiErr.Code, "error", aiErr)
		return UnavailableText
	}
	if strings.TrimSpace(reply) == "" {
		return EmptyReplyText
	}
	return reply
}

// SummarizeInterpretation condenses an interpretation for image prompts.
// On any failure the input is returned unchanged.
func (i *Interpreter) SummarizeInterpretation(ctx context.Context, interpretation string) string {
	text := StripImageSuffix(interpretation)
	summary, err := i.completion.Complete(ctx, CompletionRequest{
		Model: i.config.ChatModel,
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: summarySystem},
			{Role: RoleUser, Content: summaryUserLabel + text},
		},
		MaxTokens:   i.config.SummaryMaxTokens,
		Temperature: i.config.SummaryTemperature,
	})
	if err != nil || strings.TrimSpace(summary) == "" {
		if err != nil {
			i.logger.Warn("Summary failed, using full interpretation", "error", err)
		}
		return interpretation
	}
	return strings.TrimSpace(summary)
}

func (i *Interpreter) WelcomeMessage(settings domain.BotSettings) string {
	return i.personas.WelcomeFor(settings.Gender, settings.Style)
}

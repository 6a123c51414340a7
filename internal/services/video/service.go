package video

import (
	"context"
	"fmt"
	"strings"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/services/ai"
	"github.com/iyunix/go-dreamer/internal/services/persona"
)

const (
	interpretationMaxTokens   = 300
	interpretationTemperature = 0.7
)

// Service builds the prompt, title and narration for a dream clip and runs the chain.
type Service struct {
	chain      *Chain
	completion ai.CompletionProvider
	personas   *persona.Catalog
	model      string
	logger     Logger
}

func NewService(chain *Chain, completion ai.CompletionProvider, personas *persona.Catalog, model string, logger Logger) *Service {
	return &Service{chain: chain, completion: completion, personas: personas, model: model, logger: logger}
}

// BuildPrompt describes a ten-second vertical clip of the dream.
func (s *Service) BuildPrompt(dream string, settings domain.BotSettings) string {
	return fmt.Sprintf("Dream scene: %s. %s, dynamic camera movement, flowing transitions, mystical atmosphere, ethereal particles floating, gentle morphing effects, dreamy lighting changes, cinematic quality, vertical 9:16 format, surreal and enchanting environment, smooth 10-second narrative flow",
		strings.TrimSpace(dream), s.personas.VideoStyleFor(settings.Style))
}

// Title uses the first three space-separated words of the dream.
func Title(dream string) string {
	words := strings.Fields(dream)
	if len(words) > 3 {
		words = words[:3]
	}
	return fmt.Sprintf("🌙 꿈해몽: %s에 대한 꿈의 의미", strings.Join(words, " "))
}

// StaticInterpretation is the narration used when the model gives nothing back.
func StaticInterpretation(dream string) string {
	return fmt.Sprintf("%s에 대한 꿈 해몽: 이 꿈은 당신의 내면 세계와 현재 상황을 반영합니다.", strings.TrimSpace(dream))
}

// Interpretation asks the persona for a short reading to accompany the clip.
func (s *Service) Interpretation(ctx context.Context, dream string, settings domain.BotSettings) string {
	if s.completion == nil {
		return StaticInterpretation(dream)
	}
	p := s.personas.Get(settings.Gender, settings.Style)
	traits := p.Traits
	system := fmt.Sprintf("당신은 %s입니다. %s 접근법의 %s %s로 꿈을 해석해주세요.", p.DisplayName, traits.Approach, p.DisplayName, traits.Tone)

	out, err := s.completion.Complete(ctx, ai.CompletionRequest{
		Model: s.model,
		Messages: []ai.ChatMessage{
			{Role: ai.RoleSystem, Content: system},
			{Role: ai.RoleUser, Content: "다음 꿈을 해석해주세요: " + dream},
		},
		MaxTokens:   interpretationMaxTokens,
		Temperature: interpretationTemperature,
	})
	if err != nil || strings.TrimSpace(out) == "" {
		if err != nil {
			s.logger.Warn("Video narration failed, using static text", "error", err)
		}
		return StaticInterpretation(dream)
	}
	return strings.TrimSpace(out)
}

func (s *Service) GenerateDreamVideo(ctx context.Context, dream string, settings domain.BotSettings) (*Result, error) {
	return s.chain.Generate(ctx, s.BuildPrompt(dream, settings))
}

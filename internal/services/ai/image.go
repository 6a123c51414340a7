package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/services/persona"
)

const maxPromptDreamRunes = 200

var (
	promptSymbols    = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?]`)
	promptWhitespace = regexp.MustCompile(`\s+`)
)

// ImageGenerator renders dreams and persona greetings as images.
// Failures are logged and reported as an empty URL.
type ImageGenerator struct {
	images   ImageProvider
	personas *persona.Catalog
	model    string
	logger   Logger
}

func NewImageGenerator(images ImageProvider, personas *persona.Catalog, model string, logger Logger) *ImageGenerator {
	if model == "" {
		model = "dall-e-3"
	}
	return &ImageGenerator{images: images, personas: personas, model: model, logger: logger}
}

func (g *ImageGenerator) Model() string { return g.model }

// CleanDreamContent strips symbols, collapses whitespace and caps the length.
func CleanDreamContent(content string) string {
	cleaned := promptSymbols.ReplaceAllString(content, "")
	cleaned = strings.TrimSpace(promptWhitespace.ReplaceAllString(cleaned, " "))
	if r := []rune(cleaned); len(r) > maxPromptDreamRunes {
		cleaned = string(r[:maxPromptDreamRunes]) + "..."
	}
	return cleaned
}

// BuildDreamImagePrompt is the DALL-E prompt for a dream; summary may be empty.
func (g *ImageGenerator) BuildDreamImagePrompt(dream, summary string, settings domain.BotSettings) string {
	prompt := fmt.Sprintf(
		"Create a dreamlike, artistic visualization of this dream: %q. %s The image should capture the symbolic and emotional essence of the dream rather than literal representation. Use soft, ethereal lighting and dream-like atmosphere.",
		CleanDreamContent(dream), g.personas.ImageStyleFor(settings.Style))
	if s := CleanDreamContent(summary); s != "" {
		prompt += " Key symbolism from the interpretation: " + s
	}
	return prompt
}

func imageStyle(style domain.BotStyle) string {
	if style == domain.BotStyleEastern {
		return ImageStyleNatural
	}
	return ImageStyleVivid
}

// GenerateDreamImage returns the prompt used and the image URL ("" on failure).
func (g *ImageGenerator) GenerateDreamImage(ctx context.Context, dream, summary string, settings domain.BotSettings) (prompt string, url string) {
	prompt = g.BuildDreamImagePrompt(dream, summary, settings)
	url, err := g.images.GenerateImage(ctx, ImageRequest{
		Model:   g.model,
		Prompt:  prompt,
		Size:    ImageSizeSquare,
		Quality: "standard",
		Style:   imageStyle(settings.Style),
	})
	if err != nil {
		aiErr := Classify("dream_image", err)
		g.logger.Error("Dream image generation failed", "type", aiErr.Type, "error", aiErr)
		return prompt, ""
	}
	return prompt, url
}

func (g *ImageGenerator) GenerateWelcomeImage(ctx context.Context, settings domain.BotSettings) string {
	url, err := g.images.GenerateImage(ctx, ImageRequest{
		Model:   g.model,
		Prompt:  g.personas.WelcomeImagePromptFor(settings.Gender, settings.Style),
		Size:    ImageSizeSquare,
		Quality: "standard",
		Style:   imageStyle(settings.Style),
	})
	if err != nil {
		g.logger.Warn("Welcome image generation failed", "error", err)
		return ""
	}
	return url
}

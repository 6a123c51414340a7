package video

import (
	"context"

	"github.com/iyunix/go-dreamer/internal/services/ai"
)

const stillPromptSuffix = ", cinematic style, vertical 9:16 aspect ratio, high quality, dreamlike atmosphere, suitable for video generation"

// StillImageProvider is the last resort: a single vertical DALL-E frame.
type StillImageProvider struct {
	images ai.ImageProvider
	model  string
}

func NewStillImageProvider(images ai.ImageProvider, model string) *StillImageProvider {
	if model == "" {
		model = "dall-e-3"
	}
	return &StillImageProvider{images: images, model: model}
}

func (p *StillImageProvider) Name() string { return p.model }

func (p *StillImageProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return p.images.GenerateImage(ctx, ai.ImageRequest{
		Model:   p.model,
		Prompt:  prompt + stillPromptSuffix,
		Size:    ai.ImageSizePortrait,
		Quality: "standard",
		Style:   ai.ImageStyleVivid,
	})
}

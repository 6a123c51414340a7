// Package video turns dreams into short clips through an ordered list of providers.
package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iyunix/go-dreamer/internal/services/ai"
)

// Provider is one way of producing a video (or still) URL from a prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

type Result struct {
	URL      string
	Provider string
}

// Logger defines the logging interface used by the video services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Chain tries providers in order and returns the first success.
type Chain struct {
	providers []Provider
	logger    Logger
}

func NewChain(logger Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, logger: logger}
}

func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Generate returns the first provider result. When all fail the error joins every
// classified cause in provider order.
func (c *Chain) Generate(ctx context.Context, prompt string) (*Result, error) {
	if len(c.providers) == 0 {
		return nil, ai.NewConfigError("no video providers configured")
	}

	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, ai.Classify(p.Name(), err))
			break
		}

		start := time.Now()
		url, err := p.Generate(ctx, prompt)
		if err == nil && url != "" {
			c.logger.Info("Video generated", "provider", p.Name(), "duration", time.Since(start))
			return &Result{URL: url, Provider: p.Name()}, nil
		}
		if err == nil {
			err = fmt.Errorf("%s returned no output: %w", p.Name(), ai.ErrEmptyResponse)
		}

		aiErr := ai.Classify(p.Name(), err)
		c.logger.Warn("Video provider failed, trying next", "provider", p.Name(), "type", aiErr.Type, "error", aiErr.Message)
		errs = append(errs, aiErr)
	}
	return nil, fmt.Errorf("all video providers failed: %w", errors.Join(errs...))
}

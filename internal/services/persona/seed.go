package persona

import (
	"context"
	"fmt"

	"github.com/iyunix/go-dreamer/internal/domain"
)

// Store is the persistence the seeder needs.
type Store interface {
	SeedSettings(ctx context.Context, settings []domain.BotSettings) error
	SeedPersonalities(ctx context.Context, personalities []domain.BotPersonality) error
}

// Seed inserts missing bot settings and personalities. Running it twice is a no-op.
func Seed(ctx context.Context, store Store, catalog *Catalog) error {
	if err := store.SeedSettings(ctx, catalog.Settings()); err != nil {
		return fmt.Errorf("seed personas: %w", err)
	}
	if err := store.SeedPersonalities(ctx, catalog.Personalities()); err != nil {
		return fmt.Errorf("seed personas: %w", err)
	}
	return nil
}

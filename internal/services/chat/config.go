package chat

import (
	"fmt"
	"time"
)

type Config struct {
	// Room acquisition
	MaxRetries     int           // attempts at find-or-create
	RetryBaseDelay time.Duration // backoff base, doubled per attempt
	DuplicateDelay time.Duration // wait before re-reading after a unique violation
	LeaseTTL       time.Duration // Redis lease lifetime
	LeaseWait      time.Duration // how long a lease loser polls for the winner's row

	// Listing
	DefaultRoomLimit    int
	MaxRoomLimit        int
	DefaultMessageLimit int
	MaxMessageLimit     int

	// Conversation
	HistoryLimit     int
	MaxMessageLength int // runes

	// Feature flags
	ImageGeneration bool
	VideoGeneration bool
}

func (c *Config) Validate() error {
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1")
	}
	if c.RetryBaseDelay < 0 || c.DuplicateDelay < 0 {
		return fmt.Errorf("delays cannot be negative")
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit cannot be negative")
	}
	if c.DefaultRoomLimit <= 0 || c.DefaultRoomLimit > c.MaxRoomLimit {
		return fmt.Errorf("default_room_limit must be within 1..%d", c.MaxRoomLimit)
	}
	if c.DefaultMessageLimit <= 0 || c.DefaultMessageLimit > c.MaxMessageLimit {
		return fmt.Errorf("default_message_limit must be within 1..%d", c.MaxMessageLimit)
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("max_message_length must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		MaxRetries:          3,
		RetryBaseDelay:      100 * time.Millisecond,
		DuplicateDelay:      50 * time.Millisecond,
		LeaseTTL:            5 * time.Second,
		LeaseWait:           300 * time.Millisecond,
		DefaultRoomLimit:    50,
		MaxRoomLimit:        100,
		DefaultMessageLimit: 100,
		MaxMessageLimit:     200,
		HistoryLimit:        8,
		MaxMessageLength:    2000,
		ImageGeneration:     true,
		VideoGeneration:     true,
	}
}

package chat

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/iyunix/go-dreamer/internal/domain"
)

// Gate collapses concurrent acquisitions of the same key into one call.
// singleflight drops the key once the call returns, so the next caller reads fresh state.
type Gate struct {
	group singleflight.Group
}

func NewGate() *Gate {
	return &Gate{}
}

// Do runs fn once per in-flight key. The shared call is detached from any single
// caller's cancellation; a caller whose ctx ends stops waiting but the call finishes.
// Each caller gets its own copy of the room.
func (g *Gate) Do(ctx context.Context, key string, fn func(ctx context.Context) (*domain.ChatRoom, error)) (*domain.ChatRoom, bool, error) {
	detached := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (interface{}, error) {
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Shared, res.Err
		}
		room := *res.Val.(*domain.ChatRoom)
		return &room, res.Shared, nil
	}
}

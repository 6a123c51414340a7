package message

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
	"github.com/iyunix/go-dreamer/internal/repository/repotest"
)

func seedRoom(t *testing.T, db *gorm.DB, userID, date string) *domain.ChatRoom {
	t.Helper()
	settings := domain.BotSettings{Gender: domain.BotGenderFemale, Style: domain.BotStyleEastern}
	require.NoError(t, db.FirstOrCreate(&settings, settings).Error)
	room := &domain.ChatRoom{UserID: userID, Date: date, BotSettingsID: settings.ID, IsActive: true}
	require.NoError(t, db.Omit("BotSettings").Create(room).Error)
	return room
}

func TestMessageRepository_RecentIsChronological(t *testing.T) {
	db := repotest.NewDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()
	room := seedRoom(t, db, "u1", "2026-10-18")

	base := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		typ := domain.MessageTypeUser
		if i%2 == 1 {
			typ = domain.MessageTypeBot
		}
		_, err := repo.Create(ctx, &domain.Message{ChatRoomID: room.ID, Type: typ, Content: string(rune('a' + i)), CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	recent, err := repo.FindRecentMessages(ctx, room.ID, 8)
	require.NoError(t, err)
	require.Len(t, recent, 8)
	assert.Equal(t, "e", recent[0].Content)
	assert.Equal(t, "l", recent[7].Content)

	latestUser, err := repo.FindLatestByType(ctx, room.ID, domain.MessageTypeUser)
	require.NoError(t, err)
	assert.Equal(t, "k", latestUser.Content)

	page, total, err := repo.FindByChatRoomIDWithPagination(ctx, room.ID, 5, 0, true)
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)
	assert.Equal(t, "a", page[0].Content)

	count, err := repo.CountBotMessagesByUser(ctx, "u1", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 6, count)

	since := base.Add(8 * time.Minute)
	count, err = repo.CountBotMessagesByUser(ctx, "u1", &since)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	last, err := repo.LastActivityByUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(base.Add(11*time.Minute)))
}

func TestMessageRepository_EmptyRoom(t *testing.T) {
	db := repotest.NewDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()
	room := seedRoom(t, db, "u1", "2026-10-18")

	_, err := repo.FindFirstMessage(ctx, room.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	last, err := repo.LastActivityByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, last)

	_, err = repo.Create(ctx, &domain.Message{ChatRoomID: room.ID, Type: "system", Content: "x"})
	assert.Error(t, err)
}

func TestMessageRepository_CreateIfEmpty(t *testing.T) {
	db := repotest.NewDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()
	room := seedRoom(t, db, "u1", "2026-10-18")

	first, created, err := repo.CreateIfEmpty(ctx, &domain.Message{ChatRoomID: room.ID, Type: domain.MessageTypeBot, Content: "welcome"})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := repo.CreateIfEmpty(ctx, &domain.Message{ChatRoomID: room.ID, Type: domain.MessageTypeBot, Content: "welcome again"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "welcome", again.Content)

	count, err := repo.CountByChatRoomID(ctx, room.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, _, err = repo.CreateIfEmpty(ctx, &domain.Message{ChatRoomID: "missing", Type: domain.MessageTypeBot, Content: "welcome"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

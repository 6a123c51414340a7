package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/domain"
	chatrepo "github.com/iyunix/go-dreamer/internal/repository/chat"
	"github.com/iyunix/go-dreamer/internal/repository/repotest"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.RetryBaseDelay = time.Millisecond
	cfg.DuplicateDelay = time.Millisecond
	cfg.LeaseWait = 3 * time.Millisecond
	return cfg
}

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newRoomService(t *testing.T, db *gorm.DB, rooms chatrepo.ChatRoomRepository) *RoomService {
	t.Helper()
	if rooms == nil {
		rooms = chatrepo.NewChatRoomRepository(db)
	}
	svc, err := NewRoomService(rooms, chatrepo.NewBotSettingsRepository(db), nil, testConfig(), nopLogger{})
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func countRooms(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.ChatRoom{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func TestGetTodaysChatRoom_CreatesWithDefaults(t *testing.T) {
	db := repotest.NewDB(t)
	repotest.SeedBotSettings(t, db)
	svc := newRoomService(t, db, nil)

	room, err := svc.GetTodaysChatRoom(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "2026-10-18", room.Date)
	assert.Equal(t, "2026-10-18 꿈 해몽", room.Title)
	assert.Equal(t, domain.BotGenderFemale, room.BotSettings.Gender)
	assert.Equal(t, domain.BotStyleEastern, room.BotSettings.Style)
	assert.True(t, room.IsActive)

	again, err := svc.GetTodaysChatRoom(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, room.ID, again.ID)
}

func TestGetTodaysChatRoom_ConcurrentCallersConverge(t *testing.T) {
	db := repotest.NewDB(t)
	repotest.SeedBotSettings(t, db)
	svc := newRoomService(t, db, nil)

	const callers = 25
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room, err := svc.GetTodaysChatRoom(context.Background(), "user-1")
			errs[i] = err
			if room != nil {
				ids[i] = room.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.EqualValues(t, 1, countRooms(t, db, "user-1"))
}

func TestGetTodaysChatRoom_SeparateServicesShareOneRow(t *testing.T) {
	// two services model two replicas with separate gates
	db := repotest.NewDB(t)
	repotest.SeedBotSettings(t, db)
	a := newRoomService(t, db, nil)
	b := newRoomService(t, db, nil)

	var wg sync.WaitGroup
	var idA, idB string
	wg.Add(2)
	go func() {
		defer wg.Done()
		r, err := a.GetTodaysChatRoom(context.Background(), "user-1")
		if assert.NoError(t, err) {
			idA = r.ID
		}
	}()
	go func() {
		defer wg.Done()
		r, err := b.GetTodaysChatRoom(context.Background(), "user-1")
		if assert.NoError(t, err) {
			idB = r.ID
		}
	}()
	wg.Wait()

	assert.Equal(t, idA, idB)
	assert.EqualValues(t, 1, countRooms(t, db, "user-1"))
}

// racingRooms inserts the row itself, as another replica would, and then
// reports the unique violation for the caller's own insert.
type racingRooms struct {
	chatrepo.ChatRoomRepository
	creates int32
}

func (r *racingRooms) Create(ctx context.Context, room *domain.ChatRoom) (*domain.ChatRoom, error) {
	atomic.AddInt32(&r.creates, 1)
	other := *room
	other.Title = "other replica"
	if _, err := r.ChatRoomRepository.Create(ctx, &other); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("insert chat room: %w",
		errors.New(`ERROR: duplicate key value violates unique constraint "idx_chat_rooms_user_date" (SQLSTATE 23505)`))
}

func TestGetTodaysChatRoom_DuplicateReturnsExistingRow(t *testing.T) {
	db := repotest.NewDB(t)
	repotest.SeedBotSettings(t, db)
	racing := &racingRooms{ChatRoomRepository: chatrepo.NewChatRoomRepository(db)}
	svc := newRoomService(t, db, racing)

	room, err := svc.GetTodaysChatRoom(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "other replica", room.Title)
	assert.EqualValues(t, 1, atomic.LoadInt32(&racing.creates))
	assert.EqualValues(t, 1, countRooms(t, db, "user-1"))
}

type failingRooms struct {
	chatrepo.ChatRoomRepository
	creates int32
}

func (r *failingRooms) Create(ctx context.Context, room *domain.ChatRoom) (*domain.ChatRoom, error) {
	atomic.AddInt32(&r.creates, 1)
	return nil, errors.New("connection reset by peer")
}

func TestGetTodaysChatRoom_GivesUpAfterThreeAttempts(t *testing.T) {
	db := repotest.NewDB(t)
	repotest.SeedBotSettings(t, db)
	failing := &failingRooms{ChatRoomRepository: chatrepo.NewChatRoomRepository(db)}
	svc := newRoomService(t, db, failing)

	_, err := svc.GetTodaysChatRoom(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create chat room after 3 attempts")
	assert.Contains(t, err.Error(), "connection reset by peer")
	assert.EqualValues(t, 3, atomic.LoadInt32(&failing.creates))
}

func TestGetTodaysChatRoom_UsersAndDatesDoNotCollide(t *testing.T) {
	db := repotest.NewDB(t)
	repotest.SeedBotSettings(t, db)
	svc := newRoomService(t, db, nil)
	ctx := context.Background()

	r1, err := svc.GetTodaysChatRoom(ctx, "user-1")
	require.NoError(t, err)
	r2, err := svc.GetTodaysChatRoom(ctx, "user-2")
	require.NoError(t, err)
	assert.NotEqual(t, r1.ID, r2.ID)

	svc.now = func() time.Time { return fixedNow.Add(24 * time.Hour) }
	r3, err := svc.GetTodaysChatRoom(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, r1.ID, r3.ID)
	assert.Equal(t, "2026-10-19", r3.Date)
	assert.EqualValues(t, 2, countRooms(t, db, "user-1"))
}

func TestGetTodaysChatRoom_ReactivatesDeletedRoom(t *testing.T) {
	db := repotest.NewDB(t)
	repotest.SeedBotSettings(t, db)
	svc := newRoomService(t, db, nil)
	ctx := context.Background()

	room, err := svc.GetTodaysChatRoom(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteChatRoom(ctx, "user-1", room.ID))

	again, err := svc.GetTodaysChatRoom(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, room.ID, again.ID)
	assert.True(t, again.IsActive)
}

func TestGetTodaysChatRoom_FallbackAndMissingSettings(t *testing.T) {
	db := repotest.NewDB(t)
	require.NoError(t, db.Create(&domain.BotSettings{Gender: domain.BotGenderMale, Style: domain.BotStyleEastern}).Error)
	svc := newRoomService(t, db, nil)

	room, err := svc.GetTodaysChatRoom(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BotGenderMale, room.BotSettings.Gender)

	empty := repotest.NewDB(t)
	svc = newRoomService(t, empty, nil)
	_, err = svc.GetTodaysChatRoom(context.Background(), "user-1")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestRoomService_OwnershipAndUpdates(t *testing.T) {
	db := repotest.NewDB(t)
	repotest.SeedBotSettings(t, db)
	svc := newRoomService(t, db, nil)
	ctx := context.Background()

	room, err := svc.CreateChatRoom(ctx, "owner", "", &BotSettingsInput{Gender: domain.BotGenderMale, Style: domain.BotStyleWestern})
	require.NoError(t, err)
	assert.Equal(t, domain.BotStyleWestern, room.BotSettings.Style)

	_, err = svc.CreateChatRoom(ctx, "owner", "again", nil)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.GetOwnedRoom(ctx, "intruder", room.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = svc.GetOwnedRoom(ctx, "owner", "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	updated, err := svc.UpdateBotSettings(ctx, "owner", room.ID, BotSettingsInput{Gender: domain.BotGenderFemale, Style: domain.BotStyleEastern})
	require.NoError(t, err)
	assert.Equal(t, domain.BotGenderFemale, updated.BotSettings.Gender)

	_, err = svc.UpdateBotSettings(ctx, "owner", room.ID, BotSettingsInput{Gender: "robot", Style: domain.BotStyleEastern})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	titled, err := svc.UpdateChatRoomTitle(ctx, "owner", room.ID, "  용 꿈  ")
	require.NoError(t, err)
	assert.Equal(t, "용 꿈", titled.Title)

	rooms, err := svc.GetUserChatRooms(ctx, "owner", 0)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "용 꿈", rooms[0].Title)

	require.NoError(t, svc.DeleteChatRoom(ctx, "owner", room.ID))
	_, err = svc.FindChatRoomByID(ctx, room.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestGate_CallerCancellationDoesNotAbortSharedCall(t *testing.T) {
	g := NewGate()
	started := make(chan struct{})
	finish := make(chan struct{})
	var once sync.Once

	fn := func(ctx context.Context) (*domain.ChatRoom, error) {
		once.Do(func() { close(started) })
		<-finish
		return &domain.ChatRoom{ID: "room"}, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, _, err := g.Do(ctx, "k", fn)
		errCh <- err
	}()
	<-started

	resCh := make(chan *domain.ChatRoom, 1)
	go func() {
		room, _, _ := g.Do(context.Background(), "k", fn)
		resCh <- room
	}()

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(finish)
	room := <-resCh
	require.NotNil(t, room)
	assert.Equal(t, "room", room.ID)
}

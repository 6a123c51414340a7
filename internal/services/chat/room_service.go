package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
	chatrepo "github.com/iyunix/go-dreamer/internal/repository/chat"
	"github.com/iyunix/go-dreamer/internal/services/persona"
	"github.com/iyunix/go-dreamer/internal/services/retry"
)

const maxTitleLength = 255

// RoomService owns the per-day chat rooms. The unique (user_id, date) index is
// what keeps a user to one room a day; the gate and lease only avoid wasted inserts.
type RoomService struct {
	rooms    chatrepo.ChatRoomRepository
	settings chatrepo.BotSettingsRepository
	gate     *Gate
	lease    Lease
	config   *Config
	logger   Logger
	now      func() time.Time
}

func NewRoomService(
	rooms chatrepo.ChatRoomRepository,
	settings chatrepo.BotSettingsRepository,
	lease Lease,
	config *Config,
	logger Logger,
) (*RoomService, error) {
	if rooms == nil {
		return nil, apperr.NewValidationError("constructor", "chat room repository is required")
	}
	if settings == nil {
		return nil, apperr.NewValidationError("constructor", "bot settings repository is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, apperr.NewValidationError("config", err.Error())
	}
	if lease == nil {
		lease = NoopLease{}
	}
	return &RoomService{
		rooms:    rooms,
		settings: settings,
		gate:     NewGate(),
		lease:    lease,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Today is the current UTC calendar date in room format.
func (s *RoomService) Today() string {
	return s.now().UTC().Format(domain.DateLayout)
}

// GetTodaysChatRoom returns the caller's room for today, creating it on first access.
func (s *RoomService) GetTodaysChatRoom(ctx context.Context, userID string) (*domain.ChatRoom, error) {
	if userID == "" {
		return nil, apperr.NewUnauthorizedError("get_todays_room", "user ID is required")
	}
	return s.getOrCreate(ctx, userID, s.Today())
}

func (s *RoomService) getOrCreate(ctx context.Context, userID, date string) (*domain.ChatRoom, error) {
	key := userID + ":" + date
	room, shared, err := s.gate.Do(ctx, key, func(ctx context.Context) (*domain.ChatRoom, error) {
		return s.acquire(ctx, userID, date)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Joined in-flight room acquisition", "user_id", userID, "date", date)
	}
	return room, nil
}

func (s *RoomService) acquire(ctx context.Context, userID, date string) (*domain.ChatRoom, error) {
	room, err := s.rooms.FindByUserAndDate(ctx, userID, date)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("Room lookup failed, falling through to create", "user_id", userID, "error", err)
	}

	release, acquired := s.lease.Acquire(ctx, "chatroom:"+userID+":"+date, s.config.LeaseTTL)
	if acquired {
		defer release()
	} else if room := s.awaitRoom(ctx, userID, date); room != nil {
		return room, nil
	}

	err = retry.Do(ctx, retry.Config{MaxAttempts: s.config.MaxRetries, BaseDelay: s.config.RetryBaseDelay},
		func(ctx context.Context, attempt int) error {
			r, err := s.findOrInsert(ctx, userID, date)
			if err != nil {
				s.logger.Warn("Chat room creation attempt failed",
					"user_id", userID, "date", date, "attempt", attempt, "error", err)
				return err
			}
			room = r
			return nil
		})

	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		s.logger.Error("Chat room creation exhausted retries", "user_id", userID, "date", date, "error", exhausted.Err)
		return nil, fmt.Errorf("failed to create chat room after %d attempts: %w", exhausted.Attempts, exhausted.Err)
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}

// awaitRoom polls briefly for a row another replica is creating.
func (s *RoomService) awaitRoom(ctx context.Context, userID, date string) *domain.ChatRoom {
	const polls = 3
	interval := s.config.LeaseWait / polls
	for i := 0; i < polls; i++ {
		if !sleep(ctx, interval) {
			return nil
		}
		if room, err := s.rooms.FindByUserAndDate(ctx, userID, date); err == nil {
			return room
		}
	}
	return nil
}

func (s *RoomService) findOrInsert(ctx context.Context, userID, date string) (*domain.ChatRoom, error) {
	if room, err := s.rooms.FindByUserAndDate(ctx, userID, date); err == nil {
		return room, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	settings, err := s.defaultSettings(ctx)
	if err != nil {
		return nil, retry.Permanent(err)
	}

	created, err := s.rooms.Create(ctx, &domain.ChatRoom{
		UserID:        userID,
		Date:          date,
		Title:         domain.DefaultRoomTitle(date),
		BotSettingsID: settings.ID,
		IsActive:      true,
	})
	if err == nil {
		created.BotSettings = *settings
		s.logger.Info("Chat room created", "room_id", created.ID, "user_id", userID, "date", date)
		return created, nil
	}
	if !repository.IsDuplicateKeyError(err) {
		return nil, err
	}
	return s.recoverDuplicate(ctx, userID, date, err)
}

// recoverDuplicate fetches the row that beat us to the unique index.
func (s *RoomService) recoverDuplicate(ctx context.Context, userID, date string, cause error) (*domain.ChatRoom, error) {
	s.logger.Info("Duplicate chat room insert, re-reading", "user_id", userID, "date", date)
	sleep(ctx, s.config.DuplicateDelay)

	if room, err := s.rooms.FindByUserAndDate(ctx, userID, date); err == nil {
		return room, nil
	}

	room, err := s.rooms.FindByUserAndDateAnyState(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("duplicate chat room not readable: %w", cause)
	}
	if !room.IsActive {
		if err := s.rooms.SetActive(ctx, room.ID, true); err != nil {
			return nil, fmt.Errorf("reactivate chat room: %w", err)
		}
		room.IsActive = true
	}
	return room, nil
}

func (s *RoomService) defaultSettings(ctx context.Context) (*domain.BotSettings, error) {
	def := persona.Default()
	settings, err := s.settings.FindSettings(ctx, def.Gender, def.Style)
	if err == nil {
		return settings, nil
	}
	fb := persona.Fallback()
	settings, fbErr := s.settings.FindSettings(ctx, fb.Gender, fb.Style)
	if fbErr == nil {
		s.logger.Warn("Default bot settings missing, using fallback", "error", err)
		return settings, nil
	}
	return nil, apperr.NewInternalError("default_bot_settings", "bot settings not found", errors.Join(err, fbErr))
}

func (s *RoomService) resolveSettings(ctx context.Context, op string, in BotSettingsInput) (*domain.BotSettings, error) {
	if !in.Gender.Valid() || !in.Style.Valid() {
		return nil, apperr.NewValidationError(op, "invalid bot settings")
	}
	settings, err := s.settings.FindSettings(ctx, in.Gender, in.Style)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NewValidationError(op, "bot settings not found")
	}
	if err != nil {
		return nil, apperr.NewInternalError(op, "could not load bot settings", err)
	}
	return settings, nil
}

// CreateChatRoom creates today's room explicitly with an optional title and persona.
func (s *RoomService) CreateChatRoom(ctx context.Context, userID, title string, botSettings *BotSettingsInput) (*domain.ChatRoom, error) {
	const op = "create_chat_room"
	date := s.Today()

	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultRoomTitle(date)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, apperr.NewValidationError(op, "title is too long")
	}

	var settings *domain.BotSettings
	var err error
	if botSettings != nil {
		settings, err = s.resolveSettings(ctx, op, *botSettings)
	} else {
		settings, err = s.defaultSettings(ctx)
	}
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.Create(ctx, &domain.ChatRoom{
		UserID:        userID,
		Date:          date,
		Title:         title,
		BotSettingsID: settings.ID,
		IsActive:      true,
	})
	if err != nil {
		if repository.IsDuplicateKeyError(err) {
			return nil, apperr.NewConflictError(op, msgRoomExists)
		}
		return nil, apperr.NewInternalError(op, "could not create chat room", err)
	}
	room.BotSettings = *settings
	return room, nil
}

// FindChatRoomByID returns an active room or a not-found error.
func (s *RoomService) FindChatRoomByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, roomLookupError("find_chat_room", err)
	}
	return room, nil
}

// GetOwnedRoom loads a room and checks that userID owns it.
func (s *RoomService) GetOwnedRoom(ctx context.Context, userID, roomID string) (*domain.ChatRoom, error) {
	room, err := s.FindChatRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.UserID != userID {
		s.logger.Warn("Chat room ownership check failed", "user_id", userID, "room_id", roomID)
		return nil, apperr.NewForbiddenError("chat_room_access", msgRoomForbidden)
	}
	return room, nil
}

func (s *RoomService) GetUserChatRooms(ctx context.Context, userID string, limit int) ([]domain.ChatRoom, error) {
	if limit <= 0 {
		limit = s.config.DefaultRoomLimit
	}
	if limit > s.config.MaxRoomLimit {
		limit = s.config.MaxRoomLimit
	}
	rooms, err := s.rooms.FindByUserID(ctx, userID, limit)
	if err != nil {
		return nil, apperr.NewInternalError("list_chat_rooms", "could not list chat rooms", err)
	}
	return rooms, nil
}

func (s *RoomService) UpdateBotSettings(ctx context.Context, userID, roomID string, in BotSettingsInput) (*domain.ChatRoom, error) {
	const op = "update_bot_settings"
	room, err := s.GetOwnedRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	settings, err := s.resolveSettings(ctx, op, in)
	if err != nil {
		return nil, err
	}
	if err := s.rooms.UpdateBotSettings(ctx, room.ID, settings.ID); err != nil {
		return nil, roomLookupError(op, err)
	}
	room.BotSettingsID = settings.ID
	room.BotSettings = *settings
	return room, nil
}

func (s *RoomService) UpdateChatRoomTitle(ctx context.Context, userID, roomID, title string) (*domain.ChatRoom, error) {
	const op = "update_chat_room_title"
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return nil, apperr.NewValidationError(op, "title must be 1-255 characters")
	}
	room, err := s.GetOwnedRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if err := s.rooms.UpdateTitle(ctx, room.ID, title); err != nil {
		return nil, roomLookupError(op, err)
	}
	room.Title = title
	return room, nil
}

// DeleteChatRoom hides the room and deletes its messages.
func (s *RoomService) DeleteChatRoom(ctx context.Context, userID, roomID string) error {
	room, err := s.GetOwnedRoom(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if err := s.rooms.Deactivate(ctx, room.ID); err != nil {
		return roomLookupError("delete_chat_room", err)
	}
	s.logger.Info("Chat room deleted", "room_id", room.ID, "user_id", userID)
	return nil
}

func (s *RoomService) CountUserChatRooms(ctx context.Context, userID string) (int64, error) {
	return s.rooms.CountByUserID(ctx, userID)
}

// sleep waits for d or until ctx ends; it reports whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

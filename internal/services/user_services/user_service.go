package user_services

import (
	"context"
	"errors"
	"time"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
	"github.com/iyunix/go-dreamer/internal/repository/user"
)

// UserService covers the signed-in user's own account.
type UserService struct {
	userRepo  user.UserRepository
	auth      *AuthService
	nicknames *NicknameService
	rooms     RoomCounter
	messages  MessageStats
	images    ImageCounter
	logger    Logger
	now       func() time.Time
}

type UserServiceDeps struct {
	Users     user.UserRepository
	Auth      *AuthService
	Nicknames *NicknameService
	Rooms     RoomCounter
	Messages  MessageStats
	Images    ImageCounter
	Logger    Logger
}

func NewUserService(d UserServiceDeps) *UserService {
	return &UserService{
		userRepo:  d.Users,
		auth:      d.Auth,
		nicknames: d.Nicknames,
		rooms:     d.Rooms,
		messages:  d.Messages,
		images:    d.Images,
		logger:    d.Logger,
		now:       time.Now,
	}
}

func (s *UserService) UpdateNickname(ctx context.Context, userID, nickname string) error {
	const op = "UserService.UpdateNickname"
	if err := ValidateNickname(nickname); err != nil {
		return apperr.NewValidationError(op, err.Error())
	}
	if _, err := s.findUser(ctx, op, userID); err != nil {
		return err
	}

	available, err := s.nicknames.CheckNicknameAvailability(ctx, nickname)
	if err != nil {
		return apperr.NewInternalError(op, "failed to check nickname", err)
	}
	if !available {
		return apperr.NewConflictError(op, "Nickname is already taken")
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"nickname": nickname}); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return apperr.NewConflictError(op, "Nickname is already taken")
		}
		return apperr.NewInternalError(op, "failed to update nickname", err)
	}
	s.logger.Info("nickname updated", "user_id", userID)
	return nil
}

func (s *UserService) GetUserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	const op = "UserService.GetUserProfile"
	u, err := s.findUser(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats(ctx, u)
	if err != nil {
		return nil, apperr.NewInternalError(op, "failed to load user stats", err)
	}
	// premium check may have flipped the status
	if fresh, err := s.userRepo.FindByID(ctx, userID); err == nil {
		u = fresh
	}
	return &UserProfile{User: u, Stats: *stats}, nil
}

func (s *UserService) stats(ctx context.Context, u *domain.User) (*UserStats, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	st := &UserStats{JoinedDate: u.CreatedAt}
	var err error
	if st.TotalChatRooms, err = s.rooms.CountByUserID(ctx, u.ID); err != nil {
		return nil, err
	}
	if st.TotalDreamInterpretations, err = s.messages.CountBotMessagesByUser(ctx, u.ID, nil); err != nil {
		return nil, err
	}
	if st.CurrentMonthInterpretations, err = s.messages.CountBotMessagesByUser(ctx, u.ID, &monthStart); err != nil {
		return nil, err
	}
	if st.TotalImagesGenerated, err = s.images.CountImagesByUser(ctx, u.ID); err != nil {
		return nil, err
	}
	if st.LastActivityDate, err = s.messages.LastActivityByUser(ctx, u.ID); err != nil {
		return nil, err
	}
	if st.IsPremiumUser, err = s.auth.IsPremiumUser(ctx, u.ID); err != nil {
		return nil, err
	}
	return st, nil
}

// DeleteAccount deactivates the user; rows are kept.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	const op = "UserService.DeleteAccount"
	if _, err := s.findUser(ctx, op, userID); err != nil {
		return err
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"is_active": false}); err != nil {
		return apperr.NewInternalError(op, "failed to delete account", err)
	}
	s.logger.Info("account deactivated", "user_id", userID)
	return nil
}

func (s *UserService) findUser(ctx context.Context, op, userID string) (*domain.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !u.IsActive) {
		return nil, apperr.NewUnauthorizedError(op, "User not found")
	}
	if err != nil {
		return nil, apperr.NewInternalError(op, "failed to load user", err)
	}
	return u, nil
}

package user_services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"unicode/utf8"

	"github.com/iyunix/go-dreamer/internal/repository"
	"github.com/iyunix/go-dreamer/internal/repository/user"
)

const maxNicknameAttempts = 50

var nicknamePattern = regexp.MustCompile(`^[a-zA-Z0-9가-힣_]+$`)

var nicknameWords = []string{
	"꿈꾸는", "빛나는", "신비한", "환상의", "마법의", "황금의",
	"은빛의", "별빛의", "달빛의", "바람의", "구름의", "하늘의",
	"바다의", "숲속의", "산속의", "꽃의", "나비", "새벽",
	"석양", "무지개", "별똥별", "꽃잎", "이슬", "진주",
}

// ValidateNickname enforces 2-20 characters of letters, digits, Hangul or underscore.
func ValidateNickname(nickname string) error {
	n := utf8.RuneCountInString(nickname)
	switch {
	case n < 2:
		return errors.New("Nickname must be at least 2 characters long")
	case n > 20:
		return errors.New("Nickname must not exceed 20 characters")
	case !nicknamePattern.MatchString(nickname):
		return errors.New("Nickname can only contain letters, numbers, Korean characters, and underscores")
	}
	return nil
}

type NicknameService struct {
	userRepo user.UserRepository
	logger   Logger
	intn     func(n int) int
}

func NewNicknameService(userRepo user.UserRepository, logger Logger) *NicknameService {
	return &NicknameService{userRepo: userRepo, logger: logger, intn: rand.IntN}
}

// GenerateRandomNickname returns a word followed by a number in 1000-9999.
func (s *NicknameService) GenerateRandomNickname() string {
	word := nicknameWords[s.intn(len(nicknameWords))]
	return fmt.Sprintf("%s%d", word, 1000+s.intn(9000))
}

func (s *NicknameService) GenerateUniqueNickname(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxNicknameAttempts; attempt++ {
		nickname := s.GenerateRandomNickname()
		available, err := s.CheckNicknameAvailability(ctx, nickname)
		if err != nil {
			return "", err
		}
		if available {
			s.logger.Debug("generated nickname", "attempts", attempt)
			return nickname, nil
		}
	}
	s.logger.Error("nickname generation exhausted", "attempts", maxNicknameAttempts)
	return "", errors.New("unable to generate unique nickname after maximum attempts")
}

// CheckNicknameAvailability is true only when no user has the nickname.
// A failed query is returned as an error, never as "available".
func (s *NicknameService) CheckNicknameAvailability(ctx context.Context, nickname string) (bool, error) {
	_, err := s.userRepo.FindByNickname(ctx, nickname)
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		s.logger.Error("nickname lookup failed", "error", err)
		return false, fmt.Errorf("check nickname availability: %w", err)
	}
	return false, nil
}

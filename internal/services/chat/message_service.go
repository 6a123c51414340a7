package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/repository"
	mediarepo "github.com/iyunix/go-dreamer/internal/repository/media"
	msgrepo "github.com/iyunix/go-dreamer/internal/repository/message"
	"github.com/iyunix/go-dreamer/internal/services/ai"
	"github.com/iyunix/go-dreamer/internal/services/storage"
	"github.com/iyunix/go-dreamer/internal/services/video"
)

// MessageDeps wires the collaborators of a MessageService. Uploader and Videos may be nil.
type MessageDeps struct {
	Rooms       *RoomService
	Messages    msgrepo.MessageRepository
	Media       mediarepo.MediaRepository
	Interpreter *ai.Interpreter
	Images      *ai.ImageGenerator
	Videos      *video.Service
	Uploader    *storage.Uploader
	Premium     PremiumChecker
	Config      *Config
	Logger      Logger
}

type MessageService struct {
	rooms       *RoomService
	messages    msgrepo.MessageRepository
	media       mediarepo.MediaRepository
	interpreter *ai.Interpreter
	images      *ai.ImageGenerator
	videos      *video.Service
	uploader    *storage.Uploader
	premium     PremiumChecker
	config      *Config
	logger      Logger
}

func NewMessageService(deps MessageDeps) (*MessageService, error) {
	if deps.Rooms == nil {
		return nil, apperr.NewValidationError("constructor", "room service is required")
	}
	if deps.Messages == nil {
		return nil, apperr.NewValidationError("constructor", "message repository is required")
	}
	if deps.Interpreter == nil {
		return nil, apperr.NewValidationError("constructor", "interpreter is required")
	}
	if deps.Premium == nil {
		return nil, apperr.NewValidationError("constructor", "premium checker is required")
	}
	if deps.Config == nil {
		deps.Config = DefaultConfig()
	}
	return &MessageService{
		rooms:       deps.Rooms,
		messages:    deps.Messages,
		media:       deps.Media,
		interpreter: deps.Interpreter,
		images:      deps.Images,
		videos:      deps.Videos,
		uploader:    deps.Uploader,
		premium:     deps.Premium,
		config:      deps.Config,
		logger:      deps.Logger,
	}, nil
}

// isPremium treats a failed lookup as free.
func (s *MessageService) isPremium(ctx context.Context, userID string) bool {
	premium, err := s.premium.IsPremiumUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Premium lookup failed, treating as free", "user_id", userID, "error", err)
		return false
	}
	return premium
}

// SendMessage stores the user's turn, asks the persona for a reading and stores the reply.
// Model failures become apology text, so the only errors here are ownership and storage.
func (s *MessageService) SendMessage(ctx context.Context, userID, roomID, content string) (*SendResult, error) {
	const op = "send_message"
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > s.config.MaxMessageLength {
		return nil, apperr.NewValidationError(op, "content must be 1-2000 characters")
	}

	room, err := s.rooms.GetOwnedRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}

	history, err := s.messages.FindRecentMessages(ctx, room.ID, s.config.HistoryLimit)
	if err != nil {
		s.logger.Warn("Could not load history, continuing without it", "room_id", room.ID, "error", err)
		history = nil
	}

	userMsg, err := s.CreateMessage(ctx, room.ID, domain.MessageTypeUser, content, "", false)
	if err != nil {
		return nil, err
	}

	reply := s.interpreter.GenerateDreamInterpretation(ctx, content, room.BotSettings, history)
	interpretation := IsDreamInterpretation(content, reply, history)

	if s.isPremium(ctx, userID) {
		reply += ai.PremiumImageSuffix
	} else {
		reply += ai.UpsellImageSuffix
	}

	botMsg, err := s.CreateMessage(ctx, room.ID, domain.MessageTypeBot, reply, "", interpretation)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Message exchanged", "room_id", room.ID, "user_id", userID, "interpretation", interpretation)
	return &SendResult{UserMessage: userMsg, BotMessage: botMsg}, nil
}

func (s *MessageService) CreateMessage(ctx context.Context, roomID string, messageType domain.MessageType, content, imageURL string, interpretation bool) (*domain.Message, error) {
	msg, err := s.messages.Create(ctx, &domain.Message{
		ChatRoomID:     roomID,
		Type:           messageType,
		Content:        content,
		ImageURL:       imageURL,
		Interpretation: interpretation,
	})
	if err != nil {
		return nil, apperr.NewInternalError("create_message", "could not save message", err)
	}
	return msg, nil
}

// InitializeChatRoom posts the persona's welcome into an empty room, or returns the first message.
func (s *MessageService) InitializeChatRoom(ctx context.Context, room *domain.ChatRoom) (*domain.Message, error) {
	first, err := s.messages.FindFirstMessage(ctx, room.ID)
	if err == nil {
		return first, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NewInternalError("initialize_chat_room", "could not read messages", err)
	}
	first, created, err := s.messages.CreateIfEmpty(ctx, &domain.Message{
		ChatRoomID: room.ID,
		Type:       domain.MessageTypeBot,
		Content:    s.interpreter.WelcomeMessage(room.BotSettings),
	})
	if err != nil {
		return nil, apperr.NewInternalError("initialize_chat_room", "could not save welcome message", err)
	}
	if created {
		s.logger.Debug("Welcome message posted", "room_id", room.ID)
	}
	return first, nil
}

// GetChatRoomMessages returns a page of messages for an owned room.
func (s *MessageService) GetChatRoomMessages(ctx context.Context, userID, roomID string, limit, offset int, ascending bool) (*RoomMessages, error) {
	room, err := s.rooms.GetOwnedRoom(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	return s.roomMessages(ctx, room, limit, offset, ascending)
}

func (s *MessageService) roomMessages(ctx context.Context, room *domain.ChatRoom, limit, offset int, ascending bool) (*RoomMessages, error) {
	if limit <= 0 {
		limit = s.config.DefaultMessageLimit
	}
	if limit > s.config.MaxMessageLimit {
		limit = s.config.MaxMessageLimit
	}
	if offset < 0 {
		offset = 0
	}
	messages, total, err := s.messages.FindByChatRoomIDWithPagination(ctx, room.ID, limit, offset, ascending)
	if err != nil {
		return nil, apperr.NewInternalError("get_messages", "could not load messages", err)
	}
	return &RoomMessages{ChatRoom: room, Messages: messages, TotalMessages: total}, nil
}

// OpenTodaysRoom acquires today's room, makes sure it has a welcome message and returns its history.
func (s *MessageService) OpenTodaysRoom(ctx context.Context, userID string) (*RoomMessages, error) {
	room, err := s.rooms.GetTodaysChatRoom(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.InitializeChatRoom(ctx, room); err != nil {
		return nil, err
	}
	return s.roomMessages(ctx, room, 0, 0, true)
}

// CreateChatRoom creates today's room explicitly and posts the welcome message.
func (s *MessageService) CreateChatRoom(ctx context.Context, userID, title string, settings *BotSettingsInput) (*domain.ChatRoom, error) {
	room, err := s.rooms.CreateChatRoom(ctx, userID, title, settings)
	if err != nil {
		return nil, err
	}
	if _, err := s.InitializeChatRoom(ctx, room); err != nil {
		s.logger.Warn("Welcome message failed", "room_id", room.ID, "error", err)
	}
	return room, nil
}

func (s *MessageService) GetRecentMessagesForContext(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	return s.messages.FindRecentMessages(ctx, roomID, limit)
}

func (s *MessageService) GetMessageCount(ctx context.Context, roomID string) (int64, error) {
	return s.messages.CountByChatRoomID(ctx, roomID)
}

// GetLatestUserMessage returns nil without error when the room has no user messages.
func (s *MessageService) GetLatestUserMessage(ctx context.Context, roomID string) (*domain.Message, error) {
	return s.latest(ctx, roomID, domain.MessageTypeUser)
}

func (s *MessageService) GetLatestBotMessage(ctx context.Context, roomID string) (*domain.Message, error) {
	return s.latest(ctx, roomID, domain.MessageTypeBot)
}

func (s *MessageService) latest(ctx context.Context, roomID string, t domain.MessageType) (*domain.Message, error) {
	m, err := s.messages.FindLatestByType(ctx, roomID, t)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return m, err
}

// GenerateImageForMessage paints the latest dream in today's room for premium users.
// Every expected failure is reported through the result, not as an error.
func (s *MessageService) GenerateImageForMessage(ctx context.Context, userID string) (*ImageResult, error) {
	if !s.config.ImageGeneration || s.images == nil {
		return &ImageResult{Success: false, Message: msgImageDisabled}, nil
	}

	room, err := s.rooms.GetTodaysChatRoom(ctx, userID)
	if err != nil {
		return nil, err
	}

	dream, err := s.GetLatestUserMessage(ctx, room.ID)
	if err != nil {
		return nil, apperr.NewInternalError("generate_image", "could not load messages", err)
	}
	if dream == nil {
		return &ImageResult{Success: false, Message: msgNoDream}, nil
	}

	if !s.isPremium(ctx, userID) {
		return &ImageResult{Success: false, Message: msgPremiumRequired, UpgradeRequired: true}, nil
	}

	interpretation := ""
	if bot, err := s.GetLatestBotMessage(ctx, room.ID); err == nil && bot != nil {
		interpretation = bot.Content
	}
	summary := s.interpreter.SummarizeInterpretation(ctx, interpretation)

	prompt, url := s.images.GenerateDreamImage(ctx, dream.Content, summary, room.BotSettings)
	if url == "" {
		return &ImageResult{Success: false, Message: msgImageFailed, IsPremium: true}, nil
	}

	imageURL, imagePath := url, ""
	if s.uploader.Enabled() {
		if stored, err := s.uploader.UploadImageFromURL(ctx, url, userID, room.ID); err == nil {
			imageURL, imagePath = stored.URL, stored.Key
		} else {
			s.logger.Warn("Image upload failed, keeping provider URL", "room_id", room.ID, "error", err)
		}
	}

	if s.media != nil {
		record := &domain.GeneratedImage{
			UserID:          userID,
			ChatRoomID:      room.ID,
			ImageURL:        imageURL,
			ImagePath:       imagePath,
			ImagePrompt:     prompt,
			GenerationModel: s.images.Model(),
			BotGender:       room.BotSettings.Gender,
			BotStyle:        room.BotSettings.Style,
			IsPremium:       true,
		}
		if err := s.media.CreateImage(ctx, record); err != nil {
			s.logger.Error("Failed to record generated image", "room_id", room.ID, "error", err)
		}
	}

	msg, err := s.CreateMessage(ctx, room.ID, domain.MessageTypeBot, msgImageContent, imageURL, false)
	if err != nil {
		s.logger.Error("Failed to save image message", "room_id", room.ID, "error", err)
		return &ImageResult{Success: false, Message: msgImageError, IsPremium: true}, nil
	}

	return &ImageResult{
		Success:      true,
		ImageURL:     imageURL,
		Message:      msgImageCreated,
		IsPremium:    true,
		ImageMessage: msg,
	}, nil
}

// GenerateDreamVideo turns the latest dream in today's room into a short clip.
func (s *MessageService) GenerateDreamVideo(ctx context.Context, userID string) (*VideoResult, error) {
	const op = "generate_video"
	if !s.config.VideoGeneration || s.videos == nil {
		return nil, apperr.NewForbiddenError(op, msgVideoDisabled)
	}
	if !s.isPremium(ctx, userID) {
		return nil, apperr.NewForbiddenError(op, msgVideoPremium)
	}

	room, err := s.rooms.GetTodaysChatRoom(ctx, userID)
	if err != nil {
		return nil, err
	}
	dream, err := s.GetLatestUserMessage(ctx, room.ID)
	if err != nil {
		return nil, apperr.NewInternalError(op, "could not load messages", err)
	}
	if dream == nil {
		return nil, apperr.NewValidationError(op, msgNoDream)
	}

	clip, err := s.videos.GenerateDreamVideo(ctx, dream.Content, room.BotSettings)
	if err != nil {
		return nil, apperr.NewInternalError(op, "video generation failed", err)
	}

	style := domain.VideoStyle{Gender: room.BotSettings.Gender, Approach: room.BotSettings.Style}
	result := &VideoResult{
		VideoURL:       clip.URL,
		Provider:       clip.Provider,
		Title:          video.Title(dream.Content),
		Interpretation: s.videos.Interpretation(ctx, dream.Content, room.BotSettings),
		DreamContent:   dream.Content,
		Style:          style,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	if s.media != nil {
		record := &domain.Video{
			UserID:       userID,
			ChatRoomID:   room.ID,
			Title:        result.Title,
			Description:  result.Interpretation,
			VideoURL:     result.VideoURL,
			Provider:     result.Provider,
			Style:        datatypes.NewJSONType(style),
			DreamContent: dream.Content,
		}
		if err := s.media.CreateVideo(ctx, record); err != nil {
			s.logger.Error("Failed to record video", "room_id", room.ID, "error", err)
		}
	}

	return result, nil
}

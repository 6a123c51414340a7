package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/dtos"
	"github.com/iyunix/go-dreamer/internal/middleware"
	"github.com/iyunix/go-dreamer/internal/services/chat"
	"github.com/iyunix/go-dreamer/internal/services/persona"
)

type RoomManager interface {
	GetUserChatRooms(ctx context.Context, userID string, limit int) ([]domain.ChatRoom, error)
	UpdateBotSettings(ctx context.Context, userID, roomID string, in chat.BotSettingsInput) (*domain.ChatRoom, error)
	UpdateChatRoomTitle(ctx context.Context, userID, roomID, title string) (*domain.ChatRoom, error)
	DeleteChatRoom(ctx context.Context, userID, roomID string) error
}

type Conversation interface {
	OpenTodaysRoom(ctx context.Context, userID string) (*chat.RoomMessages, error)
	CreateChatRoom(ctx context.Context, userID, title string, settings *chat.BotSettingsInput) (*domain.ChatRoom, error)
	GetChatRoomMessages(ctx context.Context, userID, roomID string, limit, offset int, ascending bool) (*chat.RoomMessages, error)
	SendMessage(ctx context.Context, userID, roomID, content string) (*chat.SendResult, error)
	GenerateImageForMessage(ctx context.Context, userID string) (*chat.ImageResult, error)
	GenerateDreamVideo(ctx context.Context, userID string) (*chat.VideoResult, error)
}

type PersonaSource interface {
	Options() persona.Options
}

type PersonalityLister interface {
	FindAll(ctx context.Context) ([]domain.BotPersonality, error)
}

type ChatHandler struct {
	rooms         RoomManager
	conversation  Conversation
	personas      PersonaSource
	personalities PersonalityLister
	logger        Logger
}

func NewChatHandler(rooms RoomManager, conversation Conversation, personas PersonaSource, personalities PersonalityLister, logger Logger) *ChatHandler {
	return &ChatHandler{
		rooms:         rooms,
		conversation:  conversation,
		personas:      personas,
		personalities: personalities,
		logger:        logger,
	}
}

// TodaysRoom returns today's room with its history, creating it on first access.
func (h *ChatHandler) TodaysRoom(w http.ResponseWriter, r *http.Request) {
	result, err := h.conversation.OpenTodaysRoom(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ChatHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	rooms, err := h.rooms.GetUserChatRooms(r.Context(), middleware.UserIDFrom(r.Context()), limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if rooms == nil {
		rooms = []domain.ChatRoom{}
	}
	writeJSON(w, http.StatusOK, dtos.ChatRoomsResponse{ChatRooms: rooms})
}

// GetRoom returns one owned room with a page of its messages.
func (h *ChatHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	h.roomMessages(w, r)
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	h.roomMessages(w, r)
}

func (h *ChatHandler) roomMessages(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	result, err := h.conversation.GetChatRoomMessages(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["id"], limit, offset, true)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ChatHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req dtos.CreateChatRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	var settings *chat.BotSettingsInput
	if req.BotSettings != nil {
		in := req.BotSettings.Input()
		settings = &in
	}
	room, err := h.conversation.CreateChatRoom(r.Context(), middleware.UserIDFrom(r.Context()), strings.TrimSpace(req.Title), settings)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dtos.ChatRoomResponse{ChatRoom: room})
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req dtos.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	result, err := h.conversation.SendMessage(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["id"], req.Content)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *ChatHandler) UpdateBotSettings(w http.ResponseWriter, r *http.Request) {
	var req dtos.BotSettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	room, err := h.rooms.UpdateBotSettings(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["id"], req.Input())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.ChatRoomResponse{ChatRoom: room})
}

func (h *ChatHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	var req dtos.UpdateTitleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	room, err := h.rooms.UpdateChatRoomTitle(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["id"], req.Title)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.ChatRoomResponse{ChatRoom: room})
}

func (h *ChatHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.rooms.DeleteChatRoom(r.Context(), middleware.UserIDFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GenerateImage never fails with a 5xx for generation problems; the result says what happened.
func (h *ChatHandler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	result, err := h.conversation.GenerateImageForMessage(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ChatHandler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	result, err := h.conversation.GenerateDreamVideo(r.Context(), middleware.UserIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ChatHandler) BotSettingsOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.personas.Options())
}

func (h *ChatHandler) BotPersonalities(w http.ResponseWriter, r *http.Request) {
	list, err := h.personalities.FindAll(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"personalities": list})
}

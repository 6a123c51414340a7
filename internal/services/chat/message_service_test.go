package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/iyunix/go-dreamer/internal/apperr"
	"github.com/iyunix/go-dreamer/internal/domain"
	mediarepo "github.com/iyunix/go-dreamer/internal/repository/media"
	msgrepo "github.com/iyunix/go-dreamer/internal/repository/message"
	"github.com/iyunix/go-dreamer/internal/repository/repotest"
	"github.com/iyunix/go-dreamer/internal/services/ai"
	"github.com/iyunix/go-dreamer/internal/services/persona"
	"github.com/iyunix/go-dreamer/internal/services/video"
)

type fakeCompletion struct {
	reply string
	err   error
	calls []ai.CompletionRequest
}

func (f *fakeCompletion) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

type fakeImages struct {
	url string
	err error
}

func (f *fakeImages) GenerateImage(ctx context.Context, req ai.ImageRequest) (string, error) {
	return f.url, f.err
}

type premiumSet map[string]bool

func (p premiumSet) IsPremiumUser(ctx context.Context, userID string) (bool, error) {
	return p[userID], nil
}

type clipProvider struct{ url string }

func (c clipProvider) Name() string { return "stub-video" }
func (c clipProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if c.url == "" {
		return "", errors.New("no capacity")
	}
	return c.url, nil
}

type fixture struct {
	db         *gorm.DB
	svc        *MessageService
	rooms      *RoomService
	completion *fakeCompletion
	images     *fakeImages
}

func newFixture(t *testing.T, premium premiumSet) *fixture {
	t.Helper()
	db := repotest.NewDB(t)
	repotest.SeedBotSettings(t, db)
	rooms := newRoomService(t, db, nil)
	personas := persona.MustLoadDefault()

	completion := &fakeCompletion{reply: "이 꿈은 길흉으로 보면 좋은 해몽입니다."}
	images := &fakeImages{url: "https://images.example/dream.png"}
	cfg := testConfig()

	svc, err := NewMessageService(MessageDeps{
		Rooms:       rooms,
		Messages:    msgrepo.NewMessageRepository(db),
		Media:       mediarepo.NewMediaRepository(db),
		Interpreter: ai.NewInterpreter(completion, personas, nil, nopLogger{}),
		Images:      ai.NewImageGenerator(images, personas, "dall-e-3", nopLogger{}),
		Videos:      video.NewService(video.NewChain(nopLogger{}, clipProvider{}, clipProvider{url: "https://cdn.example/clip.mp4"}), completion, personas, "gpt-3.5-turbo", nopLogger{}),
		Premium:     premium,
		Config:      cfg,
		Logger:      nopLogger{},
	})
	require.NoError(t, err)
	return &fixture{db: db, svc: svc, rooms: rooms, completion: completion, images: images}
}

const dream = "어젯밤 꿈에서 커다란 용이 하늘로 올라가는 것을 보았습니다"

func TestOpenTodaysRoom_PostsWelcomeOnce(t *testing.T) {
	f := newFixture(t, premiumSet{})
	ctx := context.Background()

	first, err := f.svc.OpenTodaysRoom(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, first.Messages, 1)
	assert.Equal(t, domain.MessageTypeBot, first.Messages[0].Type)
	assert.False(t, first.Messages[0].Interpretation)
	assert.Equal(t, persona.MustLoadDefault().WelcomeFor(domain.BotGenderFemale, domain.BotStyleEastern), first.Messages[0].Content)

	second, err := f.svc.OpenTodaysRoom(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, second.TotalMessages)
	assert.Equal(t, first.ChatRoom.ID, second.ChatRoom.ID)
}

func TestOpenTodaysRoom_ConcurrentOpenersShareOneWelcome(t *testing.T) {
	f := newFixture(t, premiumSet{})

	const callers = 20
	results := make([]*RoomMessages, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.OpenTodaysRoom(context.Background(), "user-1")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Len(t, results[i].Messages, 1)
		assert.Equal(t, results[0].Messages[0].ID, results[i].Messages[0].ID)
	}
	var count int64
	require.NoError(t, f.db.Model(&domain.Message{}).Where("chat_room_id = ?", results[0].ChatRoom.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestDeleteChatRoom_RemovesMessagesAndReopensFresh(t *testing.T) {
	f := newFixture(t, premiumSet{})
	ctx := context.Background()

	opened, err := f.svc.OpenTodaysRoom(ctx, "user-1")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, "user-1", opened.ChatRoom.ID, dream)
	require.NoError(t, err)

	assert.True(t, apperr.Is(f.rooms.DeleteChatRoom(ctx, "user-2", opened.ChatRoom.ID), apperr.KindForbidden))
	require.NoError(t, f.rooms.DeleteChatRoom(ctx, "user-1", opened.ChatRoom.ID))

	var count int64
	require.NoError(t, f.db.Model(&domain.Message{}).Where("chat_room_id = ?", opened.ChatRoom.ID).Count(&count).Error)
	assert.Zero(t, count)
	_, err = f.svc.GetChatRoomMessages(ctx, "user-1", opened.ChatRoom.ID, 0, 0, true)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	reopened, err := f.svc.OpenTodaysRoom(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, opened.ChatRoom.ID, reopened.ChatRoom.ID)
	assert.EqualValues(t, 1, reopened.TotalMessages)
}

func TestSendMessage_FreeUserGetsUpsell(t *testing.T) {
	f := newFixture(t, premiumSet{})
	ctx := context.Background()
	room, err := f.rooms.GetTodaysChatRoom(ctx, "user-1")
	require.NoError(t, err)

	res, err := f.svc.SendMessage(ctx, "user-1", room.ID, "  "+dream+"  ")
	require.NoError(t, err)

	assert.Equal(t, dream, res.UserMessage.Content)
	assert.False(t, res.UserMessage.Interpretation)
	assert.True(t, res.BotMessage.Interpretation)
	assert.True(t, strings.HasSuffix(res.BotMessage.Content, ai.UpsellImageSuffix))

	// the new user turn is sent once, through the analysis template
	req := f.completion.calls[len(f.completion.calls)-1]
	userTurns := 0
	for _, m := range req.Messages {
		if m.Role == ai.RoleUser {
			userTurns++
		}
	}
	assert.Equal(t, 1, userTurns)
}

func TestSendMessage_PremiumSuffixAndApology(t *testing.T) {
	f := newFixture(t, premiumSet{"user-1": true})
	ctx := context.Background()
	room, err := f.rooms.GetTodaysChatRoom(ctx, "user-1")
	require.NoError(t, err)

	f.completion.err = errors.New("upstream down")
	res, err := f.svc.SendMessage(ctx, "user-1", room.ID, dream)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.BotMessage.Content, ai.UnavailableText))
	assert.True(t, strings.HasSuffix(res.BotMessage.Content, ai.PremiumImageSuffix))
	assert.False(t, res.BotMessage.Interpretation)
}

func TestSendMessage_ValidationAndOwnership(t *testing.T) {
	f := newFixture(t, premiumSet{})
	ctx := context.Background()
	room, err := f.rooms.GetTodaysChatRoom(ctx, "owner")
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, "owner", room.ID, "   ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.SendMessage(ctx, "owner", room.ID, strings.Repeat("꿈", 2001))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.SendMessage(ctx, "intruder", room.ID, dream)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	msgs, err := f.svc.GetChatRoomMessages(ctx, "owner", room.ID, 0, 0, true)
	require.NoError(t, err)
	assert.Zero(t, msgs.TotalMessages)
}

func TestGenerateImageForMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("no dream yet", func(t *testing.T) {
		f := newFixture(t, premiumSet{"user-1": true})
		res, err := f.svc.GenerateImageForMessage(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, msgNoDream, res.Message)
	})

	t.Run("free user", func(t *testing.T) {
		f := newFixture(t, premiumSet{})
		room, _ := f.rooms.GetTodaysChatRoom(ctx, "user-1")
		_, err := f.svc.SendMessage(ctx, "user-1", room.ID, dream)
		require.NoError(t, err)

		res, err := f.svc.GenerateImageForMessage(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.True(t, res.UpgradeRequired)
	})

	t.Run("premium user", func(t *testing.T) {
		f := newFixture(t, premiumSet{"user-1": true})
		room, _ := f.rooms.GetTodaysChatRoom(ctx, "user-1")
		_, err := f.svc.SendMessage(ctx, "user-1", room.ID, dream)
		require.NoError(t, err)

		res, err := f.svc.GenerateImageForMessage(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Equal(t, "https://images.example/dream.png", res.ImageURL)
		require.NotNil(t, res.ImageMessage)
		assert.Equal(t, res.ImageURL, res.ImageMessage.ImageURL)
		assert.False(t, res.ImageMessage.Interpretation)

		var images []domain.GeneratedImage
		require.NoError(t, f.db.Find(&images).Error)
		require.Len(t, images, 1)
		assert.Equal(t, domain.BotStyleEastern, images[0].BotStyle)
		assert.Equal(t, "dall-e-3", images[0].GenerationModel)
	})

	t.Run("generation failure is not an error", func(t *testing.T) {
		f := newFixture(t, premiumSet{"user-1": true})
		room, _ := f.rooms.GetTodaysChatRoom(ctx, "user-1")
		_, err := f.svc.SendMessage(ctx, "user-1", room.ID, dream)
		require.NoError(t, err)

		f.images.err = errors.New("content policy")
		res, err := f.svc.GenerateImageForMessage(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.True(t, res.IsPremium)
	})
}

func TestGenerateDreamVideo(t *testing.T) {
	ctx := context.Background()

	free := newFixture(t, premiumSet{})
	_, err := free.svc.GenerateDreamVideo(ctx, "user-1")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	f := newFixture(t, premiumSet{"user-1": true})
	_, err = f.svc.GenerateDreamVideo(ctx, "user-1")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	room, _ := f.rooms.GetTodaysChatRoom(ctx, "user-1")
	_, err = f.svc.SendMessage(ctx, "user-1", room.ID, dream)
	require.NoError(t, err)

	res, err := f.svc.GenerateDreamVideo(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/clip.mp4", res.VideoURL)
	assert.Equal(t, "🌙 꿈해몽: 어젯밤 꿈에서 커다란에 대한 꿈의 의미", res.Title)
	assert.Equal(t, domain.BotStyleEastern, res.Style.Approach)

	var videos []domain.Video
	require.NoError(t, f.db.Find(&videos).Error)
	require.Len(t, videos, 1)
	assert.Equal(t, res.Title, videos[0].Title)
	assert.Equal(t, domain.BotGenderFemale, videos[0].Style.Data().Gender)
}

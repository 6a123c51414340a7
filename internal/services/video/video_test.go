package video

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/services/ai"
	"github.com/iyunix/go-dreamer/internal/services/persona"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

type stubProvider struct {
	name  string
	url   string
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.url, s.err
}

func TestChain_FirstSuccessWins(t *testing.T) {
	a := &stubProvider{name: "a", err: ai.StatusError{StatusCode: 429}}
	b := &stubProvider{name: "b", url: "https://cdn/b.mp4"}
	c := &stubProvider{name: "c", url: "https://cdn/c.png"}

	res, err := NewChain(nopLogger{}, a, b, c).Generate(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn/b.mp4", res.URL)
	assert.Equal(t, "b", res.Provider)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 0, c.calls)
}

func TestChain_AllFailAggregates(t *testing.T) {
	a := &stubProvider{name: "a", err: errors.New("boom")}
	b := &stubProvider{name: "b"} // empty output counts as failure
	c := &stubProvider{name: "c", err: ai.StatusError{StatusCode: 429}}

	_, err := NewChain(nopLogger{}, a, b, c).Generate(context.Background(), "prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all video providers failed")
	assert.Contains(t, err.Error(), "boom")
	assert.ErrorIs(t, err, ai.ErrEmptyResponse)

	var aiErr *ai.AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, "a", aiErr.Operation)
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChain(nopLogger{}).Generate(context.Background(), "p")
	var aiErr *ai.AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ai.ErrTypeConfig, aiErr.Type)
}

func TestReplicateClient_PollsUntilSucceeded(t *testing.T) {
	var polls int32
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/predictions":
			assert.Equal(t, "wait", r.Header.Get("Prefer"))
			var body map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, HunyuanVideoVersion, body["version"])
			input := body["input"].(map[string]interface{})
			assert.Equal(t, "a dream", input["prompt"])
			assert.EqualValues(t, 850, input["height"])
			_, _ = w.Write([]byte(`{"id":"p1","status":"processing","urls":{"get":"` + srvURL + `/predictions/p1"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/predictions/p1":
			if atomic.AddInt32(&polls, 1) < 2 {
				_, _ = w.Write([]byte(`{"id":"p1","status":"processing","urls":{"get":"` + srvURL + `/predictions/p1"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"p1","status":"succeeded","output":["https://replicate.delivery/out.mp4"]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	client := NewReplicateClient(ReplicateConfig{Token: "tok", BaseURL: srv.URL, PollInterval: 10 * time.Millisecond})
	url, err := NewHunyuanVideo(client).Generate(context.Background(), "a dream")

	require.NoError(t, err)
	assert.Equal(t, "https://replicate.delivery/out.mp4", url)
	assert.EqualValues(t, 2, atomic.LoadInt32(&polls))
}

func TestReplicateClient_FailedPrediction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"p2","status":"failed","error":"NSFW"}`))
	}))
	defer srv.Close()

	client := NewReplicateClient(ReplicateConfig{Token: "tok", BaseURL: srv.URL})
	_, err := NewZeroscopeXL(client).Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NSFW")
}

func TestReplicateClient_RequiresToken(t *testing.T) {
	_, err := NewReplicateClient(ReplicateConfig{}).Run(context.Background(), "v", nil)
	var aiErr *ai.AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ai.ErrTypeConfig, aiErr.Type)
}

func TestFirstOutput(t *testing.T) {
	assert.Equal(t, "a", firstOutput(json.RawMessage(`"a"`)))
	assert.Equal(t, "b", firstOutput(json.RawMessage(`["b","c"]`)))
	assert.Equal(t, "", firstOutput(json.RawMessage(`[]`)))
	assert.Equal(t, "", firstOutput(nil))
}

type fakeImages struct{ last ai.ImageRequest }

func (f *fakeImages) GenerateImage(ctx context.Context, req ai.ImageRequest) (string, error) {
	f.last = req
	return "https://images/still.png", nil
}

func TestStillImageProvider(t *testing.T) {
	imgs := &fakeImages{}
	url, err := NewStillImageProvider(imgs, "").Generate(context.Background(), "moon")
	require.NoError(t, err)
	assert.Equal(t, "https://images/still.png", url)
	assert.Equal(t, "1024x1792", imgs.last.Size)
	assert.Equal(t, "vivid", imgs.last.Style)
	assert.Equal(t, "moon"+stillPromptSuffix, imgs.last.Prompt)
}

type fakeCompletion struct {
	reply string
	err   error
	last  ai.CompletionRequest
}

func (f *fakeCompletion) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	f.last = req
	return f.reply, f.err
}

func TestServicePromptTitleAndNarration(t *testing.T) {
	comp := &fakeCompletion{reply: "용은 성공을 뜻합니다"}
	svc := NewService(NewChain(nopLogger{}), comp, persona.MustLoadDefault(), "gpt-3.5-turbo", nopLogger{})
	eastern := domain.BotSettings{Gender: domain.BotGenderMale, Style: domain.BotStyleEastern}

	prompt := svc.BuildPrompt("용이 하늘로 올라가는 꿈", eastern)
	assert.Contains(t, prompt, "Dream scene: 용이 하늘로 올라가는 꿈. traditional Korean art style")
	assert.Contains(t, svc.BuildPrompt("x", domain.BotSettings{Style: domain.BotStyleWestern}), "western aesthetic")

	assert.Equal(t, "🌙 꿈해몽: 용이 하늘로 올라가는에 대한 꿈의 의미", Title("용이 하늘로 올라가는 꿈을 꿨다"))
	assert.Equal(t, "🌙 꿈해몽: 뱀에 대한 꿈의 의미", Title("뱀"))

	assert.Equal(t, "용은 성공을 뜻합니다", svc.Interpretation(context.Background(), "용 꿈", eastern))
	assert.Equal(t, 300, comp.last.MaxTokens)
	assert.Contains(t, comp.last.Messages[0].Content, "동양 해몽사")

	comp.err = errors.New("down")
	assert.Equal(t, StaticInterpretation("용 꿈"), svc.Interpretation(context.Background(), "용 꿈", eastern))
}

package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iyunix/go-dreamer/internal/services/ai"
)

const (
	DefaultReplicateURL = "https://api.replicate.com/v1"

	HunyuanVideoVersion = "6c9132aee14409cd6568d030453f1ba50f5f3412b844fe67f78a9eb62d55664f"
	ZeroscopeXLVersion  = "9f747673945c62801b13b84701c6b2c53589db5b3f5de1b4c5a1f47b0b7a0e7b"
	defaultPollInterval = 2 * time.Second
	maxErrorBodyBytes   = 4096
)

type ReplicateConfig struct {
	Token        string
	BaseURL      string
	PollInterval time.Duration
	// Timeout bounds one prediction including polling.
	Timeout time.Duration
}

// ReplicateClient speaks the predictions API.
type ReplicateClient struct {
	config ReplicateConfig
	client *http.Client
}

func NewReplicateClient(config ReplicateConfig) *ReplicateClient {
	if config.BaseURL == "" {
		config.BaseURL = DefaultReplicateURL
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}
	return &ReplicateClient{
		config: config,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  interface{}     `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func (p *prediction) done() bool {
	switch p.Status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

// Run creates a prediction and waits for it to finish, returning the first output URL.
func (c *ReplicateClient) Run(ctx context.Context, version string, input map[string]interface{}) (string, error) {
	if c.config.Token == "" {
		return "", ai.NewConfigError("REPLICATE_API_TOKEN is not set")
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := json.Marshal(map[string]interface{}{"version": version, "input": input})
	if err != nil {
		return "", &ai.AIError{Type: ai.ErrTypeValidation, Operation: "replicate", Message: "invalid payload", Cause: err}
	}

	var pred prediction
	if err := c.do(ctx, http.MethodPost, c.config.BaseURL+"/predictions", bytes.NewReader(body), &pred); err != nil {
		return "", err
	}

	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()
	for !pred.done() {
		if pred.URLs.Get == "" {
			return "", ai.NewProviderError("replicate", "prediction has no poll URL", nil)
		}
		select {
		case <-ctx.Done():
			return "", ai.Classify("replicate", ctx.Err())
		case <-ticker.C:
		}
		if err := c.do(ctx, http.MethodGet, pred.URLs.Get, nil, &pred); err != nil {
			return "", err
		}
	}

	if pred.Status != "succeeded" {
		return "", ai.NewProviderError("replicate", fmt.Sprintf("prediction %s %s: %v", pred.ID, pred.Status, pred.Error), nil)
	}
	url := firstOutput(pred.Output)
	if url == "" {
		return "", &ai.AIError{Type: ai.ErrTypeProvider, Operation: "replicate", Message: "prediction returned no output", Cause: ai.ErrEmptyResponse}
	}
	return url, nil
}

func (c *ReplicateClient) do(ctx context.Context, method, url string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &ai.AIError{Type: ai.ErrTypeNetwork, Operation: "replicate", Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "wait")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return ai.Classify("replicate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return ai.Classify("replicate", ai.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))})
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ai.NewProviderError("replicate", "invalid response body", err)
	}
	return nil
}

// firstOutput accepts either a single URL or a list of URLs.
func firstOutput(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

// ReplicateProvider runs one pinned model version with fixed inputs.
type ReplicateProvider struct {
	name    string
	version string
	input   map[string]interface{}
	client  *ReplicateClient
}

func (p *ReplicateProvider) Name() string { return p.name }

func (p *ReplicateProvider) Generate(ctx context.Context, prompt string) (string, error) {
	input := make(map[string]interface{}, len(p.input)+1)
	for k, v := range p.input {
		input[k] = v
	}
	input["prompt"] = prompt
	return p.client.Run(ctx, p.version, input)
}

// NewHunyuanVideo is the vertical text-to-video model tried first.
func NewHunyuanVideo(client *ReplicateClient) *ReplicateProvider {
	return &ReplicateProvider{
		name:    "tencent/hunyuan-video",
		version: HunyuanVideoVersion,
		client:  client,
		input: map[string]interface{}{
			"width":                   480,
			"height":                  850,
			"video_length":            100,
			"fps":                     24,
			"infer_steps":             50,
			"embedded_guidance_scale": 6,
		},
	}
}

func NewZeroscopeXL(client *ReplicateClient) *ReplicateProvider {
	return &ReplicateProvider{
		name:    "anotherjesse/zeroscope-v2-xl",
		version: ZeroscopeXLVersion,
		client:  client,
		input: map[string]interface{}{
			"width":               1024,
			"height":              576,
			"num_frames":          24,
			"num_inference_steps": 50,
			"guidance_scale":      17.5,
			"model":               "xl",
		},
	}
}

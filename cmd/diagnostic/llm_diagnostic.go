// File: cmd/diagnostic/llm_diagnostic.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/iyunix/go-dreamer/internal/config"
	"github.com/iyunix/go-dreamer/internal/domain"
	"github.com/iyunix/go-dreamer/internal/services"
	"github.com/iyunix/go-dreamer/internal/services/ai"
	"github.com/iyunix/go-dreamer/internal/services/persona"
)

// Sends one dream through the configured model and prints the raw reply and
// the interpreter's result for the chosen persona.
func main() {
	dream := flag.String("dream", "어젯밤 꿈에서 하늘을 날아다니다가 바다에 떨어졌어요", "dream text to interpret")
	gender := flag.String("gender", string(domain.BotGenderFemale), "bot gender")
	style := flag.String("style", string(domain.BotStyleEastern), "bot style")
	flag.Parse()

	cfg := config.Load()
	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY not set in environment")
	}

	aiConfig := ai.DefaultConfig()
	aiConfig.APIKey = cfg.OpenAIAPIKey
	aiConfig.BaseURL = cfg.OpenAIBaseURL
	aiConfig.ChatModel = cfg.OpenAIModel
	aiConfig.Timeout = cfg.AITimeout
	if err := aiConfig.Validate(); err != nil {
		log.Fatalf("invalid AI config: %v", err)
	}

	catalog, err := persona.LoadDefault()
	if err != nil {
		log.Fatalf("load personas: %v", err)
	}
	provider := ai.NewOpenAIProvider(aiConfig)
	settings := domain.BotSettings{Gender: domain.BotGender(*gender), Style: domain.BotStyle(*style)}

	ctx, cancel := context.WithTimeout(context.Background(), 2*aiConfig.Timeout)
	defer cancel()

	fmt.Printf("Model: %s  Base URL: %s\n", aiConfig.ChatModel, aiConfig.BaseURL)

	start := time.Now()
	raw, err := provider.Complete(ctx, ai.CompletionRequest{
		Model:       aiConfig.ChatModel,
		Messages:    []ai.ChatMessage{{Role: ai.RoleUser, Content: "Reply with the single word: pong"}},
		MaxTokens:   10,
		Temperature: 0,
	})
	if err != nil {
		log.Fatalf("completion failed: %v", err)
	}
	fmt.Printf("Ping reply (%s): %q\n", time.Since(start).Round(time.Millisecond), raw)

	interpreter := ai.NewInterpreter(provider, catalog, aiConfig, services.NewLogger("diagnostic"))
	start = time.Now()
	reply := interpreter.GenerateDreamInterpretation(ctx, *dream, settings, nil)
	fmt.Printf("\nInterpretation (%s):\n%s\n", time.Since(start).Round(time.Millisecond), reply)
}

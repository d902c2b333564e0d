package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"ai-garden/internal/config"
	"ai-garden/internal/domain"
	"ai-garden/internal/llm"
)

// Cliente de terminal para probar los adapters de proveedores sin levantar el
// servidor HTTP. Uso: cli_chat [model], por defecto gpt-4o.
func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	// Solo se necesitan las credenciales de proveedores; DATABASE_URL puede
	// ser un placeholder porque aqui no se abre el pool.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	modelID := "gpt-4o"
	if len(os.Args) > 1 {
		modelID = os.Args[1]
	}

	registry := llm.NewRegistry(logger, []llm.ModelConfig{
		{ID: "gpt-4.5-preview", Provider: llm.ProviderOpenAI, APIKey: cfg.OpenAIKey45},
		{ID: "gpt-4o", Provider: llm.ProviderOpenAI, APIKey: cfg.OpenAIKey4o},
		{ID: "grok-2", Provider: llm.ProviderGrok, APIKey: cfg.XAIKey},
		{ID: "grok-3", Provider: llm.ProviderGrok, APIKey: cfg.XAIKeyGrok3},
		{ID: "gemini-2.0-flash-exp-image-generation", Provider: llm.ProviderGemini, APIKey: cfg.GeminiFlashKey, MaxOutputTokens: 8192},
		{ID: "gemini-2.5-pro-preview-03-25", Provider: llm.ProviderGemini, APIKey: cfg.GeminiProKey, MaxOutputTokens: 65536},
	}, map[string]llm.Streamer{
		llm.ProviderOpenAI: llm.NewOpenAIStreamer(cfg.OpenAIBaseURL, logger),
		llm.ProviderGrok:   llm.NewGrokStreamer(cfg.XAIBaseURL, logger),
		llm.ProviderGemini: llm.NewGeminiStreamer(cfg.GeminiBaseURL, logger),
	})

	fmt.Printf("Chat con %s. Linea vacia para salir.\n", modelID)

	var history []domain.ChatMessage
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}

		history = append(history, domain.ChatMessage{Role: domain.RoleUser, Content: line})

		stream, err := registry.Stream(ctx, modelID, history)
		if err != nil {
			log.Fatalf("stream: %v", err)
		}

		var reply strings.Builder
		for {
			delta, err := stream.Recv()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					fmt.Printf("\n[stream error: %v]\n", err)
				}
				break
			}
			fmt.Print(delta)
			reply.WriteString(delta)
		}
		stream.Close()
		fmt.Println()

		history = append(history, domain.ChatMessage{Role: domain.RoleAssistant, Content: reply.String()})
	}
}

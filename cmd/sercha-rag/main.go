// Command sercha-rag indexes web pages and answers questions about them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/fetch/web"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/index"
	redislock "github.com/custodia-labs/sercha-rag/internal/adapters/driven/lock/redis"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := file.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open config: %v\n", err)
		return err
	}
	settingsService := services.NewSettingsService(configStore, nil)
	settingsService.SetValidator(ai.NewConfigValidator())
	settings, err := settingsService.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid settings: %v\n", err)
		return err
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open prompts: %v\n", err)
		return err
	}

	pipeline, err := postprocessors.DefaultPipeline(settings.Chunk)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: chunking: %v\n", err)
		return err
	}

	cfg := services.RuntimeConfig{
		Settings:    settings,
		NewEmbedder: ai.CreateEmbeddingService,
		NewIndex:    index.Open,
		NewLLM:      ai.CreateLLMService,
	}
	if addr := settings.Lock.RedisAddr; addr != "" {
		lock := redislock.NewLock(addr)
		defer func() {
			if err := lock.Close(); err != nil {
				logger.Warn("close redis lock: %v", err)
			}
		}()
		cfg.RebuildLock = lock
	}

	runtime := services.NewRuntime(cfg)
	defer func() {
		if err := runtime.Close(); err != nil {
			logger.Warn("close runtime: %v", err)
		}
	}()

	retriever := services.NewRetriever(runtime)
	cli.SetServices(cli.Services{
		Ingest: services.NewIndexingOrchestrator(
			runtime,
			web.New(settings.Fetch),
			normalisers.DefaultRegistry(),
			pipeline,
		),
		Answer:    services.NewAnswerComposer(runtime, retriever, prompts),
		Retrieval: retriever,
		Settings:  settingsService,
		Attach:    runtime.Attach,
	})
	cli.SetVersion(version)

	return cli.Execute(ctx)
}

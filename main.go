package main

import (
	"context"
	"log"
	"os"
	"time"

	"chatcore/internal/api"
	"chatcore/internal/config"
	"chatcore/internal/orchestrator"
	"chatcore/internal/provider"
	"chatcore/internal/redis"
	"chatcore/internal/storage"
	"chatcore/internal/store"
	"chatcore/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CHATCORE_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	log.Printf("database driver: %s\n", cfg.Database.Driver)
	db, err := storage.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(db, cfg.Database.Driver); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	rdb, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("create redis client: %v", err)
	}
	defer rdb.Close()

	st := store.New(db, cfg.Database.Driver, rdb)

	registry := provider.NewRegistry()
	ollama := registerProviders(registry, cfg)

	workerCfg := worker.Config{
		MinWorkers:        cfg.BasicConfig.MinWorkers,
		MaxWorkers:        cfg.BasicConfig.MaxWorkers,
		QueueSize:         cfg.BasicConfig.QueueSize,
		WorkerIdleTimeout: time.Duration(cfg.BasicConfig.WorkerIdleTimeout) * time.Minute,
	}
	turnTimeout := time.Duration(cfg.BasicConfig.TurnTimeout) * time.Second
	orch := orchestrator.New(st, registry, workerCfg, turnTimeout)

	handlers := api.NewHandler(st, orch, ollama)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// registerProviders fills the registry from configuration. Ollama is always
// registered since it needs no credentials; the returned handle feeds the
// model listing endpoint.
func registerProviders(registry *provider.Registry, cfg *config.Config) *provider.Ollama {
	ollamaURL := ""
	if pc, ok := cfg.Providers["ollama"]; ok {
		ollamaURL = pc.BaseURL
	}
	ollama := provider.NewOllama(ollamaURL)
	registry.Register(ollama)

	if pc, ok := cfg.Providers["openai"]; ok {
		key := pc.ResolveAPIKey()
		if key == "" {
			log.Printf("openai configured without an api key, skipping")
		} else {
			registry.Register(provider.NewOpenAI(key, pc.BaseURL))
		}
	}

	if pc, ok := cfg.Providers["gemini"]; ok {
		key := pc.ResolveAPIKey()
		if key == "" {
			log.Printf("gemini configured without an api key, skipping")
		} else {
			gemini, err := provider.NewGemini(context.Background(), key)
			if err != nil {
				log.Fatalf("init gemini provider: %v", err)
			}
			registry.Register(gemini)
		}
	}

	return ollama
}

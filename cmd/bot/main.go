package main

import (
	"flag"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/saltspray/heatline/internal/app"
	"github.com/saltspray/heatline/internal/bot"
	"github.com/saltspray/heatline/internal/scoring"
	"github.com/saltspray/heatline/internal/settlement"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	cfg, err := bot.ReadConfig(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to read config: %v", err)
	}

	store, err := app.NewStore(cfg.Database.DSN, cfg.Database.MigrationsDir)
	if err != nil {
		logger.Error.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	var tokens *app.TokenManager
	if cfg.Auth.Enabled {
		opts, err := redis.ParseURL(cfg.Auth.RedisURL)
		if err != nil {
			logger.Error.Fatalf("Failed to parse redis URL: %v", err)
		}
		tokens = app.NewTokenManager(redis.NewClient(opts), cfg.Auth.TokenKeyTemplate)
	}

	engine := settlement.NewEngine(store, scoring.NewAggregator(cfg.Scoring.BestWaves))

	b, err := bot.New(cfg, store, engine, tokens)
	if err != nil {
		logger.Error.Fatalf("Failed to create bot: %v", err)
	}

	logger.Info.Println("Bot initialized successfully")
	if err := b.Start(); err != nil {
		logger.Error.Fatalf("Bot error: %v", err)
	}
}

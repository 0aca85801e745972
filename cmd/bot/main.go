package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tanhuynh/groovebot/internal/bot"
	"github.com/tanhuynh/groovebot/internal/config"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Format: "text"})
		fallback.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger from config
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	log.Infof("Starting %s v%s", cfg.BotName, cfg.Version)
	log.Infof("Token: %s", cfg.GetSafeToken())

	// Initialize bot
	grooveBot, err := bot.New(cfg, log)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	// Start bot
	ctx := context.Background()
	if err := grooveBot.Start(ctx); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}

	log.Info("✅ Bot is now running. Press CTRL-C to exit.")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Cleanup
	log.Info("Shutting down gracefully...")
	grooveBot.Stop()
	log.Info("Bot stopped successfully")
}

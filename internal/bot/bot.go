package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/tanhuynh/groovebot/internal/commands"
	"github.com/tanhuynh/groovebot/internal/config"
	"github.com/tanhuynh/groovebot/internal/coordinator"
	"github.com/tanhuynh/groovebot/internal/database"
	"github.com/tanhuynh/groovebot/internal/lyrics"
	"github.com/tanhuynh/groovebot/internal/playback"
	"github.com/tanhuynh/groovebot/internal/redis"
	"github.com/tanhuynh/groovebot/internal/resolver"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

// GrooveBot represents the Discord music bot
type GrooveBot struct {
	config     *config.Config
	logger     *logger.Logger
	session    *discordgo.Session
	db         *database.DB
	resolver   *resolver.Resolver
	processing *playback.ProcessingService
	backend    *playback.Backend
	coord      *coordinator.Coordinator
	cmdHandler *commands.Handler
}

// New creates a new GrooveBot instance
func New(cfg *config.Config, log *logger.Logger) (*GrooveBot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Setup intents
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	session.StateEnabled = true

	// Initialize database if configured
	var db *database.DB
	if cfg.UseDatabase {
		ctx := context.Background()
		dbCfg := database.DefaultConfig(cfg.DatabaseURL)
		db, err = database.Connect(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	// Initialize track resolver (requires yt-dlp on PATH)
	trackResolver, err := resolver.New(log)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("failed to create track resolver: %w", err)
	}

	// Initialize stream-resolution workers
	processing := playback.NewProcessingService(trackResolver, cfg.WorkerCount, cfg.MaxQueueSize, log)

	// Initialize playback backend
	backend := playback.New(session, trackResolver, processing, playback.Config{
		DefaultVolume: cfg.DefaultVolume,
		MaxQueueSize:  cfg.MaxQueueSize,
		IdleTimeout:   cfg.IdleTimeout,
	}, log)

	if db != nil {
		backend.SetSettingsStore(&guildSettingsStore{queries: db.Queries})
		log.Info("Using database for guild settings")
	}

	// Initialize lyrics client, Redis-backed cache when available
	var lyricsCache lyrics.Cache
	if cfg.UseRedis {
		client, err := redis.Init(redis.Config{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.WithError(err).Warn("Failed to connect to Redis, falling back to in-memory lyrics cache")
		} else {
			lyricsCache = lyrics.NewRedisCache(client)
			log.Info("Using Redis for lyrics cache")
		}
	}
	lyricsClient := lyrics.New(cfg.LyricsEndpoint, lyricsCache, log)

	// Initialize notifier and coordinator
	notifier := commands.NewNotifier(session, log)
	coord := coordinator.New(backend, lyricsClient, notifier, log)

	// Initialize command handler
	cmdHandler := commands.NewHandler(session, coord, backend, log, cfg)

	bot := &GrooveBot{
		config:     cfg,
		logger:     log,
		session:    session,
		db:         db,
		resolver:   trackResolver,
		processing: processing,
		backend:    backend,
		coord:      coord,
		cmdHandler: cmdHandler,
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(cmdHandler.HandleInteraction)
	session.AddHandler(cmdHandler.HandleMessage)
	session.AddHandler(bot.onVoiceStateUpdate)

	return bot, nil
}

// Start starts the bot
func (b *GrooveBot) Start(ctx context.Context) error {
	b.logger.Info("Starting services...")

	b.processing.Start()

	b.logger.Info("Opening Discord connection...")
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	b.logger.Info("Registering slash commands...")
	if err := b.cmdHandler.RegisterCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	return nil
}

// Stop stops the bot gracefully
func (b *GrooveBot) Stop() {
	b.logger.Info("Shutting down services...")

	// Tear down every guild session before closing the gateway
	b.backend.Shutdown()
	b.processing.Stop()

	if b.db != nil {
		b.db.Close()
	}

	if err := redis.Close(); err != nil {
		b.logger.WithError(err).Warn("Failed to close Redis connection")
	}

	b.logger.Info("Closing Discord connection...")
	if err := b.session.Close(); err != nil {
		b.logger.WithError(err).Error("Failed to close Discord session")
	}
}

// onReady is called when the bot is ready
func (b *GrooveBot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Infof("✅ Bot is ready! Logged in as %s#%s", event.User.Username, event.User.Discriminator)
	b.logger.Infof("📊 Connected to %d guilds", len(event.Guilds))

	if err := s.UpdateGameStatus(0, "🎵 /play"); err != nil {
		b.logger.WithError(err).Warn("Failed to update status")
	}
}

// onVoiceStateUpdate leaves the voice channel when the bot ends up
// alone in it
func (b *GrooveBot) onVoiceStateUpdate(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	// Skip events about the bot itself
	if event.UserID == s.State.User.ID {
		return
	}

	guildID := event.GuildID

	botChannelID := b.backend.VoiceChannelID(guildID)
	if botChannelID == "" {
		return
	}

	// Only care about users leaving the bot's channel
	if event.BeforeUpdate == nil || event.BeforeUpdate.ChannelID != botChannelID {
		return
	}

	guild, err := s.State.Guild(guildID)
	if err != nil {
		b.logger.WithError(err).Warn("Failed to get guild state")
		return
	}

	// Count non-bot users still in the channel
	userCount := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != botChannelID || vs.UserID == s.State.User.ID {
			continue
		}
		member, err := s.GuildMember(guildID, vs.UserID)
		if err != nil {
			continue
		}
		if member.User != nil && !member.User.Bot {
			userCount++
		}
	}

	if userCount == 0 {
		b.logger.WithGuild(guildID).Info("No users left in voice channel, leaving")
		b.backend.DestroySession(guildID)
	}
}

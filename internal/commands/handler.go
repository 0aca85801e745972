package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/tanhuynh/groovebot/internal/config"
	"github.com/tanhuynh/groovebot/internal/coordinator"
	"github.com/tanhuynh/groovebot/internal/playback"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

// Handler routes Discord interactions and messages to the coordinator
type Handler struct {
	session *discordgo.Session
	coord   *coordinator.Coordinator
	backend *playback.Backend
	logger  *logger.Logger
	config  *config.Config
}

// NewHandler creates a command handler
func NewHandler(
	session *discordgo.Session,
	coord *coordinator.Coordinator,
	backend *playback.Backend,
	log *logger.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		session: session,
		coord:   coord,
		backend: backend,
		logger:  log,
		config:  cfg,
	}
}

// RegisterCommands registers all slash commands with Discord
func (h *Handler) RegisterCommands() error {
	commands := GetCommands()

	_, err := h.session.ApplicationCommandBulkOverwrite(h.session.State.User.ID, "", commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	h.logger.WithField("count", len(commands)).Info("Commands registered")
	return nil
}

// HandleInteraction routes incoming interactions to their handlers.
// A panic in any handler is recovered; the dispatch loop stays live.
func (h *Handler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.WithField("panic", r).Error("Recovered from panic in interaction handler")
			_ = respondError(s, i, "❌ An internal error occurred")
		}
	}()

	if i.Type == discordgo.InteractionMessageComponent {
		h.handleButtonInteraction(s, i)
		return
	}

	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()

	h.logger.WithFields(map[string]interface{}{
		"command": data.Name,
		"guild":   i.GuildID,
		"user":    i.Member.User.Username,
	}).Info("Command received")

	var err error
	switch data.Name {
	case "play":
		err = h.handlePlay(s, i)
	case "pause":
		err = h.handlePause(s, i)
	case "resume":
		err = h.handleResume(s, i)
	case "skip":
		err = h.handleSkip(s, i)
	case "stop":
		err = h.handleStop(s, i)
	case "queue":
		err = h.handleQueue(s, i)
	case "nowplaying":
		err = h.handleNowPlaying(s, i)
	case "volume":
		err = h.handleVolume(s, i)
	default:
		err = respondError(s, i, "Unknown command")
	}

	if err != nil {
		h.logger.WithError(err).WithField("command", data.Name).Error("Command handler failed")
	}
}

// getUserVoiceChannel returns the user's voice channel, empty when the
// user is not in one
func (h *Handler) getUserVoiceChannel(s *discordgo.Session, guildID, userID string) string {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return ""
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID
		}
	}

	return ""
}

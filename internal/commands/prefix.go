package commands

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/tanhuynh/groovebot/internal/coordinator"
	errs "github.com/tanhuynh/groovebot/internal/errors"
)

// HandleMessage serves the legacy prefix command surface ("!play ...").
// Bots and non-command messages are ignored.
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, h.config.CommandPrefix) {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.WithField("panic", r).Error("Recovered from panic in message handler")
		}
	}()

	body := strings.TrimPrefix(m.Content, h.config.CommandPrefix)
	parts := strings.SplitN(strings.TrimSpace(body), " ", 2)
	command := strings.ToLower(parts[0])

	if command != "play" && command != "p" {
		return
	}

	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		h.replyTo(m, errs.GetUserMessage(errs.ErrInvalidInput))
		return
	}
	query := strings.TrimSpace(parts[1])

	h.logger.WithFields(map[string]interface{}{
		"command": command,
		"guild":   m.GuildID,
		"user":    m.Author.Username,
	}).Info("Prefix command received")

	req := coordinator.PlayRequest{
		GuildID:        m.GuildID,
		RequestedBy:    m.Author.ID,
		RequesterName:  m.Author.Username,
		VoiceChannelID: h.getUserVoiceChannel(s, m.GuildID, m.Author.ID),
		TextChannelID:  m.ChannelID,
		Query:          query,
	}

	outcome, err := h.coord.HandlePlayRequest(context.Background(), req)
	if err != nil {
		h.replyTo(m, errs.GetUserMessage(err))
		return
	}

	if !outcome.Started {
		h.replyTo(m, queuedMessage(outcome))
	}
	// A started track is announced by the notifier; no extra reply.
}

func (h *Handler) replyTo(m *discordgo.MessageCreate, message string) {
	_, err := h.session.ChannelMessageSendEmbed(m.ChannelID, &discordgo.MessageEmbed{
		Description: message,
		Color:       ColorInfo,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to send prefix reply")
	}
}

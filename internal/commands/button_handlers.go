package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/tanhuynh/groovebot/internal/coordinator"
	"github.com/tanhuynh/groovebot/internal/validation"
)

// Custom IDs for the now-playing control buttons
const (
	ButtonPause  = "player_pause"
	ButtonSkip   = "player_skip"
	ButtonLyrics = "player_lyrics"
)

// handleButtonInteraction maps a control button press to a control
// action. Pause and skip acknowledge silently; lyrics reply with an
// ephemeral embed.
func (h *Handler) handleButtonInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	var kind coordinator.ControlKind
	switch customID {
	case ButtonPause:
		kind = coordinator.ControlTogglePause
	case ButtonSkip:
		kind = coordinator.ControlSkip
	case ButtonLyrics:
		kind = coordinator.ControlShowLyrics
	default:
		return
	}

	if err := deferUpdate(s, i); err != nil {
		h.logger.WithError(err).Warn("Failed to acknowledge button press")
		return
	}

	outcome, err := h.coord.HandleControlAction(context.Background(), coordinator.ControlAction{
		GuildID: i.GuildID,
		Kind:    kind,
	})
	if err != nil {
		h.logger.WithError(err).WithField("button", customID).Error("Control action failed")
		return
	}

	if kind == coordinator.ControlShowLyrics && outcome.Handled {
		title := outcome.Title
		if title == "" {
			title = "Lyrics"
		}

		embed := NewEmbed().
			Title("📜 " + validation.TruncateString(title, 250)).
			Description(outcome.Lyrics).
			Color(ColorInfo).
			Build()

		if err := followUpEphemeralEmbed(s, i, embed); err != nil {
			h.logger.WithError(err).Error("Failed to send lyrics")
		}
	}
}

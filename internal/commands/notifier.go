package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/tanhuynh/groovebot/internal/domain/entities"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

// Notifier renders playback events into guild text channels.
// It implements coordinator.Notifier.
type Notifier struct {
	session *discordgo.Session
	logger  *logger.Logger
}

// NewNotifier creates a notifier bound to the Discord session
func NewNotifier(session *discordgo.Session, log *logger.Logger) *Notifier {
	return &Notifier{session: session, logger: log}
}

// NowPlaying announces a started track with the control buttons
func (n *Notifier) NowPlaying(textChannelID string, track *entities.Track) {
	if textChannelID == "" {
		return
	}

	embed := NewEmbed().
		Title("🎵 Now Playing").
		Description(fmt.Sprintf("**%s**", track.DisplayName())).
		Field("Duration", track.DurationFormatted(), true).
		Field("Requested by", track.Requester(), true).
		Thumbnail(track.Thumbnail()).
		Build()

	_, err := n.session.ChannelMessageSendComplex(textChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Emoji:    &discordgo.ComponentEmoji{Name: "⏯️"},
						Style:    discordgo.SecondaryButton,
						CustomID: ButtonPause,
					},
					discordgo.Button{
						Emoji:    &discordgo.ComponentEmoji{Name: "⏭️"},
						Style:    discordgo.SecondaryButton,
						CustomID: ButtonSkip,
					},
					discordgo.Button{
						Emoji:    &discordgo.ComponentEmoji{Name: "📜"},
						Style:    discordgo.SecondaryButton,
						CustomID: ButtonLyrics,
					},
				},
			},
		},
	})
	if err != nil {
		n.logger.WithError(err).WithField("channel", textChannelID).Error("Failed to announce track")
	}
}

// PlaybackError reports an asynchronous playback failure
func (n *Notifier) PlaybackError(textChannelID string, message string) {
	if textChannelID == "" {
		return
	}

	_, err := n.session.ChannelMessageSendEmbed(textChannelID, &discordgo.MessageEmbed{
		Description: message,
		Color:       ColorError,
	})
	if err != nil {
		n.logger.WithError(err).WithField("channel", textChannelID).Error("Failed to report playback error")
	}
}

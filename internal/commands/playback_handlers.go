package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/tanhuynh/groovebot/internal/coordinator"
	errs "github.com/tanhuynh/groovebot/internal/errors"
)

// handlePlay runs the full play pipeline. The ephemeral ack is deleted
// on success so the now-playing announcement is the only visible
// surface; on failure it carries the error back to the requester.
func (h *Handler) handlePlay(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := deferEphemeral(s, i); err != nil {
		return err
	}

	query := i.ApplicationCommandData().Options[0].StringValue()

	req := coordinator.PlayRequest{
		GuildID:        i.GuildID,
		RequestedBy:    i.Member.User.ID,
		RequesterName:  i.Member.User.Username,
		VoiceChannelID: h.getUserVoiceChannel(s, i.GuildID, i.Member.User.ID),
		TextChannelID:  i.ChannelID,
		Query:          query,
	}

	outcome, err := h.coord.HandlePlayRequest(context.Background(), req)
	if err != nil {
		return followUpError(s, i, errs.GetUserMessage(err))
	}

	if !outcome.Started {
		// Announce the queue position; a started track gets its own
		// now-playing message from the notifier.
		embed := NewEmbed().
			Color(ColorSuccess).
			Description(queuedMessage(outcome)).
			Build()
		return followUpEphemeralEmbed(s, i, embed)
	}

	return deleteReply(s, i)
}

func queuedMessage(outcome *coordinator.PlayOutcome) string {
	if outcome.IsPlaylist {
		return fmt.Sprintf("📋 Queued **%d** tracks", outcome.Count)
	}
	return fmt.Sprintf("📋 Queued **%s** (position %d)", outcome.Primary.DisplayName(), outcome.Position)
}

func (h *Handler) handlePause(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := h.backend.Pause(i.GuildID); err != nil {
		return respondError(s, i, errs.GetUserMessage(err))
	}
	return respondSuccess(s, i, "⏸️ Paused")
}

func (h *Handler) handleResume(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := h.backend.Resume(i.GuildID); err != nil {
		return respondError(s, i, errs.GetUserMessage(err))
	}
	return respondSuccess(s, i, "▶️ Resumed")
}

func (h *Handler) handleSkip(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	outcome, err := h.coord.HandleControlAction(context.Background(), coordinator.ControlAction{
		GuildID: i.GuildID,
		Kind:    coordinator.ControlSkip,
	})
	if err != nil {
		return respondError(s, i, errs.GetUserMessage(err))
	}
	if !outcome.Handled {
		return respondError(s, i, errs.GetUserMessage(errs.ErrNotPlaying))
	}
	return respondSuccess(s, i, "⏭️ Skipped")
}

func (h *Handler) handleStop(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := h.backend.Stop(i.GuildID); err != nil {
		return respondError(s, i, errs.GetUserMessage(err))
	}
	return respondSuccess(s, i, "⏹️ Stopped and left the voice channel")
}

func (h *Handler) handleQueue(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	const queueDisplayLimit = 10

	current := h.backend.NowPlaying(i.GuildID)
	upcoming := h.backend.Queue(i.GuildID, queueDisplayLimit)

	if current == nil && len(upcoming) == 0 {
		return respondError(s, i, errs.GetUserMessage(errs.ErrQueueEmpty))
	}

	builder := NewEmbed().Title("🎵 Queue").Color(ColorInfo)

	if current != nil {
		builder.Field("Now Playing",
			fmt.Sprintf("**%s** `[%s]` — %s", current.DisplayName(), current.DurationFormatted(), current.Requester()),
			false)
	}

	if len(upcoming) > 0 {
		list := ""
		for idx, track := range upcoming {
			list += fmt.Sprintf("`%d.` **%s** `[%s]` — %s\n",
				idx+1, track.DisplayName(), track.DurationFormatted(), track.Requester())
		}
		builder.Field("Up Next", list, false)
	}

	return respondEmbed(s, i, builder.Build())
}

func (h *Handler) handleNowPlaying(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	track := h.backend.NowPlaying(i.GuildID)
	if track == nil {
		return respondError(s, i, errs.GetUserMessage(errs.ErrNotPlaying))
	}

	embed := NewEmbed().
		Title("🎵 Now Playing").
		Description(fmt.Sprintf("**%s**", track.DisplayName())).
		Field("Duration", track.DurationFormatted(), true).
		Field("Requested by", track.Requester(), true).
		Thumbnail(track.Thumbnail()).
		Build()

	return respondEmbed(s, i, embed)
}

func (h *Handler) handleVolume(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	level := int(i.ApplicationCommandData().Options[0].IntValue())

	if err := h.backend.SetVolume(i.GuildID, level); err != nil {
		return respondError(s, i, errs.GetUserMessage(err))
	}

	return respondSuccess(s, i, fmt.Sprintf("🔊 Volume set to **%d%%**", level))
}

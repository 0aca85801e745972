package coordinator

import (
	"context"
	"fmt"

	"github.com/tanhuynh/groovebot/internal/domain/entities"
	"github.com/tanhuynh/groovebot/internal/domain/valueobjects"
	errs "github.com/tanhuynh/groovebot/internal/errors"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

// maxLyricsLength is the Discord embed description limit
const maxLyricsLength = 4096

const noLyricsFallback = "No lyrics found"

// Session is the per-guild playback handle owned by the audio backend.
// The coordinator never mutates session state directly; it issues
// commands against this interface.
type Session interface {
	GuildID() string
	TextChannelID() string
	IsConnected() bool
	Connect(ctx context.Context, voiceChannelID string) error
	Enqueue(tracks []*entities.Track) int
	QueueSize() int
	CurrentTrack() *entities.Track
	PlaybackState() valueobjects.PlaybackState
	Pause() error
	Resume() error
	Skip() error
}

// AudioBackend owns the per-guild session registry and track resolution.
// GetOrCreateSession reports whether the session was newly created, so
// a connect failure can tear down only what this request created.
// StartIfIdle is the single check-then-act primitive for starting
// playback; the state check and the start happen under the backend's
// own serialization.
type AudioBackend interface {
	GetOrCreateSession(guildID, voiceChannelID, textChannelID string) (Session, bool)
	GetSession(guildID string) (Session, bool)
	DestroySession(guildID string)
	StartIfIdle(session Session) (bool, error)
	Search(ctx context.Context, query, requestedBy, requesterName, guildID string) (*SearchResult, error)
	OnTrackStart(fn func(guildID, textChannelID string, track *entities.Track))
	OnPlaybackError(fn func(guildID, textChannelID string, err error))
}

// LyricsProvider looks up lyrics by track title. Title-only keying is
// a known precision limitation of the upstream lookup.
type LyricsProvider interface {
	Lookup(ctx context.Context, title string) (string, error)
}

// Notifier renders asynchronous playback events to the guild's text
// channel. Request replies are handled at the command boundary, not here.
type Notifier interface {
	NowPlaying(textChannelID string, track *entities.Track)
	PlaybackError(textChannelID string, message string)
}

// Coordinator translates play requests and control actions into the
// minimal correct sequence of audio backend calls. It is a pure
// decision layer: all playback state lives in the backend.
type Coordinator struct {
	backend  AudioBackend
	lyrics   LyricsProvider
	notifier Notifier
	logger   *logger.Logger
}

// New creates a coordinator and subscribes it to backend playback events
func New(backend AudioBackend, lyrics LyricsProvider, notifier Notifier, log *logger.Logger) *Coordinator {
	c := &Coordinator{
		backend:  backend,
		lyrics:   lyrics,
		notifier: notifier,
		logger:   log,
	}

	backend.OnTrackStart(func(guildID, textChannelID string, track *entities.Track) {
		c.logger.WithGuild(guildID).WithField("track", track.DisplayName()).Info("Track started")
		c.notifier.NowPlaying(textChannelID, track)
	})

	backend.OnPlaybackError(func(guildID, textChannelID string, err error) {
		c.logger.WithGuild(guildID).WithError(err).Error("Playback error")
		c.notifier.PlaybackError(textChannelID, errs.GetUserMessage(err))
	})

	return c
}

// HandlePlayRequest validates the request, reconciles the voice
// connection, resolves the query, admits the result into the queue and
// starts playback if the session was idle. Each failure exit maps to a
// distinct sentinel error; the command boundary turns those into replies.
func (c *Coordinator) HandlePlayRequest(ctx context.Context, req PlayRequest) (*PlayOutcome, error) {
	log := c.logger.WithGuild(req.GuildID).WithField("query", req.Query)

	if req.VoiceChannelID == "" {
		return nil, errs.ErrNoVoiceChannel
	}

	session, created := c.backend.GetOrCreateSession(req.GuildID, req.VoiceChannelID, req.TextChannelID)

	if !session.IsConnected() {
		if err := session.Connect(ctx, req.VoiceChannelID); err != nil {
			// Tear down only what this request created; a pre-existing
			// session keeps serving whatever it was already doing.
			if created {
				c.backend.DestroySession(req.GuildID)
			}
			log.WithError(err).Warn("Voice connect failed")
			return nil, fmt.Errorf("%w: %v", errs.ErrVoiceJoinFailed, err)
		}
	}

	result, err := c.backend.Search(ctx, req.Query, req.RequestedBy, req.RequesterName, req.GuildID)
	if err != nil {
		log.WithError(err).Error("Search failed")
		return nil, fmt.Errorf("%w: %v", errs.ErrBackendUnavailable, err)
	}

	if len(result.Tracks) == 0 {
		return nil, errs.ErrNoResults
	}

	admitted := session.Enqueue(result.Tracks)
	if admitted == 0 {
		return nil, errs.ErrQueueFull
	}

	// Queue position of the first admitted track, for the reply
	position := session.QueueSize() - admitted + 1
	if position < 1 {
		position = 1
	}

	started, err := c.backend.StartIfIdle(session)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrBackendUnavailable, err)
	}

	log.WithFields(map[string]interface{}{
		"admitted": admitted,
		"playlist": result.IsPlaylist,
		"started":  started,
	}).Info("Play request admitted")

	return &PlayOutcome{
		Primary:    result.Tracks[0],
		Count:      admitted,
		Position:   position,
		IsPlaylist: result.IsPlaylist,
		Started:    started,
	}, nil
}

// HandleControlAction applies a button press to the guild's session.
// A missing session is a silent no-op; there is nothing to control.
func (c *Coordinator) HandleControlAction(ctx context.Context, action ControlAction) (*ControlOutcome, error) {
	session, ok := c.backend.GetSession(action.GuildID)
	if !ok {
		return &ControlOutcome{Handled: false}, nil
	}

	switch action.Kind {
	case ControlTogglePause:
		return c.togglePause(session)
	case ControlSkip:
		if err := session.Skip(); err != nil {
			return nil, err
		}
		return &ControlOutcome{Handled: true}, nil
	case ControlShowLyrics:
		return c.showLyrics(ctx, session)
	}

	return nil, fmt.Errorf("%w: unknown control action %d", errs.ErrInvalidInput, action.Kind)
}

// togglePause is a strict toggle: resume only when paused, pause otherwise
func (c *Coordinator) togglePause(session Session) (*ControlOutcome, error) {
	if session.PlaybackState() == valueobjects.PlaybackStatePaused {
		if err := session.Resume(); err != nil {
			return nil, err
		}
		return &ControlOutcome{Handled: true, Paused: false}, nil
	}

	if err := session.Pause(); err != nil {
		return nil, err
	}
	return &ControlOutcome{Handled: true, Paused: true}, nil
}

// showLyrics resolves lyrics for the current track. A missing track or
// failed lookup degrades to the fallback text; oversized lyrics are
// truncated silently to the embed limit.
func (c *Coordinator) showLyrics(ctx context.Context, session Session) (*ControlOutcome, error) {
	track := session.CurrentTrack()
	if track == nil {
		return &ControlOutcome{Handled: true, Lyrics: noLyricsFallback}, nil
	}

	title := track.DisplayName()
	if meta := track.GetMetadata(); meta != nil {
		title = meta.Title
	}

	text, err := c.lyrics.Lookup(ctx, title)
	if err != nil || text == "" {
		if err != nil {
			c.logger.WithGuild(session.GuildID()).WithError(err).Debug("Lyrics lookup failed")
		}
		return &ControlOutcome{Handled: true, Lyrics: noLyricsFallback, Title: title}, nil
	}

	if runes := []rune(text); len(runes) > maxLyricsLength {
		text = string(runes[:maxLyricsLength])
	}

	return &ControlOutcome{Handled: true, Lyrics: text, Title: title}, nil
}

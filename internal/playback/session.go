package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/tanhuynh/groovebot/internal/audio"
	"github.com/tanhuynh/groovebot/internal/domain/entities"
	"github.com/tanhuynh/groovebot/internal/domain/valueobjects"
	errs "github.com/tanhuynh/groovebot/internal/errors"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

// trackReadyTimeout bounds how long the loop waits for a worker to
// resolve a track's stream before skipping it
const trackReadyTimeout = 30 * time.Second

// Session is the per-guild playback context: voice connection, queue,
// player and the loop that drains the queue. All mutation goes through
// methods; the coordinator only holds the interface.
type Session struct {
	guildID       string
	textChannelID string
	discord       *discordgo.Session
	queue         *entities.Queue
	vc            *audio.VoiceConnection
	player        *audio.Player
	processing    *ProcessingService
	logger        *logger.Logger

	mu         sync.Mutex
	playing    bool
	loopCancel context.CancelFunc

	onTrackStart func(track *entities.Track)
	onError      func(err error)
	onIdle       func()
}

func newSession(guildID, textChannelID string, discord *discordgo.Session, processing *ProcessingService, maxQueueSize, volume int, log *logger.Logger) *Session {
	vc := audio.NewVoiceConnection(guildID, log)
	return &Session{
		guildID:       guildID,
		textChannelID: textChannelID,
		discord:       discord,
		queue:         entities.NewQueue(guildID, maxQueueSize),
		vc:            vc,
		player:        audio.NewPlayer(guildID, vc, volume, log),
		processing:    processing,
		logger:        log,
	}
}

// GuildID returns the guild this session belongs to
func (s *Session) GuildID() string {
	return s.guildID
}

// TextChannelID returns the channel playback events are announced in
func (s *Session) TextChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textChannelID
}

func (s *Session) setTextChannelID(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textChannelID = channelID
}

// IsConnected reports whether the voice connection is up
func (s *Session) IsConnected() bool {
	return s.vc.IsConnected()
}

// VoiceChannelID returns the connected voice channel, empty when
// disconnected
func (s *Session) VoiceChannelID() string {
	return s.vc.ChannelID()
}

// Connect joins the voice channel and waits for readiness
func (s *Session) Connect(ctx context.Context, voiceChannelID string) error {
	return s.vc.Connect(ctx, s.discord, voiceChannelID)
}

// Enqueue admits tracks in order and submits pending ones for stream
// resolution. Returns how many were admitted before the queue filled.
func (s *Session) Enqueue(tracks []*entities.Track) int {
	admitted := s.queue.AddAll(tracks)

	for i := 0; i < admitted; i++ {
		if err := s.processing.Submit(tracks[i]); err != nil {
			s.logger.WithError(err).WithField("track_id", tracks[i].ID).Warn("Could not submit track for processing")
		}
	}

	return admitted
}

// CurrentTrack returns the streaming track, nil when idle
func (s *Session) CurrentTrack() *entities.Track {
	return s.player.CurrentTrack()
}

// PlaybackState reports the session's playback state
func (s *Session) PlaybackState() valueobjects.PlaybackState {
	s.mu.Lock()
	playing := s.playing
	s.mu.Unlock()

	if !playing {
		return valueobjects.PlaybackStateIdle
	}
	if s.player.IsPaused() {
		return valueobjects.PlaybackStatePaused
	}
	return valueobjects.PlaybackStatePlaying
}

// Pause suspends playback. Pausing an idle session is a no-op.
func (s *Session) Pause() error {
	if err := s.player.Pause(); err != nil && err != audio.ErrPlayerNotPlaying {
		return err
	}
	return nil
}

// Resume continues playback. Resuming an idle session is a no-op.
func (s *Session) Resume() error {
	if err := s.player.Resume(); err != nil && err != audio.ErrPlayerNotPlaying {
		return err
	}
	return nil
}

// Skip aborts the current track; the loop advances to the next one.
// Skipping while idle is a no-op.
func (s *Session) Skip() error {
	if err := s.player.Stop(); err != nil && err != audio.ErrPlayerNotPlaying {
		return err
	}
	return nil
}

// Upcoming returns up to limit queued tracks in play order
func (s *Session) Upcoming(limit int) []*entities.Track {
	return s.queue.Upcoming(limit)
}

// QueueSize returns the number of queued tracks
func (s *Session) QueueSize() int {
	return s.queue.Size()
}

// SetVolume applies to subsequent tracks
func (s *Session) SetVolume(level int) {
	s.player.SetVolume(level)
}

// Volume returns the current volume level
func (s *Session) Volume() int {
	return s.player.Volume()
}

// startIfIdle starts the playback loop when it is not running.
// The check and the start happen under one lock, so concurrent play
// requests produce at most one loop.
func (s *Session) startIfIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playing {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.playing = true
	s.loopCancel = cancel

	go s.run(ctx)
	return true
}

// stop halts the loop and clears the queue
func (s *Session) stop() {
	s.mu.Lock()
	if s.loopCancel != nil {
		s.loopCancel()
		s.loopCancel = nil
	}
	s.mu.Unlock()

	s.player.Cleanup()
	s.queue.Clear()
}

// destroy tears the session down completely
func (s *Session) destroy() {
	s.stop()
	if err := s.vc.Disconnect(); err != nil && err != audio.ErrNotConnected {
		s.logger.WithError(err).Warn("Voice disconnect failed during teardown")
	}
}

// run drains the queue until it is empty or the loop is cancelled
func (s *Session) run(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.playing = false
		s.loopCancel = nil
		s.mu.Unlock()

		if s.onIdle != nil {
			s.onIdle()
		}
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		track := s.queue.Next()
		if track == nil {
			s.logger.WithGuild(s.guildID).Debug("Queue drained, going idle")
			return
		}

		if !s.waitForReady(ctx, track) {
			if ctx.Err() != nil {
				return
			}
			s.logger.WithGuild(s.guildID).WithField("track", track.DisplayName()).Warn("Skipping unplayable track")
			if s.onError != nil {
				s.onError(fmt.Errorf("%w: %s", errs.ErrProcessingFailed, track.DisplayName()))
			}
			continue
		}

		if s.onTrackStart != nil {
			s.onTrackStart(track)
		}

		done := make(chan error, 1)
		if err := s.player.Play(track, func(_ *entities.Track, err error) {
			done <- err
		}); err != nil {
			if s.onError != nil {
				s.onError(err)
			}
			continue
		}

		select {
		case err := <-done:
			if err != nil && s.onError != nil {
				s.onError(err)
			}
		case <-ctx.Done():
			s.player.Stop()
			return
		}
	}
}

// waitForReady blocks until a worker marks the track ready or failed
func (s *Session) waitForReady(ctx context.Context, track *entities.Track) bool {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.After(trackReadyTimeout)

	for {
		switch track.GetStatus() {
		case valueobjects.TrackStatusReady:
			return true
		case valueobjects.TrackStatusFailed:
			return false
		}

		select {
		case <-ticker.C:
		case <-timeout:
			s.logger.WithField("track_id", track.ID).Warn("Timed out waiting for track to become ready")
			return false
		case <-ctx.Done():
			return false
		}
	}
}

package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/tanhuynh/groovebot/internal/coordinator"
	"github.com/tanhuynh/groovebot/internal/domain/entities"
	"github.com/tanhuynh/groovebot/internal/domain/valueobjects"
	errs "github.com/tanhuynh/groovebot/internal/errors"
	"github.com/tanhuynh/groovebot/internal/validation"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

// TrackResolver maps play queries to tracks
type TrackResolver interface {
	Resolve(ctx context.Context, query, requestedBy, requesterName, guildID string) (*coordinator.SearchResult, error)
}

// SettingsStore persists per-guild playback preferences
type SettingsStore interface {
	GuildVolume(ctx context.Context, guildID string) (int, error)
	SaveGuildVolume(ctx context.Context, guildID string, volume int) error
}

// Config tunes the backend
type Config struct {
	DefaultVolume int
	MaxQueueSize  int
	IdleTimeout   time.Duration
}

// Backend owns every guild's playback session. It implements the
// session registry, search and start-if-idle primitives the
// coordinator drives, and a few extra operations for the command
// surface (stop, queue listing, volume).
type Backend struct {
	discord    *discordgo.Session
	resolver   TrackResolver
	processing *ProcessingService
	logger     *logger.Logger
	cfg        Config
	settings   SettingsStore

	mu         sync.Mutex
	sessions   map[string]*Session
	idleTimers map[string]*time.Timer

	onTrackStart    func(guildID, textChannelID string, track *entities.Track)
	onPlaybackError func(guildID, textChannelID string, err error)
}

// New creates the backend
func New(discord *discordgo.Session, resolver TrackResolver, processing *ProcessingService, cfg Config, log *logger.Logger) *Backend {
	if cfg.DefaultVolume <= 0 || cfg.DefaultVolume > 100 {
		cfg.DefaultVolume = 100
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Minute
	}

	return &Backend{
		discord:    discord,
		resolver:   resolver,
		processing: processing,
		logger:     log,
		cfg:        cfg,
		sessions:   make(map[string]*Session),
		idleTimers: make(map[string]*time.Timer),
	}
}

// GetOrCreateSession returns the guild's session, creating one when
// absent. The bool reports whether this call created it.
func (b *Backend) GetOrCreateSession(guildID, voiceChannelID, textChannelID string) (coordinator.Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cancelIdleTimerLocked(guildID)

	if session, exists := b.sessions[guildID]; exists {
		session.setTextChannelID(textChannelID)
		return session, false
	}

	session := newSession(guildID, textChannelID, b.discord, b.processing, b.cfg.MaxQueueSize, b.guildVolume(guildID), b.logger)
	session.onTrackStart = func(track *entities.Track) {
		b.emitTrackStart(guildID, session.TextChannelID(), track)
	}
	session.onError = func(err error) {
		b.emitPlaybackError(guildID, session.TextChannelID(), err)
	}
	session.onIdle = func() {
		b.scheduleIdleTeardown(guildID)
	}

	b.sessions[guildID] = session
	b.logger.WithGuild(guildID).Info("Playback session created")

	return session, true
}

// GetSession returns the guild's session if it exists
func (b *Backend) GetSession(guildID string) (coordinator.Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	session, ok := b.sessions[guildID]
	if !ok {
		return nil, false
	}
	return session, true
}

// DestroySession tears the guild's session down and removes it
func (b *Backend) DestroySession(guildID string) {
	b.mu.Lock()
	session, ok := b.sessions[guildID]
	if ok {
		delete(b.sessions, guildID)
	}
	b.cancelIdleTimerLocked(guildID)
	b.mu.Unlock()

	if ok {
		session.destroy()
		b.logger.WithGuild(guildID).Info("Playback session destroyed")
	}
}

// StartIfIdle starts the session's playback loop if it is idle.
// The check and the start are one atomic operation inside the session.
func (b *Backend) StartIfIdle(session coordinator.Session) (bool, error) {
	s, ok := session.(*Session)
	if !ok {
		return false, fmt.Errorf("%w: foreign session type", errs.ErrInvalidInput)
	}
	return s.startIfIdle(), nil
}

// Search resolves a query to tracks attributed to the requester
func (b *Backend) Search(ctx context.Context, query, requestedBy, requesterName, guildID string) (*coordinator.SearchResult, error) {
	if err := validation.ValidateQuery(query); err != nil {
		return nil, err
	}
	return b.resolver.Resolve(ctx, query, requestedBy, requesterName, guildID)
}

// SetSettingsStore attaches persistent guild settings. Sessions created
// afterwards start at the stored volume.
func (b *Backend) SetSettingsStore(store SettingsStore) {
	b.settings = store
}

// guildVolume resolves the starting volume for a new session
func (b *Backend) guildVolume(guildID string) int {
	if b.settings == nil {
		return b.cfg.DefaultVolume
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	volume, err := b.settings.GuildVolume(ctx, guildID)
	if err != nil {
		b.logger.WithGuild(guildID).WithError(err).Warn("Failed to load stored volume, using default")
		return b.cfg.DefaultVolume
	}
	if err := validation.ValidateVolume(volume); err != nil {
		return b.cfg.DefaultVolume
	}
	return volume
}

// OnTrackStart registers the track-start event handler
func (b *Backend) OnTrackStart(fn func(guildID, textChannelID string, track *entities.Track)) {
	b.onTrackStart = fn
}

// OnPlaybackError registers the playback-error event handler
func (b *Backend) OnPlaybackError(fn func(guildID, textChannelID string, err error)) {
	b.onPlaybackError = fn
}

func (b *Backend) emitTrackStart(guildID, textChannelID string, track *entities.Track) {
	if b.onTrackStart != nil {
		b.onTrackStart(guildID, textChannelID, track)
	}
}

func (b *Backend) emitPlaybackError(guildID, textChannelID string, err error) {
	if b.onPlaybackError != nil {
		b.onPlaybackError(guildID, textChannelID, err)
	}
}

// scheduleIdleTeardown arms the idle timer when a session goes idle.
// Any new activity through GetOrCreateSession disarms it.
func (b *Backend) scheduleIdleTeardown(guildID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cancelIdleTimerLocked(guildID)
	b.idleTimers[guildID] = time.AfterFunc(b.cfg.IdleTimeout, func() {
		b.destroyIfIdle(guildID)
	})
}

func (b *Backend) cancelIdleTimerLocked(guildID string) {
	if timer, ok := b.idleTimers[guildID]; ok {
		timer.Stop()
		delete(b.idleTimers, guildID)
	}
}

func (b *Backend) destroyIfIdle(guildID string) {
	b.mu.Lock()
	session, ok := b.sessions[guildID]
	b.mu.Unlock()

	if !ok {
		return
	}
	if session.PlaybackState() != valueobjects.PlaybackStateIdle || session.QueueSize() > 0 {
		return
	}

	b.logger.WithGuild(guildID).Info("Idle timeout reached, leaving voice channel")
	b.DestroySession(guildID)
}

// Stop halts playback, clears the queue and leaves the voice channel
func (b *Backend) Stop(guildID string) error {
	b.mu.Lock()
	_, ok := b.sessions[guildID]
	b.mu.Unlock()

	if !ok {
		return errs.ErrNoSession
	}

	b.DestroySession(guildID)
	return nil
}

// Pause pauses the guild's playback
func (b *Backend) Pause(guildID string) error {
	session, ok := b.session(guildID)
	if !ok {
		return errs.ErrNoSession
	}
	if session.PlaybackState() != valueobjects.PlaybackStatePlaying {
		return errs.ErrNotPlaying
	}
	return session.Pause()
}

// Resume resumes the guild's playback
func (b *Backend) Resume(guildID string) error {
	session, ok := b.session(guildID)
	if !ok {
		return errs.ErrNoSession
	}
	if session.PlaybackState() != valueobjects.PlaybackStatePaused {
		return errs.ErrNotPlaying
	}
	return session.Resume()
}

// NowPlaying returns the guild's streaming track
func (b *Backend) NowPlaying(guildID string) *entities.Track {
	session, ok := b.session(guildID)
	if !ok {
		return nil
	}
	return session.CurrentTrack()
}

// Queue returns up to limit upcoming tracks for the guild
func (b *Backend) Queue(guildID string, limit int) []*entities.Track {
	session, ok := b.session(guildID)
	if !ok {
		return nil
	}
	return session.Upcoming(limit)
}

// SetVolume sets the guild's playback volume (0-100)
func (b *Backend) SetVolume(guildID string, level int) error {
	if err := validation.ValidateVolume(level); err != nil {
		return err
	}

	session, ok := b.session(guildID)
	if !ok {
		return errs.ErrNoSession
	}
	session.SetVolume(level)

	if b.settings != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := b.settings.SaveGuildVolume(ctx, guildID, level); err != nil {
			b.logger.WithGuild(guildID).WithError(err).Warn("Failed to persist volume")
		}
	}
	return nil
}

// VoiceChannelID returns the voice channel the bot occupies in the
// guild, empty when not connected
func (b *Backend) VoiceChannelID(guildID string) string {
	session, ok := b.session(guildID)
	if !ok {
		return ""
	}
	return session.VoiceChannelID()
}

// SessionCount returns the number of active sessions
func (b *Backend) SessionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Shutdown destroys every session
func (b *Backend) Shutdown() {
	b.mu.Lock()
	guildIDs := make([]string, 0, len(b.sessions))
	for guildID := range b.sessions {
		guildIDs = append(guildIDs, guildID)
	}
	b.mu.Unlock()

	for _, guildID := range guildIDs {
		b.DestroySession(guildID)
	}
}

func (b *Backend) session(guildID string) (*Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	session, ok := b.sessions[guildID]
	return session, ok
}

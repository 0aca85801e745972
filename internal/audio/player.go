package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tanhuynh/groovebot/internal/domain/entities"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

var (
	// ErrNoVoiceConnection is returned when there is no voice connection
	ErrNoVoiceConnection = errors.New("no voice connection")
	// ErrPlayerNotPlaying is returned when the player is not playing
	ErrPlayerNotPlaying = errors.New("player is not playing")
	// ErrPlayerBusy is returned when a play call arrives mid-playback
	ErrPlayerBusy = errors.New("player is already playing")
)

// PlaybackCallback fires when a track finishes or fails
type PlaybackCallback func(track *entities.Track, err error)

// Player streams one track at a time into a guild's voice connection
type Player struct {
	guildID string
	vc      *VoiceConnection
	encoder *Encoder
	logger  *logger.Logger

	currentTrack *entities.Track
	isPlaying    atomic.Bool
	isPaused     atomic.Bool
	stopSignal   chan struct{}
	callback     PlaybackCallback
	volume       int

	mu sync.RWMutex
}

// NewPlayer creates a player bound to a guild's voice connection
func NewPlayer(guildID string, vc *VoiceConnection, volume int, log *logger.Logger) *Player {
	if volume <= 0 || volume > 100 {
		volume = 100
	}
	return &Player{
		guildID:    guildID,
		vc:         vc,
		encoder:    NewEncoder(log),
		logger:     log,
		stopSignal: make(chan struct{}),
		volume:     volume,
	}
}

// Play starts streaming a track. The callback fires exactly once when
// the track finishes, fails, or is stopped.
func (p *Player) Play(track *entities.Track, callback PlaybackCallback) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isPlaying.Load() {
		return ErrPlayerBusy
	}
	if !p.vc.IsConnected() {
		return ErrNoVoiceConnection
	}
	if !track.IsReady() {
		return fmt.Errorf("track is not ready: status=%s", track.GetStatus())
	}

	// Stream from the original input rather than the resolved direct
	// URL; yt-dlp re-fetches and avoids expired stream URLs.
	sourceURL := track.OriginalInput
	if sourceURL == "" {
		sourceURL = track.GetStreamURL()
	}
	if sourceURL == "" {
		return fmt.Errorf("track has no source URL")
	}

	p.logger.WithGuild(p.guildID).WithField("track", track.DisplayName()).Info("Starting playback")

	p.currentTrack = track
	p.callback = callback
	p.stopSignal = make(chan struct{})
	p.isPlaying.Store(true)
	p.isPaused.Store(false)

	go p.playbackLoop(track, sourceURL)

	return nil
}

func (p *Player) playbackLoop(track *entities.Track, sourceURL string) {
	var playbackErr error

	defer func() {
		p.isPlaying.Store(false)
		p.isPaused.Store(false)

		p.mu.Lock()
		callback := p.callback
		p.callback = nil
		p.currentTrack = nil
		p.mu.Unlock()

		if callback != nil {
			callback(track, playbackErr)
		}
	}()

	if err := p.vc.Speaking(true); err != nil {
		playbackErr = err
		return
	}
	defer p.vc.Speaking(false)

	options := DefaultEncodeOptions()
	p.mu.RLock()
	options.Volume = p.volume
	p.mu.RUnlock()

	p.mu.RLock()
	stop := p.stopSignal
	p.mu.RUnlock()

	frameChannel, errorChannel, err := p.encoder.EncodeStream(sourceURL, options, stop)
	if err != nil {
		playbackErr = err
		return
	}

	vc := p.vc.Raw()
	if vc == nil {
		playbackErr = ErrNoVoiceConnection
		return
	}

	frameCount := 0
	for {
		select {
		case <-p.stopSignal:
			return

		case err := <-errorChannel:
			if err != nil {
				playbackErr = err
				return
			}

		case frame, ok := <-frameChannel:
			if !ok {
				p.logger.WithGuild(p.guildID).WithField("frames", frameCount).Info("Playback completed")
				return
			}

			for p.isPaused.Load() {
				select {
				case <-p.stopSignal:
					return
				case <-time.After(100 * time.Millisecond):
				}
			}

			select {
			case vc.OpusSend <- frame:
				frameCount++
			case <-p.stopSignal:
				return
			}
		}
	}
}

// Stop aborts the current playback
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isPlaying.Load() {
		return ErrPlayerNotPlaying
	}

	select {
	case <-p.stopSignal:
	default:
		close(p.stopSignal)
	}

	p.isPlaying.Store(false)
	p.isPaused.Store(false)

	return nil
}

// Pause suspends frame delivery
func (p *Player) Pause() error {
	if !p.isPlaying.Load() {
		return ErrPlayerNotPlaying
	}
	if p.isPaused.Load() {
		return nil
	}

	p.isPaused.Store(true)

	if err := p.vc.Speaking(false); err != nil {
		p.logger.WithError(err).Warn("Failed to update speaking state on pause")
	}
	return nil
}

// Resume continues frame delivery
func (p *Player) Resume() error {
	if !p.isPlaying.Load() {
		return ErrPlayerNotPlaying
	}
	if !p.isPaused.Load() {
		return nil
	}

	p.isPaused.Store(false)

	if err := p.vc.Speaking(true); err != nil {
		p.logger.WithError(err).Warn("Failed to update speaking state on resume")
	}
	return nil
}

// IsPlaying reports whether a track is streaming (paused counts)
func (p *Player) IsPlaying() bool {
	return p.isPlaying.Load()
}

// IsPaused reports whether playback is paused
func (p *Player) IsPaused() bool {
	return p.isPaused.Load()
}

// CurrentTrack returns the streaming track, nil when idle
func (p *Player) CurrentTrack() *entities.Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentTrack
}

// SetVolume sets the volume for subsequent tracks (0-100)
func (p *Player) SetVolume(level int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	p.volume = level
}

// Volume returns the current volume level
func (p *Player) Volume() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.volume
}

// Cleanup stops playback if any
func (p *Player) Cleanup() {
	if p.isPlaying.Load() {
		p.Stop()
	}
}

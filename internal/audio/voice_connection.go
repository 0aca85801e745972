package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

var (
	// ErrNotConnected is returned when not connected to a voice channel
	ErrNotConnected = errors.New("not connected to voice channel")
	// ErrConnectionFailed is returned when connection fails
	ErrConnectionFailed = errors.New("failed to connect to voice channel")
)

const connectReadyTimeout = 10 * time.Second

// VoiceConnection wraps the discordgo voice connection for one guild
type VoiceConnection struct {
	guildID   string
	channelID string
	vc        *discordgo.VoiceConnection
	logger    *logger.Logger
	mu        sync.RWMutex
}

// NewVoiceConnection creates a voice connection handle for a guild
func NewVoiceConnection(guildID string, log *logger.Logger) *VoiceConnection {
	return &VoiceConnection{
		guildID: guildID,
		logger:  log,
	}
}

// Connect joins the given voice channel and waits until the connection
// is ready. Connecting to the channel we are already in is a no-op;
// connecting to a different channel moves there.
func (v *VoiceConnection) Connect(ctx context.Context, session *discordgo.Session, channelID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.vc != nil && v.vc.Status == discordgo.VoiceConnectionStatusReady {
		if v.channelID == channelID {
			return nil
		}
		if err := v.disconnectLocked(); err != nil {
			v.logger.WithError(err).Warn("Failed to disconnect before moving")
		}
	}

	v.logger.WithGuild(v.guildID).WithField("channel", channelID).Info("Connecting to voice channel")

	// mute=false, deaf=true
	vc, err := session.ChannelVoiceJoin(ctx, v.guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	readyTimeout := time.After(connectReadyTimeout)
	readyTicker := time.NewTicker(100 * time.Millisecond)
	defer readyTicker.Stop()

	for vc.Status != discordgo.VoiceConnectionStatusReady {
		select {
		case <-ctx.Done():
			vc.Disconnect(context.Background())
			return fmt.Errorf("%w: %v", ErrConnectionFailed, ctx.Err())
		case <-readyTimeout:
			vc.Disconnect(context.Background())
			return fmt.Errorf("%w: connection not ready after %s", ErrConnectionFailed, connectReadyTimeout)
		case <-readyTicker.C:
		}
	}

	v.vc = vc
	v.channelID = channelID

	v.logger.WithGuild(v.guildID).WithField("channel", channelID).Info("Voice channel connected")
	return nil
}

// Disconnect leaves the voice channel
func (v *VoiceConnection) Disconnect() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.disconnectLocked()
}

func (v *VoiceConnection) disconnectLocked() error {
	if v.vc == nil {
		return ErrNotConnected
	}

	if err := v.vc.Disconnect(context.Background()); err != nil {
		return err
	}

	v.vc = nil
	v.channelID = ""
	return nil
}

// IsConnected reports whether the connection is up and ready
func (v *VoiceConnection) IsConnected() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.vc != nil && v.vc.Status == discordgo.VoiceConnectionStatusReady
}

// ChannelID returns the connected channel, empty when disconnected
func (v *VoiceConnection) ChannelID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.channelID
}

// Raw returns the underlying voice connection for frame streaming
func (v *VoiceConnection) Raw() *discordgo.VoiceConnection {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.vc
}

// Speaking sets the speaking indicator
func (v *VoiceConnection) Speaking(speaking bool) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.vc == nil {
		return ErrNotConnected
	}
	return v.vc.Speaking(speaking)
}

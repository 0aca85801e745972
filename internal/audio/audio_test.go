package audio_test

import (
	"testing"

	"github.com/tanhuynh/groovebot/internal/audio"
	"github.com/tanhuynh/groovebot/internal/domain/entities"
	"github.com/tanhuynh/groovebot/internal/domain/valueobjects"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func TestVoiceConnectionCreation(t *testing.T) {
	vc := audio.NewVoiceConnection("test-guild-123", testLogger())

	if vc.IsConnected() {
		t.Error("New voice connection should not be connected")
	}

	if vc.ChannelID() != "" {
		t.Error("New voice connection should have empty channel ID")
	}
}

func TestVoiceConnectionDisconnectWhenNotConnected(t *testing.T) {
	vc := audio.NewVoiceConnection("test-guild-123", testLogger())

	if err := vc.Disconnect(); err != audio.ErrNotConnected {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestEncodeOptions(t *testing.T) {
	options := audio.DefaultEncodeOptions()

	if options.Volume != 100 {
		t.Errorf("Expected default volume 100, got %d", options.Volume)
	}
	if options.Bitrate != 128 {
		t.Errorf("Expected default bitrate 128, got %d", options.Bitrate)
	}
	if options.Application != "audio" {
		t.Errorf("Expected default application 'audio', got %s", options.Application)
	}
}

func TestPlayerCreation(t *testing.T) {
	vc := audio.NewVoiceConnection("test-guild-123", testLogger())
	player := audio.NewPlayer("test-guild-123", vc, 100, testLogger())

	if player.IsPlaying() {
		t.Error("New player should not be playing")
	}
	if player.IsPaused() {
		t.Error("New player should not be paused")
	}
	if player.CurrentTrack() != nil {
		t.Error("New player should have no current track")
	}
	if player.Volume() != 100 {
		t.Errorf("Expected volume 100, got %d", player.Volume())
	}
}

func TestPlayerVolumeDefaultsAndClamping(t *testing.T) {
	vc := audio.NewVoiceConnection("test-guild-123", testLogger())

	player := audio.NewPlayer("test-guild-123", vc, 0, testLogger())
	if player.Volume() != 100 {
		t.Errorf("Invalid constructor volume should default to 100, got %d", player.Volume())
	}

	player.SetVolume(150)
	if player.Volume() != 100 {
		t.Errorf("Volume should clamp to 100, got %d", player.Volume())
	}

	player.SetVolume(-5)
	if player.Volume() != 0 {
		t.Errorf("Volume should clamp to 0, got %d", player.Volume())
	}
}

func TestPlayerControlsWhenNotPlaying(t *testing.T) {
	vc := audio.NewVoiceConnection("test-guild-123", testLogger())
	player := audio.NewPlayer("test-guild-123", vc, 100, testLogger())

	if err := player.Stop(); err != audio.ErrPlayerNotPlaying {
		t.Errorf("Expected ErrPlayerNotPlaying from Stop, got %v", err)
	}
	if err := player.Pause(); err != audio.ErrPlayerNotPlaying {
		t.Errorf("Expected ErrPlayerNotPlaying from Pause, got %v", err)
	}
	if err := player.Resume(); err != audio.ErrPlayerNotPlaying {
		t.Errorf("Expected ErrPlayerNotPlaying from Resume, got %v", err)
	}
}

func TestPlayerPlayRequiresReadyTrack(t *testing.T) {
	vc := audio.NewVoiceConnection("test-guild-123", testLogger())
	player := audio.NewPlayer("test-guild-123", vc, 100, testLogger())

	track := entities.NewTrack(
		"https://example.com/test.mp3",
		valueobjects.SourceTypeURL,
		"user-1",
		"TestUser",
		"test-guild-123",
	)

	if err := player.Play(track, nil); err == nil {
		t.Error("Expected error when playing a non-ready track")
	}
}

func TestPlayerPlayRequiresConnection(t *testing.T) {
	vc := audio.NewVoiceConnection("test-guild-123", testLogger())
	player := audio.NewPlayer("test-guild-123", vc, 100, testLogger())

	track := entities.NewTrack(
		"https://example.com/test.mp3",
		valueobjects.SourceTypeURL,
		"user-1",
		"TestUser",
		"test-guild-123",
	)
	track.MarkReady(&valueobjects.TrackMetadata{Title: "Test Track", Duration: 180},
		"https://stream.example.com/audio.m3u8")

	if err := player.Play(track, nil); err != audio.ErrNoVoiceConnection {
		t.Errorf("Expected ErrNoVoiceConnection, got %v", err)
	}
}

func TestPlayerCleanup(t *testing.T) {
	vc := audio.NewVoiceConnection("test-guild-123", testLogger())
	player := audio.NewPlayer("test-guild-123", vc, 100, testLogger())

	// Cleanup must not panic when nothing is playing
	player.Cleanup()
}

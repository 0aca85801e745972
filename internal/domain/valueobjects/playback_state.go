package valueobjects

// PlaybackState represents the playback state of a guild session
type PlaybackState string

const (
	PlaybackStateIdle    PlaybackState = "idle"
	PlaybackStatePlaying PlaybackState = "playing"
	PlaybackStatePaused  PlaybackState = "paused"
)

// String returns the string representation
func (s PlaybackState) String() string {
	return string(s)
}

// IsActive returns true when audio is being produced or held
func (s PlaybackState) IsActive() bool {
	return s == PlaybackStatePlaying || s == PlaybackStatePaused
}

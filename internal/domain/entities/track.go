package entities

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tanhuynh/groovebot/internal/domain/valueobjects"
)

// Track represents a playable track with full lifecycle management
type Track struct {
	// Identity
	ID            string                  `json:"id"`
	OriginalInput string                  `json:"original_input"`
	SourceType    valueobjects.SourceType `json:"source_type"`

	// State
	Status       valueobjects.TrackStatus    `json:"status"`
	Metadata     *valueobjects.TrackMetadata `json:"metadata,omitempty"`
	StreamURL    string                      `json:"stream_url,omitempty"`
	ErrorMessage string                      `json:"error_message,omitempty"`

	// Timestamps
	CreatedAt          time.Time `json:"created_at"`
	ProcessedAt        time.Time `json:"processed_at,omitempty"`
	StreamURLTimestamp time.Time `json:"stream_url_timestamp,omitempty"`

	// Requester info; empty RequestedBy means the track was autoplay-originated
	RequestedBy   string `json:"requested_by,omitempty"`
	RequesterName string `json:"requester_name,omitempty"`
	GuildID       string `json:"guild_id,omitempty"`

	mu sync.RWMutex
}

// NewTrack creates a new track with PENDING status
func NewTrack(originalInput string, sourceType valueobjects.SourceType, requestedBy, requesterName, guildID string) *Track {
	return &Track{
		ID:            uuid.New().String(),
		OriginalInput: originalInput,
		SourceType:    sourceType,
		Status:        valueobjects.TrackStatusPending,
		CreatedAt:     time.Now(),
		RequestedBy:   requestedBy,
		RequesterName: requesterName,
		GuildID:       guildID,
	}
}

// IsReady checks if the track is ready to play
func (t *Track) IsReady() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status == valueobjects.TrackStatusReady &&
		t.Metadata != nil &&
		t.StreamURL != ""
}

// DisplayName returns the best display name for the track
func (t *Track) DisplayName() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.Metadata != nil {
		return t.Metadata.DisplayName()
	}
	return t.OriginalInput
}

// DurationFormatted returns formatted duration
func (t *Track) DurationFormatted() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.Metadata != nil {
		return t.Metadata.DurationFormatted()
	}
	return "00:00"
}

// Thumbnail returns the thumbnail URL, if known
func (t *Track) Thumbnail() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.Metadata != nil {
		return t.Metadata.Thumbnail
	}
	return ""
}

// Requester returns the display name of the requesting user.
// Tracks without a requester are autoplay-originated.
func (t *Track) Requester() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.RequesterName != "" {
		return t.RequesterName
	}
	if t.RequestedBy != "" {
		return t.RequestedBy
	}
	return "Autoplay"
}

// MarkProcessing marks the track as being processed
func (t *Track) MarkProcessing() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Status = valueobjects.TrackStatusProcessing
	t.ProcessedAt = time.Now()
}

// MarkReady marks the track as ready with metadata and stream URL
func (t *Track) MarkReady(metadata *valueobjects.TrackMetadata, streamURL string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Status = valueobjects.TrackStatusReady
	t.Metadata = metadata
	t.StreamURL = streamURL
	t.StreamURLTimestamp = time.Now()
	t.ErrorMessage = ""
}

// SetMetadata attaches metadata without changing the lifecycle status.
// Used when search results carry metadata before stream resolution.
func (t *Track) SetMetadata(metadata *valueobjects.TrackMetadata) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Metadata = metadata
}

// MarkFailed marks the track as failed with an error message
func (t *Track) MarkFailed(err string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Status = valueobjects.TrackStatusFailed
	t.ErrorMessage = err
}

// RefreshStreamURL updates the stream URL (for expired URLs)
func (t *Track) RefreshStreamURL(newStreamURL string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.StreamURL = newStreamURL
	t.StreamURLTimestamp = time.Now()
}

// IsStreamExpired checks if the stream URL is older than threshold
func (t *Track) IsStreamExpired(threshold time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.StreamURLTimestamp.IsZero() {
		return false
	}
	return time.Since(t.StreamURLTimestamp) > threshold
}

// GetStreamURL safely returns the stream URL
func (t *Track) GetStreamURL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.StreamURL
}

// GetMetadata safely returns a copy of metadata
func (t *Track) GetMetadata() *valueobjects.TrackMetadata {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.Metadata == nil {
		return nil
	}

	metadata := *t.Metadata
	return &metadata
}

// GetStatus safely returns the current status
func (t *Track) GetStatus() valueobjects.TrackStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

package valueobjects

import "fmt"

// TrackMetadata contains metadata information about a track
type TrackMetadata struct {
	Title     string `json:"title"`
	Artist    string `json:"artist,omitempty"`
	Duration  int    `json:"duration"` // seconds
	Thumbnail string `json:"thumbnail,omitempty"`
	Uploader  string `json:"uploader,omitempty"`
}

// DisplayName returns the best display name for the track
func (m *TrackMetadata) DisplayName() string {
	if m.Artist != "" {
		return fmt.Sprintf("%s - %s", m.Artist, m.Title)
	}
	return m.Title
}

// DurationFormatted returns duration in MM:SS format (HH:MM:SS past an hour)
func (m *TrackMetadata) DurationFormatted() string {
	if m.Duration <= 0 {
		return "00:00"
	}

	hours := m.Duration / 3600
	minutes := (m.Duration % 3600) / 60
	seconds := m.Duration % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

package valueobjects

// TrackStatus represents the processing status of a track
type TrackStatus string

const (
	TrackStatusPending    TrackStatus = "pending"
	TrackStatusProcessing TrackStatus = "processing"
	TrackStatusReady      TrackStatus = "ready"
	TrackStatusFailed     TrackStatus = "failed"
)

// String returns the string representation
func (s TrackStatus) String() string {
	return string(s)
}

// IsValid checks if the status is valid
func (s TrackStatus) IsValid() bool {
	switch s {
	case TrackStatusPending, TrackStatusProcessing, TrackStatusReady, TrackStatusFailed:
		return true
	}
	return false
}

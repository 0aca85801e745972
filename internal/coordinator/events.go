package coordinator

import "github.com/tanhuynh/groovebot/internal/domain/entities"

// PlayRequest is a normalized play command from any surface
// (slash command or prefix command). Consumed synchronously;
// never persisted.
type PlayRequest struct {
	GuildID        string
	RequestedBy    string
	RequesterName  string
	VoiceChannelID string // empty when the user is not in a voice channel
	TextChannelID  string
	Query          string
}

// ControlKind identifies a playback control button press
type ControlKind int

const (
	ControlTogglePause ControlKind = iota
	ControlSkip
	ControlShowLyrics
)

func (k ControlKind) String() string {
	switch k {
	case ControlTogglePause:
		return "toggle_pause"
	case ControlSkip:
		return "skip"
	case ControlShowLyrics:
		return "show_lyrics"
	}
	return "unknown"
}

// ControlAction is a normalized button press
type ControlAction struct {
	GuildID string
	Kind    ControlKind
}

// PlayOutcome reports what a successful play request did,
// for the reply surface to render
type PlayOutcome struct {
	Primary    *entities.Track
	Count      int
	Position   int
	IsPlaylist bool
	Started    bool
}

// ControlOutcome reports what a control action did.
// Handled is false when no session existed for the guild.
type ControlOutcome struct {
	Handled bool
	Paused  bool
	Lyrics  string
	Title   string
}

// SearchResult is the resolver output for one query
type SearchResult struct {
	Tracks        []*entities.Track
	IsPlaylist    bool
	PlaylistTitle string
}

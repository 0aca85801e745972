package resolver

import (
	"testing"

	"github.com/tanhuynh/groovebot/internal/domain/valueobjects"
	"github.com/tanhuynh/groovebot/internal/validation"
)

func TestParseInfoLines(t *testing.T) {
	output := []byte(`{"id":"abc123","title":"Song A","duration":180,"uploader":"Channel","webpage_url":"https://www.youtube.com/watch?v=abc123"}
{"id":"def456","title":"Song B","duration":240.5,"uploader":"Channel"}

not json
{"id":"ghi789","title":"Song C"}`)

	infos := parseInfoLines(output)
	if len(infos) != 3 {
		t.Fatalf("Expected 3 parsed entries, got %d", len(infos))
	}

	if infos[0].ID != "abc123" || infos[0].Title != "Song A" {
		t.Errorf("First entry parsed wrong: %+v", infos[0])
	}
	if infos[1].Duration != 240.5 {
		t.Errorf("Fractional duration should parse, got %f", infos[1].Duration)
	}
}

func TestParseInfoLinesEmpty(t *testing.T) {
	if infos := parseInfoLines([]byte("")); len(infos) != 0 {
		t.Errorf("Empty output should parse to no entries, got %d", len(infos))
	}
	if infos := parseInfoLines([]byte("\n\n")); len(infos) != 0 {
		t.Errorf("Blank lines should parse to no entries, got %d", len(infos))
	}
}

func TestTrackInput(t *testing.T) {
	tests := []struct {
		name string
		info trackInfo
		want string
	}{
		{
			name: "prefers webpage URL",
			info: trackInfo{ID: "abc123", WebpageURL: "https://www.youtube.com/watch?v=abc123"},
			want: "https://www.youtube.com/watch?v=abc123",
		},
		{
			name: "falls back to watch URL from ID",
			info: trackInfo{ID: "def456"},
			want: "https://www.youtube.com/watch?v=def456",
		},
		{
			name: "empty entry yields nothing",
			info: trackInfo{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trackInput(&tt.info); got != tt.want {
				t.Errorf("trackInput() = %q, want %q", got, tt.want)
			}
		})
	}
}

// A search result's track must carry the resolved video URL as its
// input, never the free-text query: the stream workers and the encoder
// both hand the input back to yt-dlp as a source argument, and bare
// text is not a valid source.
func TestSearchTrackInputIsURL(t *testing.T) {
	info := &trackInfo{
		ID:         "abc123",
		Title:      "Song A",
		Duration:   180,
		WebpageURL: "https://www.youtube.com/watch?v=abc123",
	}

	track := buildTrack(info, trackInput(info), valueobjects.SourceTypeSearch, "user-1", "User", "guild-1")

	if track.OriginalInput == "Song A" {
		t.Fatal("Search track input must not be the query text")
	}
	if !validation.IsURL(track.OriginalInput) {
		t.Errorf("Search track input should be a URL, got %q", track.OriginalInput)
	}

	// Flat entries without a page URL still resolve to a watch URL
	bare := &trackInfo{ID: "def456", Title: "Song B"}
	track = buildTrack(bare, trackInput(bare), valueobjects.SourceTypeSearch, "user-1", "User", "guild-1")
	if track.OriginalInput != "https://www.youtube.com/watch?v=def456" {
		t.Errorf("Expected watch URL fallback, got %q", track.OriginalInput)
	}
}

func TestBuildTrackWithStreamURL(t *testing.T) {
	info := &trackInfo{
		ID:        "abc123",
		Title:     "Song A",
		Duration:  180,
		Uploader:  "Channel",
		Thumbnail: "https://img.example/thumb.jpg",
		StreamURL: "https://stream.example/audio",
	}

	track := buildTrack(info, "https://www.youtube.com/watch?v=abc123",
		valueobjects.SourceTypeYouTube, "user-1", "User", "guild-1")

	if !track.IsReady() {
		t.Error("Track with stream URL should be ready immediately")
	}
	if track.GetStreamURL() != "https://stream.example/audio" {
		t.Errorf("Wrong stream URL: %s", track.GetStreamURL())
	}

	meta := track.GetMetadata()
	if meta == nil || meta.Title != "Song A" || meta.Duration != 180 {
		t.Errorf("Metadata not carried over: %+v", meta)
	}
}

func TestBuildTrackWithoutStreamURL(t *testing.T) {
	info := &trackInfo{
		ID:       "abc123",
		Title:    "Song A",
		Duration: 180,
	}

	track := buildTrack(info, "https://www.youtube.com/watch?v=abc123",
		valueobjects.SourceTypeYouTubePlaylist, "user-1", "User", "guild-1")

	if track.IsReady() {
		t.Error("Track without stream URL should stay pending")
	}
	if track.GetStatus() != valueobjects.TrackStatusPending {
		t.Errorf("Expected PENDING status, got %s", track.GetStatus())
	}
	if meta := track.GetMetadata(); meta == nil || meta.Title != "Song A" {
		t.Error("Flat-extracted metadata should still be attached")
	}
}

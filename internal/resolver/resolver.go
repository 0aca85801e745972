package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/tanhuynh/groovebot/internal/coordinator"
	"github.com/tanhuynh/groovebot/internal/domain/entities"
	"github.com/tanhuynh/groovebot/internal/domain/valueobjects"
	"github.com/tanhuynh/groovebot/internal/utils"
	"github.com/tanhuynh/groovebot/internal/validation"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

var (
	// ErrYtDlpNotFound is returned when yt-dlp is not installed
	ErrYtDlpNotFound = errors.New("yt-dlp not found in PATH")
	// ErrExtractionFailed is returned when extraction fails
	ErrExtractionFailed = errors.New("failed to extract track information")
)

// trackInfo is the yt-dlp --dump-json output we care about
type trackInfo struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Duration   float64 `json:"duration"`
	Uploader   string  `json:"uploader"`
	Thumbnail  string  `json:"thumbnail"`
	WebpageURL string  `json:"webpage_url"`
	StreamURL  string  `json:"url,omitempty"`
	Type       string  `json:"_type,omitempty"`
}

// Resolver turns play queries into tracks via yt-dlp.
// Free text becomes a ytsearch, playlist URLs are flat-extracted,
// everything else is extracted directly.
type Resolver struct {
	cache     *utils.SmartCache
	logger    *logger.Logger
	ytDlpPath string
}

// New creates a resolver. Fails when yt-dlp is not installed.
func New(log *logger.Logger) (*Resolver, error) {
	ytDlpPath, err := exec.LookPath("yt-dlp")
	if err != nil {
		return nil, fmt.Errorf("%w: please install yt-dlp", ErrYtDlpNotFound)
	}

	// Stream URLs expire, keep the TTL short
	cache := utils.NewSmartCache(500, 5*time.Minute)

	log.WithField("ytdlp_path", ytDlpPath).Info("Resolver initialized")

	return &Resolver{
		cache:     cache,
		logger:    log,
		ytDlpPath: ytDlpPath,
	}, nil
}

// Resolve maps a query to an ordered set of tracks attributed to the
// requesting user. An empty result is a valid, non-error outcome.
func (r *Resolver) Resolve(ctx context.Context, query, requestedBy, requesterName, guildID string) (*coordinator.SearchResult, error) {
	query = validation.SanitizeInput(query)

	switch {
	case validation.IsYouTubePlaylistURL(query):
		return r.resolvePlaylist(ctx, query, requestedBy, requesterName, guildID)
	case validation.IsURL(query):
		return r.resolveURL(ctx, query, requestedBy, requesterName, guildID)
	default:
		return r.resolveSearch(ctx, query, requestedBy, requesterName, guildID)
	}
}

func (r *Resolver) resolveURL(ctx context.Context, url, requestedBy, requesterName, guildID string) (*coordinator.SearchResult, error) {
	info, err := r.extractInfo(ctx, url)
	if err != nil {
		return nil, err
	}

	sourceType := valueobjects.SourceTypeURL
	if validation.IsYouTubeURL(url) {
		sourceType = valueobjects.SourceTypeYouTube
	} else if validation.IsSoundCloudURL(url) {
		sourceType = valueobjects.SourceTypeSoundCloud
	}

	track := buildTrack(info, url, sourceType, requestedBy, requesterName, guildID)
	return &coordinator.SearchResult{Tracks: []*entities.Track{track}}, nil
}

func (r *Resolver) resolveSearch(ctx context.Context, query, requestedBy, requesterName, guildID string) (*coordinator.SearchResult, error) {
	r.logger.WithField("query", query).Info("Searching...")

	output, err := r.run(ctx,
		"--dump-json",
		"--no-check-certificate",
		"--geo-bypass",
		fmt.Sprintf("ytsearch1:%s", query),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	infos := parseInfoLines(output)
	if len(infos) == 0 {
		return &coordinator.SearchResult{}, nil
	}

	// The track input must be the resolved video URL, never the search
	// text itself; stream resolution and the encoder both feed it back
	// to yt-dlp as a source argument.
	info := &infos[0]
	input := trackInput(info)
	if input == "" {
		return &coordinator.SearchResult{}, nil
	}

	track := buildTrack(info, input, valueobjects.SourceTypeSearch, requestedBy, requesterName, guildID)
	return &coordinator.SearchResult{Tracks: []*entities.Track{track}}, nil
}

func (r *Resolver) resolvePlaylist(ctx context.Context, url, requestedBy, requesterName, guildID string) (*coordinator.SearchResult, error) {
	r.logger.WithField("url", url).Info("Extracting playlist...")

	output, err := r.run(ctx,
		"--dump-json",
		"--flat-playlist",
		"--no-check-certificate",
		"--geo-bypass",
		url,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	infos := parseInfoLines(output)
	if len(infos) == 0 {
		return &coordinator.SearchResult{IsPlaylist: true}, nil
	}

	tracks := make([]*entities.Track, 0, len(infos))
	for i := range infos {
		info := &infos[i]
		tracks = append(tracks, buildTrack(info, trackInput(info), valueobjects.SourceTypeYouTubePlaylist, requestedBy, requesterName, guildID))
	}

	r.logger.WithField("count", len(tracks)).Info("Playlist extracted")

	return &coordinator.SearchResult{
		Tracks:     tracks,
		IsPlaylist: true,
	}, nil
}

// extractInfo extracts a single video, cached per URL
func (r *Resolver) extractInfo(ctx context.Context, url string) (*trackInfo, error) {
	if cached, ok := r.cache.Get(url); ok {
		return cached.(*trackInfo), nil
	}

	output, err := r.run(ctx,
		"--dump-json",
		"--no-playlist",
		"--format", "bestaudio/best",
		"--no-check-certificate",
		"--geo-bypass",
		url,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var info trackInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("failed to parse track info: %w", err)
	}

	r.cache.Set(url, &info)
	return &info, nil
}

// StreamURL resolves the best audio stream URL for a track's input.
// Used by the processing workers when a track carries no stream yet.
func (r *Resolver) StreamURL(ctx context.Context, input string) (string, error) {
	cacheKey := "stream:" + input
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.(string), nil
	}

	output, err := r.run(ctx,
		"--get-url",
		"--no-playlist",
		"--format", "bestaudio/best",
		"--no-check-certificate",
		"--geo-bypass",
		input,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	streamURL := strings.TrimSpace(string(output))
	if streamURL == "" {
		return "", fmt.Errorf("%w: empty stream URL", ErrExtractionFailed)
	}
	if idx := strings.IndexByte(streamURL, '\n'); idx > 0 {
		streamURL = streamURL[:idx]
	}

	r.cache.Set(cacheKey, streamURL)
	return streamURL, nil
}

func (r *Resolver) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.ytDlpPath, args...)
	output, err := cmd.Output()
	if err != nil {
		r.logger.WithError(err).WithField("args", strings.Join(args, " ")).Error("yt-dlp failed")
		return nil, err
	}
	return output, nil
}

// trackInput returns the canonical source URL for a resolved entry,
// empty when the entry carries neither a page URL nor an ID
func trackInput(info *trackInfo) string {
	if info.WebpageURL != "" {
		return info.WebpageURL
	}
	if info.ID != "" {
		return "https://www.youtube.com/watch?v=" + info.ID
	}
	return ""
}

// parseInfoLines parses newline-delimited JSON objects from yt-dlp
func parseInfoLines(output []byte) []trackInfo {
	var infos []trackInfo
	for _, line := range strings.Split(string(output), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		var info trackInfo
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// buildTrack converts yt-dlp output into a track. Tracks without a
// stream URL stay pending until a processing worker resolves one.
func buildTrack(info *trackInfo, input string, sourceType valueobjects.SourceType, requestedBy, requesterName, guildID string) *entities.Track {
	track := entities.NewTrack(input, sourceType, requestedBy, requesterName, guildID)

	metadata := &valueobjects.TrackMetadata{
		Title:     info.Title,
		Duration:  int(info.Duration),
		Thumbnail: info.Thumbnail,
		Uploader:  info.Uploader,
	}

	if info.StreamURL != "" {
		track.MarkReady(metadata, info.StreamURL)
	} else {
		track.SetMetadata(metadata)
	}

	return track
}

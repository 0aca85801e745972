package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/tanhuynh/groovebot/internal/errors"
)

var (
	// URL patterns
	youtubePattern         = regexp.MustCompile(`^(https?://)?(www\.|music\.)?(youtube\.com|youtu\.be)/.+$`)
	youtubePlaylistPattern = regexp.MustCompile(`[?&]list=[a-zA-Z0-9_-]+`)
	soundcloudPattern      = regexp.MustCompile(`^https?://(www\.)?soundcloud\.com/.+$`)
)

// ValidateQuery checks a play query before it reaches the resolver
func ValidateQuery(input string) error {
	input = SanitizeInput(input)

	if input == "" {
		return fmt.Errorf("%w: query cannot be empty", errors.ErrInvalidInput)
	}

	if len(input) > 500 {
		return fmt.Errorf("%w: query too long (max 500 characters)", errors.ErrInvalidInput)
	}

	return nil
}

// ValidateURL validates if a string is a parseable URL
func ValidateURL(input string) error {
	if input == "" {
		return fmt.Errorf("%w: URL cannot be empty", errors.ErrInvalidURL)
	}

	_, err := url.ParseRequestURI(input)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidURL, err)
	}

	return nil
}

// IsURL reports whether the input looks like a URL rather than free text
func IsURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

// IsYouTubeURL checks if URL is a YouTube URL
func IsYouTubeURL(input string) bool {
	return youtubePattern.MatchString(input)
}

// IsYouTubePlaylistURL checks if URL is a YouTube playlist URL.
// Watch URLs carrying a list parameter (YouTube Radio / autoplay mixes)
// are treated as single videos, not playlists.
func IsYouTubePlaylistURL(input string) bool {
	return IsYouTubeURL(input) &&
		strings.Contains(input, "/playlist") &&
		youtubePlaylistPattern.MatchString(input)
}

// IsSoundCloudURL checks if URL is a SoundCloud URL
func IsSoundCloudURL(input string) bool {
	return soundcloudPattern.MatchString(input)
}

// IsSupportedURL checks if URL is from a supported platform
func IsSupportedURL(input string) bool {
	return IsYouTubeURL(input) || IsSoundCloudURL(input)
}

// ValidateVolume validates volume level (0-100)
func ValidateVolume(volume int) error {
	if volume < 0 || volume > 100 {
		return errors.ErrInvalidVolume
	}
	return nil
}

// SanitizeInput removes null bytes and surrounding whitespace
func SanitizeInput(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)
	return input
}

// TruncateString safely truncates a string to max length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	// Try to truncate at word boundary
	if maxLen > 3 {
		s = s[:maxLen-3]
		if idx := strings.LastIndexAny(s, " \t\n"); idx > 0 {
			s = s[:idx]
		}
		return s + "..."
	}

	return s[:maxLen]
}

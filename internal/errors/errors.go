package errors

import (
	"errors"
	"fmt"
)

// Common error types for better error handling
var (
	// Play request errors
	ErrNoVoiceChannel     = errors.New("user is not in a voice channel")
	ErrVoiceJoinFailed    = errors.New("could not join voice channel")
	ErrNoResults          = errors.New("no results found")
	ErrBackendUnavailable = errors.New("audio backend unavailable")

	// Playback errors
	ErrNotPlaying     = errors.New("no track is currently playing")
	ErrAlreadyPlaying = errors.New("already playing")
	ErrNoSession      = errors.New("no playback session for guild")

	// Queue errors
	ErrQueueEmpty = errors.New("queue is empty")
	ErrQueueFull  = errors.New("queue is full")

	// Lyrics errors
	ErrLyricsUnavailable = errors.New("lyrics unavailable")

	// Processing errors
	ErrProcessingFailed = errors.New("failed to process track")
	ErrServiceStopped   = errors.New("service is stopped")

	// Validation errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrInvalidVolume = errors.New("volume must be between 0 and 100")
)

// UserError wraps an error with a user-friendly message
type UserError struct {
	Err     error
	Message string
}

func (e *UserError) Error() string {
	return e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func (e *UserError) UserMessage() string {
	return e.Message
}

// NewUserError creates a new user error
func NewUserError(err error, message string) *UserError {
	return &UserError{
		Err:     err,
		Message: message,
	}
}

// WrapUserError wraps an error with a user-friendly message
func WrapUserError(err error, format string, args ...interface{}) *UserError {
	return &UserError{
		Err:     err,
		Message: fmt.Sprintf(format, args...),
	}
}

// GetUserMessage extracts user-friendly message from error
func GetUserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage()
	}

	// Map common errors to user-friendly messages
	switch {
	case errors.Is(err, ErrNoVoiceChannel):
		return "🔊 Join a voice channel first!"
	case errors.Is(err, ErrVoiceJoinFailed):
		return "❌ Could not join your voice channel"
	case errors.Is(err, ErrNoResults):
		return "❌ No results found!"
	case errors.Is(err, ErrBackendUnavailable):
		return "❌ Failed to play track! Please try again later"
	case errors.Is(err, ErrNotPlaying):
		return "❌ Nothing is playing right now"
	case errors.Is(err, ErrQueueEmpty):
		return "📋 Queue is empty. Use `/play` to add tracks"
	case errors.Is(err, ErrQueueFull):
		return "⚠️ Queue is full. Please wait or clear the queue"
	case errors.Is(err, ErrInvalidURL):
		return "🔗 Invalid URL. Please provide a valid link or search query"
	case errors.Is(err, ErrInvalidVolume):
		return "🔊 Volume must be between 0 and 100"
	default:
		return "❌ An error occurred. Please try again later"
	}
}

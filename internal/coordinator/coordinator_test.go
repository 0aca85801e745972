package coordinator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tanhuynh/groovebot/internal/domain/entities"
	"github.com/tanhuynh/groovebot/internal/domain/valueobjects"
	errs "github.com/tanhuynh/groovebot/internal/errors"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

// fakeSession records every command issued against it

type fakeSession struct {
	guildID       string
	textChannelID string
	connected     bool
	state         valueobjects.PlaybackState
	current       *entities.Track
	queued        []*entities.Track

	connectCalls int
	connectErr   error
	enqueueCalls int
	pauseCalls   int
	resumeCalls  int
	skipCalls    int
}

func (s *fakeSession) GuildID() string       { return s.guildID }
func (s *fakeSession) TextChannelID() string { return s.textChannelID }
func (s *fakeSession) IsConnected() bool     { return s.connected }

func (s *fakeSession) Connect(ctx context.Context, voiceChannelID string) error {
	s.connectCalls++
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = true
	return nil
}

func (s *fakeSession) Enqueue(tracks []*entities.Track) int {
	s.enqueueCalls++
	s.queued = append(s.queued, tracks...)
	return len(tracks)
}

func (s *fakeSession) QueueSize() int                            { return len(s.queued) }
func (s *fakeSession) CurrentTrack() *entities.Track             { return s.current }
func (s *fakeSession) PlaybackState() valueobjects.PlaybackState { return s.state }

func (s *fakeSession) Pause() error {
	s.pauseCalls++
	s.state = valueobjects.PlaybackStatePaused
	return nil
}

func (s *fakeSession) Resume() error {
	s.resumeCalls++
	s.state = valueobjects.PlaybackStatePlaying
	return nil
}

func (s *fakeSession) Skip() error {
	s.skipCalls++
	return nil
}

// fakeBackend is an in-memory session registry with a scripted search

type fakeBackend struct {
	sessions      map[string]*fakeSession
	createdCount  int
	searchCalls   int
	searchResult  *SearchResult
	searchErr     error
	startCalls    int
	destroyCalls  int
	newConnectErr error

	trackStart    func(guildID, textChannelID string, track *entities.Track)
	playbackError func(guildID, textChannelID string, err error)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{sessions: make(map[string]*fakeSession)}
}

func (b *fakeBackend) GetOrCreateSession(guildID, voiceChannelID, textChannelID string) (Session, bool) {
	if s, ok := b.sessions[guildID]; ok {
		return s, false
	}
	b.createdCount++
	s := &fakeSession{
		guildID:       guildID,
		textChannelID: textChannelID,
		state:         valueobjects.PlaybackStateIdle,
		connectErr:    b.newConnectErr,
	}
	b.sessions[guildID] = s
	return s, true
}

func (b *fakeBackend) GetSession(guildID string) (Session, bool) {
	s, ok := b.sessions[guildID]
	if !ok {
		return nil, false
	}
	return s, true
}

func (b *fakeBackend) DestroySession(guildID string) {
	b.destroyCalls++
	delete(b.sessions, guildID)
}

func (b *fakeBackend) StartIfIdle(session Session) (bool, error) {
	s := session.(*fakeSession)
	if s.state != valueobjects.PlaybackStateIdle {
		return false, nil
	}
	b.startCalls++
	s.state = valueobjects.PlaybackStatePlaying
	return true, nil
}

func (b *fakeBackend) Search(ctx context.Context, query, requestedBy, requesterName, guildID string) (*SearchResult, error) {
	b.searchCalls++
	if b.searchErr != nil {
		return nil, b.searchErr
	}
	if b.searchResult != nil {
		return b.searchResult, nil
	}
	track := entities.NewTrack(query, valueobjects.SourceTypeSearch, requestedBy, requesterName, guildID)
	return &SearchResult{Tracks: []*entities.Track{track}}, nil
}

func (b *fakeBackend) OnTrackStart(fn func(guildID, textChannelID string, track *entities.Track)) {
	b.trackStart = fn
}

func (b *fakeBackend) OnPlaybackError(fn func(guildID, textChannelID string, err error)) {
	b.playbackError = fn
}

// fakeLyrics returns a scripted lyrics body

type fakeLyrics struct {
	text    string
	err     error
	lookups int
}

func (l *fakeLyrics) Lookup(ctx context.Context, title string) (string, error) {
	l.lookups++
	return l.text, l.err
}

// fakeNotifier records rendered events

type fakeNotifier struct {
	nowPlaying []string
	errors     []string
}

func (n *fakeNotifier) NowPlaying(textChannelID string, track *entities.Track) {
	n.nowPlaying = append(n.nowPlaying, track.DisplayName())
}

func (n *fakeNotifier) PlaybackError(textChannelID string, message string) {
	n.errors = append(n.errors, message)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func newTestCoordinator(backend *fakeBackend, lyrics *fakeLyrics) *Coordinator {
	if lyrics == nil {
		lyrics = &fakeLyrics{}
	}
	return New(backend, lyrics, &fakeNotifier{}, testLogger())
}

func playRequest(guildID string) PlayRequest {
	return PlayRequest{
		GuildID:        guildID,
		RequestedBy:    "user-1",
		RequesterName:  "User",
		VoiceChannelID: "voice-1",
		TextChannelID:  "text-1",
		Query:          "song A",
	}
}

func TestPlayRequestHappyPath(t *testing.T) {
	backend := newFakeBackend()
	coord := newTestCoordinator(backend, nil)

	outcome, err := coord.HandlePlayRequest(context.Background(), playRequest("guild-1"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	session := backend.sessions["guild-1"]
	if session.connectCalls != 1 {
		t.Errorf("Expected 1 connect call, got %d", session.connectCalls)
	}
	if backend.searchCalls != 1 {
		t.Errorf("Expected 1 search call, got %d", backend.searchCalls)
	}
	if session.enqueueCalls != 1 {
		t.Errorf("Expected 1 enqueue call, got %d", session.enqueueCalls)
	}
	if backend.startCalls != 1 {
		t.Errorf("Expected 1 start call, got %d", backend.startCalls)
	}
	if !outcome.Started {
		t.Error("Outcome should report playback started")
	}
	if outcome.Primary == nil {
		t.Error("Outcome should carry the primary track")
	}
}

func TestPlayRequestNoVoiceChannel(t *testing.T) {
	backend := newFakeBackend()
	coord := newTestCoordinator(backend, nil)

	req := playRequest("guild-1")
	req.VoiceChannelID = ""

	_, err := coord.HandlePlayRequest(context.Background(), req)
	if !errors.Is(err, errs.ErrNoVoiceChannel) {
		t.Fatalf("Expected ErrNoVoiceChannel, got %v", err)
	}

	if backend.createdCount != 0 {
		t.Error("No session should be created without a voice channel")
	}
	if backend.searchCalls != 0 {
		t.Error("Search should not be called without a voice channel")
	}
	if backend.startCalls != 0 {
		t.Error("Start should not be called without a voice channel")
	}
}

func TestPlayRequestReusesSession(t *testing.T) {
	backend := newFakeBackend()
	coord := newTestCoordinator(backend, nil)

	for i := 0; i < 3; i++ {
		if _, err := coord.HandlePlayRequest(context.Background(), playRequest("guild-1")); err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
	}

	if backend.createdCount != 1 {
		t.Errorf("Expected exactly 1 session created, got %d", backend.createdCount)
	}
}

func TestPlayRequestWhilePlayingDoesNotRestart(t *testing.T) {
	backend := newFakeBackend()
	coord := newTestCoordinator(backend, nil)

	if _, err := coord.HandlePlayRequest(context.Background(), playRequest("guild-1")); err != nil {
		t.Fatalf("First request failed: %v", err)
	}

	session := backend.sessions["guild-1"]
	if session.state != valueobjects.PlaybackStatePlaying {
		t.Fatal("Session should be playing after first request")
	}

	outcome, err := coord.HandlePlayRequest(context.Background(), playRequest("guild-1"))
	if err != nil {
		t.Fatalf("Second request failed: %v", err)
	}

	if session.connectCalls != 1 {
		t.Errorf("Connected session should not reconnect, got %d connect calls", session.connectCalls)
	}
	if backend.startCalls != 1 {
		t.Errorf("Playing session should not restart, got %d start calls", backend.startCalls)
	}
	if outcome.Started {
		t.Error("Outcome should not report a start while already playing")
	}
	if session.enqueueCalls != 2 {
		t.Errorf("Second request should still enqueue, got %d enqueue calls", session.enqueueCalls)
	}
}

func TestPlayRequestConnectFailureDestroysNewSession(t *testing.T) {
	backend := newFakeBackend()
	backend.newConnectErr = errors.New("missing permissions")
	coord := newTestCoordinator(backend, nil)

	_, err := coord.HandlePlayRequest(context.Background(), playRequest("guild-1"))
	if !errors.Is(err, errs.ErrVoiceJoinFailed) {
		t.Fatalf("Expected ErrVoiceJoinFailed, got %v", err)
	}

	if _, ok := backend.sessions["guild-1"]; ok {
		t.Error("Failed new session should be torn down")
	}
	if backend.searchCalls != 0 {
		t.Error("Search should not run after connect failure")
	}

	// A retry must be able to create a fresh session
	backend.newConnectErr = nil
	if _, err := coord.HandlePlayRequest(context.Background(), playRequest("guild-1")); err != nil {
		t.Fatalf("Retry after connect failure should succeed: %v", err)
	}
	if backend.createdCount != 2 {
		t.Errorf("Retry should create a fresh session, created %d", backend.createdCount)
	}
}

func TestPlayRequestConnectFailureKeepsExistingSession(t *testing.T) {
	backend := newFakeBackend()
	coord := newTestCoordinator(backend, nil)

	// Seed a disconnected pre-existing session that will fail to connect
	backend.sessions["guild-1"] = &fakeSession{
		guildID:    "guild-1",
		state:      valueobjects.PlaybackStateIdle,
		connectErr: errors.New("channel deleted"),
	}

	_, err := coord.HandlePlayRequest(context.Background(), playRequest("guild-1"))
	if !errors.Is(err, errs.ErrVoiceJoinFailed) {
		t.Fatalf("Expected ErrVoiceJoinFailed, got %v", err)
	}

	if _, ok := backend.sessions["guild-1"]; !ok {
		t.Error("Pre-existing session must survive a connect failure")
	}
}

func TestPlayRequestNoResults(t *testing.T) {
	backend := newFakeBackend()
	backend.searchResult = &SearchResult{Tracks: nil}
	coord := newTestCoordinator(backend, nil)

	_, err := coord.HandlePlayRequest(context.Background(), playRequest("guild-1"))
	if !errors.Is(err, errs.ErrNoResults) {
		t.Fatalf("Expected ErrNoResults, got %v", err)
	}

	session := backend.sessions["guild-1"]
	if session == nil {
		t.Fatal("Session should persist after an empty search")
	}
	if session.enqueueCalls != 0 {
		t.Error("Queue must not be touched on empty search")
	}
	if backend.startCalls != 0 {
		t.Error("Start must not be called on empty search")
	}
}

func TestPlayRequestBackendUnavailable(t *testing.T) {
	backend := newFakeBackend()
	backend.searchErr = errors.New("extractor exited 1")
	coord := newTestCoordinator(backend, nil)

	_, err := coord.HandlePlayRequest(context.Background(), playRequest("guild-1"))
	if !errors.Is(err, errs.ErrBackendUnavailable) {
		t.Fatalf("Expected ErrBackendUnavailable, got %v", err)
	}
}

func TestPlayRequestPlaylistAdmission(t *testing.T) {
	backend := newFakeBackend()
	tracks := []*entities.Track{
		entities.NewTrack("url1", valueobjects.SourceTypeYouTube, "user-1", "User", "guild-1"),
		entities.NewTrack("url2", valueobjects.SourceTypeYouTube, "user-1", "User", "guild-1"),
		entities.NewTrack("url3", valueobjects.SourceTypeYouTube, "user-1", "User", "guild-1"),
	}
	backend.searchResult = &SearchResult{Tracks: tracks, IsPlaylist: true, PlaylistTitle: "Mix"}
	coord := newTestCoordinator(backend, nil)

	outcome, err := coord.HandlePlayRequest(context.Background(), playRequest("guild-1"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !outcome.IsPlaylist {
		t.Error("Outcome should report a playlist")
	}
	if outcome.Count != 3 {
		t.Errorf("Expected 3 admitted tracks, got %d", outcome.Count)
	}

	session := backend.sessions["guild-1"]
	for i, track := range tracks {
		if session.queued[i].ID != track.ID {
			t.Errorf("Playlist order not preserved at index %d", i)
		}
	}
}

func TestTogglePauseStrictToggle(t *testing.T) {
	backend := newFakeBackend()
	coord := newTestCoordinator(backend, nil)

	session := &fakeSession{guildID: "guild-1", state: valueobjects.PlaybackStatePlaying}
	backend.sessions["guild-1"] = session

	// Playing -> only Pause
	outcome, err := coord.HandleControlAction(context.Background(), ControlAction{GuildID: "guild-1", Kind: ControlTogglePause})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if session.pauseCalls != 1 || session.resumeCalls != 0 {
		t.Errorf("Playing toggle should pause only, got pause=%d resume=%d", session.pauseCalls, session.resumeCalls)
	}
	if !outcome.Paused {
		t.Error("Outcome should report paused")
	}

	// Paused -> only Resume
	outcome, err = coord.HandleControlAction(context.Background(), ControlAction{GuildID: "guild-1", Kind: ControlTogglePause})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if session.pauseCalls != 1 || session.resumeCalls != 1 {
		t.Errorf("Paused toggle should resume only, got pause=%d resume=%d", session.pauseCalls, session.resumeCalls)
	}
	if outcome.Paused {
		t.Error("Outcome should report resumed")
	}
}

func TestTogglePauseIdleDoesNotFail(t *testing.T) {
	backend := newFakeBackend()
	coord := newTestCoordinator(backend, nil)

	backend.sessions["guild-1"] = &fakeSession{guildID: "guild-1", state: valueobjects.PlaybackStateIdle}

	if _, err := coord.HandleControlAction(context.Background(), ControlAction{GuildID: "guild-1", Kind: ControlTogglePause}); err != nil {
		t.Errorf("Toggle on idle session must not fail: %v", err)
	}
}

func TestSkipWithoutSessionIsNoOp(t *testing.T) {
	backend := newFakeBackend()
	coord := newTestCoordinator(backend, nil)

	outcome, err := coord.HandleControlAction(context.Background(), ControlAction{GuildID: "guild-1", Kind: ControlSkip})
	if err != nil {
		t.Fatalf("Skip without session must not error: %v", err)
	}
	if outcome.Handled {
		t.Error("Skip without session should report unhandled")
	}
}

func TestSkipIssuesSkipUnconditionally(t *testing.T) {
	backend := newFakeBackend()
	coord := newTestCoordinator(backend, nil)

	session := &fakeSession{guildID: "guild-1", state: valueobjects.PlaybackStateIdle}
	backend.sessions["guild-1"] = session

	if _, err := coord.HandleControlAction(context.Background(), ControlAction{GuildID: "guild-1", Kind: ControlSkip}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if session.skipCalls != 1 {
		t.Errorf("Expected 1 skip call, got %d", session.skipCalls)
	}
}

func currentTrack(title string) *entities.Track {
	track := entities.NewTrack("url", valueobjects.SourceTypeYouTube, "user-1", "User", "guild-1")
	track.MarkReady(&valueobjects.TrackMetadata{Title: title, Duration: 180}, "https://stream.url")
	return track
}

func TestShowLyricsTruncation(t *testing.T) {
	backend := newFakeBackend()
	lyrics := &fakeLyrics{text: strings.Repeat("a", 5000)}
	coord := newTestCoordinator(backend, lyrics)

	backend.sessions["guild-1"] = &fakeSession{
		guildID: "guild-1",
		state:   valueobjects.PlaybackStatePlaying,
		current: currentTrack("Song A"),
	}

	outcome, err := coord.HandleControlAction(context.Background(), ControlAction{GuildID: "guild-1", Kind: ControlShowLyrics})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := len([]rune(outcome.Lyrics)); got != 4096 {
		t.Errorf("Expected lyrics truncated to exactly 4096 characters, got %d", got)
	}
}

func TestShowLyricsFallback(t *testing.T) {
	backend := newFakeBackend()
	lyrics := &fakeLyrics{text: ""}
	coord := newTestCoordinator(backend, lyrics)

	backend.sessions["guild-1"] = &fakeSession{
		guildID: "guild-1",
		state:   valueobjects.PlaybackStatePlaying,
		current: currentTrack("Song A"),
	}

	outcome, err := coord.HandleControlAction(context.Background(), ControlAction{GuildID: "guild-1", Kind: ControlShowLyrics})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outcome.Lyrics != "No lyrics found" {
		t.Errorf("Expected fallback text, got %q", outcome.Lyrics)
	}
}

func TestShowLyricsNoCurrentTrackSkipsLookup(t *testing.T) {
	backend := newFakeBackend()
	lyrics := &fakeLyrics{text: "should not be fetched"}
	coord := newTestCoordinator(backend, lyrics)

	backend.sessions["guild-1"] = &fakeSession{guildID: "guild-1", state: valueobjects.PlaybackStateIdle}

	outcome, err := coord.HandleControlAction(context.Background(), ControlAction{GuildID: "guild-1", Kind: ControlShowLyrics})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if lyrics.lookups != 0 {
		t.Error("Lyrics lookup must not run without a current track")
	}
	if outcome.Lyrics != "No lyrics found" {
		t.Errorf("Expected fallback text, got %q", outcome.Lyrics)
	}
}

func TestTrackStartEventNotifies(t *testing.T) {
	backend := newFakeBackend()
	notifier := &fakeNotifier{}
	New(backend, &fakeLyrics{}, notifier, testLogger())

	track := currentTrack("Song A")
	backend.trackStart("guild-1", "text-1", track)

	if len(notifier.nowPlaying) != 1 {
		t.Fatalf("Expected 1 now-playing render, got %d", len(notifier.nowPlaying))
	}
}

package entities

import "sync"

// Queue is the per-guild FIFO of pending tracks with thread-safety.
// The currently playing track is owned by the session, not the queue;
// tracks leave the queue when playback of them starts.
type Queue struct {
	guildID string
	tracks  []*Track
	maxSize int

	mu sync.RWMutex
}

// NewQueue creates a new queue for a guild. maxSize <= 0 means unbounded.
func NewQueue(guildID string, maxSize int) *Queue {
	return &Queue{
		guildID: guildID,
		tracks:  make([]*Track, 0),
		maxSize: maxSize,
	}
}

// GuildID returns the guild this queue belongs to
func (q *Queue) GuildID() string {
	return q.guildID
}

// Add appends a track and returns its position (1-indexed).
// Returns 0 when the queue is full.
func (q *Queue) Add(track *Track) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxSize > 0 && len(q.tracks) >= q.maxSize {
		return 0
	}

	q.tracks = append(q.tracks, track)
	return len(q.tracks)
}

// AddAll appends tracks in the given order, preserving it.
// Returns how many were admitted before the queue filled up.
func (q *Queue) AddAll(tracks []*Track) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	added := 0
	for _, track := range tracks {
		if q.maxSize > 0 && len(q.tracks) >= q.maxSize {
			break
		}
		q.tracks = append(q.tracks, track)
		added++
	}
	return added
}

// Next removes and returns the front track, or nil when empty
func (q *Queue) Next() *Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 {
		return nil
	}

	track := q.tracks[0]
	q.tracks = q.tracks[1:]
	return track
}

// Peek returns the front track without removing it, or nil when empty
func (q *Queue) Peek() *Track {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if len(q.tracks) == 0 {
		return nil
	}
	return q.tracks[0]
}

// Size returns the number of pending tracks
func (q *Queue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tracks)
}

// IsEmpty returns true when no tracks are pending
func (q *Queue) IsEmpty() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tracks) == 0
}

// Upcoming returns up to limit pending tracks in play order
func (q *Queue) Upcoming(limit int) []*Track {
	q.mu.RLock()
	defer q.mu.RUnlock()

	end := limit
	if end <= 0 || end > len(q.tracks) {
		end = len(q.tracks)
	}

	upcoming := make([]*Track, end)
	copy(upcoming, q.tracks[:end])
	return upcoming
}

// Clear removes all pending tracks
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = make([]*Track, 0)
}

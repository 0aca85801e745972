package entities_test

import (
	"fmt"
	"testing"

	"github.com/tanhuynh/groovebot/internal/domain/entities"
	"github.com/tanhuynh/groovebot/internal/domain/valueobjects"
)

func newTestTrack(input string) *entities.Track {
	return entities.NewTrack(input, valueobjects.SourceTypeYouTube, "user-1", "User", "123456789")
}

func TestQueueCreation(t *testing.T) {
	queue := entities.NewQueue("123456789", 0)

	if queue.Size() != 0 {
		t.Error("New queue should be empty")
	}

	if queue.Peek() != nil {
		t.Error("Peek on empty queue should return nil")
	}

	if queue.Next() != nil {
		t.Error("Next on empty queue should return nil")
	}
}

func TestQueueFIFOOrder(t *testing.T) {
	queue := entities.NewQueue("123456789", 0)

	track1 := newTestTrack("url1")
	track2 := newTestTrack("url2")
	track3 := newTestTrack("url3")

	if pos := queue.Add(track1); pos != 1 {
		t.Errorf("Expected position 1, got %d", pos)
	}
	if pos := queue.Add(track2); pos != 2 {
		t.Errorf("Expected position 2, got %d", pos)
	}
	queue.Add(track3)

	for i, want := range []*entities.Track{track1, track2, track3} {
		got := queue.Next()
		if got == nil || got.ID != want.ID {
			t.Errorf("Dequeue %d returned wrong track", i+1)
		}
	}

	if queue.Next() != nil {
		t.Error("Queue should be drained")
	}
}

func TestQueueAddAllPreservesOrder(t *testing.T) {
	queue := entities.NewQueue("123456789", 0)

	tracks := []*entities.Track{
		newTestTrack("url1"),
		newTestTrack("url2"),
		newTestTrack("url3"),
	}

	if added := queue.AddAll(tracks); added != 3 {
		t.Errorf("Expected 3 tracks added, got %d", added)
	}

	upcoming := queue.Upcoming(0)
	if len(upcoming) != 3 {
		t.Fatalf("Expected 3 upcoming tracks, got %d", len(upcoming))
	}

	for i := range tracks {
		if upcoming[i].ID != tracks[i].ID {
			t.Errorf("Playlist order not preserved at index %d", i)
		}
	}
}

func TestQueueMaxSize(t *testing.T) {
	queue := entities.NewQueue("123456789", 2)

	queue.Add(newTestTrack("url1"))
	queue.Add(newTestTrack("url2"))

	if pos := queue.Add(newTestTrack("url3")); pos != 0 {
		t.Error("Add beyond max size should be rejected")
	}

	if added := queue.AddAll([]*entities.Track{newTestTrack("url4")}); added != 0 {
		t.Error("AddAll beyond max size should admit nothing")
	}

	if queue.Size() != 2 {
		t.Errorf("Expected size 2, got %d", queue.Size())
	}
}

func TestQueueUpcomingLimit(t *testing.T) {
	queue := entities.NewQueue("123456789", 0)

	for i := 0; i < 5; i++ {
		queue.Add(newTestTrack(fmt.Sprintf("url%d", i)))
	}

	if got := len(queue.Upcoming(3)); got != 3 {
		t.Errorf("Expected 3 upcoming tracks, got %d", got)
	}

	if got := len(queue.Upcoming(10)); got != 5 {
		t.Errorf("Expected 5 upcoming tracks, got %d", got)
	}
}

func TestQueueClear(t *testing.T) {
	queue := entities.NewQueue("123456789", 0)

	queue.Add(newTestTrack("url1"))
	queue.Add(newTestTrack("url2"))

	queue.Clear()

	if !queue.IsEmpty() {
		t.Error("Queue should be empty after clear")
	}
}

func TestQueueThreadSafety(t *testing.T) {
	queue := entities.NewQueue("123456789", 0)

	done := make(chan bool, 100)

	for i := 0; i < 50; i++ {
		go func() {
			queue.Add(newTestTrack("url"))
			done <- true
		}()
	}

	for i := 0; i < 50; i++ {
		go func() {
			_ = queue.Peek()
			_ = queue.Size()
			_ = queue.Upcoming(5)
			done <- true
		}()
	}

	for i := 0; i < 100; i++ {
		<-done
	}

	if queue.Size() != 50 {
		t.Errorf("Expected 50 tracks after concurrent adds, got %d", queue.Size())
	}
}

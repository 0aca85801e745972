package playback

import (
	"context"
	"fmt"
	"sync"

	"github.com/tanhuynh/groovebot/internal/domain/entities"
	"github.com/tanhuynh/groovebot/internal/domain/valueobjects"
	errs "github.com/tanhuynh/groovebot/internal/errors"
	"github.com/tanhuynh/groovebot/pkg/logger"
)

// StreamResolver resolves a track input to a playable stream URL
type StreamResolver interface {
	StreamURL(ctx context.Context, input string) (string, error)
}

// ProcessingTask is one track waiting for stream resolution
type ProcessingTask struct {
	Track *entities.Track
}

// ProcessingService resolves pending tracks to ready tracks with a
// worker pool, so playlist admission never blocks on yt-dlp.
type ProcessingService struct {
	resolver StreamResolver
	logger   *logger.Logger
	queue    chan *ProcessingTask
	workers  int
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc

	mu         sync.Mutex
	processing map[string]bool
	processed  int64
	failed     int64
}

// NewProcessingService creates the worker pool. Call Start to run it.
func NewProcessingService(resolver StreamResolver, workers, queueSize int, log *logger.Logger) *ProcessingService {
	ctx, cancel := context.WithCancel(context.Background())

	return &ProcessingService{
		resolver:   resolver,
		logger:     log,
		queue:      make(chan *ProcessingTask, queueSize),
		workers:    workers,
		ctx:        ctx,
		cancel:     cancel,
		processing: make(map[string]bool),
	}
}

// Start launches the workers
func (s *ProcessingService) Start() {
	s.logger.WithField("workers", s.workers).Info("Starting processing service")

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop shuts the pool down and waits for in-flight tasks
func (s *ProcessingService) Stop() {
	s.cancel()
	close(s.queue)
	s.wg.Wait()
	s.logger.Info("Processing service stopped")
}

// Submit queues a track for stream resolution. Already-ready and
// already-queued tracks are skipped silently.
func (s *ProcessingService) Submit(track *entities.Track) error {
	if track.IsReady() {
		return nil
	}

	s.mu.Lock()
	if s.processing[track.ID] {
		s.mu.Unlock()
		return nil
	}
	s.processing[track.ID] = true
	s.mu.Unlock()

	select {
	case s.queue <- &ProcessingTask{Track: track}:
		return nil
	case <-s.ctx.Done():
		s.forget(track.ID)
		return errs.ErrServiceStopped
	default:
		s.forget(track.ID)
		s.logger.WithField("track_id", track.ID).Warn("Processing queue full, rejecting track")
		return errs.ErrQueueFull
	}
}

func (s *ProcessingService) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.queue:
			if !ok {
				return
			}
			s.processTask(task, id)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ProcessingService) processTask(task *ProcessingTask, workerID int) {
	track := task.Track
	defer s.forget(track.ID)

	s.logger.WithFields(map[string]interface{}{
		"worker_id": workerID,
		"track_id":  track.ID,
		"source":    track.SourceType,
	}).Debug("Processing track")

	track.MarkProcessing()

	streamURL, err := s.resolver.StreamURL(s.ctx, track.OriginalInput)
	if err != nil {
		s.logger.WithError(err).WithField("track_id", track.ID).Error("Stream resolution failed")
		track.MarkFailed(fmt.Sprintf("%v: %v", errs.ErrProcessingFailed, err))
		s.mu.Lock()
		s.failed++
		s.mu.Unlock()
		return
	}

	metadata := track.GetMetadata()
	if metadata == nil {
		// Flat playlist entries may arrive with no metadata at all
		metadata = &valueobjects.TrackMetadata{Title: track.OriginalInput}
	}
	track.MarkReady(metadata, streamURL)

	s.mu.Lock()
	s.processed++
	s.mu.Unlock()
}

func (s *ProcessingService) forget(trackID string) {
	s.mu.Lock()
	delete(s.processing, trackID)
	s.mu.Unlock()
}

// Stats returns processed and failed counts
func (s *ProcessingService) Stats() (processed, failed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed, s.failed
}

// IsProcessing reports whether a track is currently in flight
func (s *ProcessingService) IsProcessing(trackID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing[trackID]
}

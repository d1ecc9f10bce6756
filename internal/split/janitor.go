package split

import (
	"time"

	"go.uber.org/zap"
)

// Start runs a background loop that drops sessions idle for longer than the TTL.
func (s *Service) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	s.mu.Lock()
	if s.stopChan != nil {
		s.mu.Unlock()
		return
	}
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go s.loop(interval, stop, done)
}

// Stop ends the loop started by Start and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	stop, done := s.stopChan, s.done
	s.stopChan, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (s *Service) loop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expire()
		case <-stop:
			return
		}
	}
}

func (s *Service) expire() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, sess := range s.store {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.store, k)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("split: expired idle sessions", zap.Int("count", removed))
	}
	return removed
}

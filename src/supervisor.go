package main

import (
	"context"
	"errors"
	"sync"
)

// Supervisor owns the single render task allowed to write to the display.
// Starting a task first cancels the running one and waits until it returned.
type Supervisor struct {
	mu     sync.Mutex
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

// Start replaces the active render task with fn. fn must return promptly
// once its context is cancelled.
func (s *Supervisor) Start(parent context.Context, name string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	s.name, s.cancel, s.done = name, cancel, done

	go func() {
		defer close(done)
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Str("task", name).Msg("Render task failed")
		}
	}()
}

// Stop cancels the active task, if any, and waits for it.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Supervisor) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	logger.Debug().Str("task", s.name).Msg("Render task stopped")
	s.name, s.cancel, s.done = "", nil, nil
}

// Active reports the name of the running task, "" when none was started or
// the last one was stopped.
func (s *Supervisor) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

package main

import (
	"context"
	"sync/atomic"
)

// Engine is the audio engine the controller drives. Implementations deliver
// property changes and events from their own goroutines.
type Engine interface {
	Play(ctx context.Context, locator string) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, seconds float64) error
	Volume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, volume int) error
	Paused(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error
	SetProperty(ctx context.Context, name string, value any) error
	Observe(ctx context.Context, name string, fn PropertyFunc) error
	OnEvent(fn func(EngineEvent))
	Terminate() error
}

// EngineFactory builds an engine for the given config; the controller uses it
// again whenever an option requires a fresh engine process.
type EngineFactory func(ctx context.Context, cfg Config, volume int) (Engine, error)

type PropertyFunc func(name string, value any)

type EngineEventKind int

const (
	EventFileStarted EngineEventKind = iota
	EventEndFile
)

// End-of-file reasons reported by the engine
const (
	END_REASON_EOF   = "eof"
	END_REASON_STOP  = "stop"
	END_REASON_ERROR = "error"
)

type EngineEvent struct {
	Kind   EngineEventKind
	Reason string
}

// Engine properties observed by the controller
const (
	PROP_TIME_POS = "time-pos"
	PROP_DURATION = "duration"
	PROP_VOLUME   = "volume"
)

// PlaybackState is the engine-observed snapshot read by the status loop and
// by seek and volume logic.
type PlaybackState struct {
	Elapsed  float64
	Duration float64
	Volume   int
}

// playbackStateStore publishes PlaybackState as whole snapshots. The engine's
// property callback is its only writer.
type playbackStateStore struct {
	v atomic.Pointer[PlaybackState]
}

func (s *playbackStateStore) Load() PlaybackState {
	if p := s.v.Load(); p != nil {
		return *p
	}
	return PlaybackState{}
}

func (s *playbackStateStore) observe(name string, value any) {
	f, _ := value.(float64)
	next := s.Load()
	switch name {
	case PROP_TIME_POS:
		next.Elapsed = f
	case PROP_DURATION:
		next.Duration = f
	case PROP_VOLUME:
		next.Volume = int(f)
	default:
		return
	}
	s.v.Store(&next)
}

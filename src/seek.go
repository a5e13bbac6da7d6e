package main

import (
	"context"
	"math"
	"time"
)

// seekTarget is the absolute position delta seconds away from elapsed,
// kept inside the track.
func seekTarget(elapsed, duration, delta float64) float64 {
	return math.Min(math.Max(elapsed+delta, 0), duration)
}

// Seek jumps delta seconds within the playing track. Streams and tracks of
// unknown length are not seekable.
func (c *Controller) Seek(ctx context.Context, delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state.Load()
	if c.mode != ModeTrack || st.Duration <= 0 {
		return
	}
	target := seekTarget(st.Elapsed, st.Duration, delta)
	if err := c.engine.Seek(ctx, target); err != nil {
		logger.Warn().Err(err).Float64("target", target).Msg("Seek failed")
	}
}

const (
	seekHoldThreshold = 300 * time.Millisecond // hold this long before seeking starts
	seekTickInterval  = 500 * time.Millisecond // how often seek steps repeat while held
)

// seekHold tracks a held joystick direction. A hold past the threshold turns
// into repeated seek steps; anything shorter is a tap.
type seekHold struct {
	held      bool
	active    bool
	direction int
	start     time.Time
	lastTick  time.Time
}

func (s *seekHold) press(direction int, now time.Time) {
	if s.held {
		return
	}
	*s = seekHold{held: true, direction: direction, start: now}
}

// release ends the hold. It returns the direction of a tap, 0 when the hold
// was seeking or no press was tracked.
func (s *seekHold) release() int {
	if !s.held {
		return 0
	}
	direction, wasActive := s.direction, s.active
	*s = seekHold{}
	if wasActive {
		return 0
	}
	return direction
}

// poll returns the direction when a seek step is due. While the media is not
// seekable the hold stays a tap.
func (s *seekHold) poll(now time.Time, seekable bool) int {
	if !s.held || !seekable || now.Sub(s.start) < seekHoldThreshold {
		return 0
	}
	if !s.active {
		s.active = true
		s.lastTick = now
		return s.direction
	}
	if now.Sub(s.lastTick) >= seekTickInterval {
		s.lastTick = now
		return s.direction
	}
	return 0
}

package main

import (
	"context"
	"fmt"
	"image"
	"time"
)

// statusSnapshot is what the status loop needs from the controller, copied
// under its lock.
type statusSnapshot struct {
	Mode      PlaybackMode
	Title     string
	Stream    int
	Streams   int
	ImagePath string
	Notice    []string
	NoticeGen int
}

func (c *Controller) snapshot() statusSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := statusSnapshot{Mode: c.mode, Stream: c.stream, Streams: len(c.streams)}
	if c.noticeActiveLocked(time.Now()) {
		snap.Notice = append([]string(nil), c.notice...)
		snap.NoticeGen = c.noticeGen
	}
	switch c.mode {
	case ModeTrack:
		if track, err := c.queue.Current(); err == nil {
			snap.Title = track.Title
		}
	case ModeLiveStream:
		snap.ImagePath = c.streamImagePathLocked(c.stream)
	}
	return snap
}

// trackTuple is the part of the track screen that changes while playing.
type trackTuple struct {
	title    string
	elapsed  int
	duration int
	volume   int
}

type statusKey struct {
	mode   PlaybackMode
	track  trackTuple
	stream int
	notice int
}

// runStatus redraws the status screen whenever what it shows changed. The
// stream screen is also redrawn periodically for the battery indicator.
func (c *Controller) runStatus(ctx context.Context) error {
	ticker := time.NewTicker(c.statusInterval)
	defer ticker.Stop()

	var last statusKey
	var lastDraw time.Time
	drawn := false

	for {
		snap := c.snapshot()
		st := c.state.Load()

		key := statusKey{mode: snap.Mode, notice: snap.NoticeGen}
		switch {
		case snap.Notice != nil:
		case snap.Mode == ModeTrack:
			key.track = trackTuple{snap.Title, int(st.Elapsed), int(st.Duration), st.Volume}
		case snap.Mode == ModeLiveStream:
			key.stream = snap.Stream
		}

		stale := snap.Mode == ModeLiveStream && time.Since(lastDraw) >= c.batteryRedraw
		if !drawn || key != last || stale {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := c.display.Render(c.statusFrame(snap, st)); err != nil {
				logger.Warn().Err(err).Msg("Status render failed")
			}
			last, lastDraw, drawn = key, time.Now(), true
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Controller) statusFrame(snap statusSnapshot, st PlaybackState) image.Image {
	battery := c.battery()
	if snap.Notice != nil {
		return c.painter.Message(battery, snap.Notice...)
	}

	switch snap.Mode {
	case ModeTrack:
		return c.painter.Track(snap.Title, st.Elapsed, st.Duration, st.Volume, battery)
	case ModeLiveStream:
		img, err := c.painter.StreamImage(snap.ImagePath)
		if err != nil {
			logger.Debug().Err(err).Str("image", snap.ImagePath).Msg("No stream image")
			return c.painter.Message(battery, fmt.Sprintf("STREAM %d/%d", snap.Stream+1, snap.Streams))
		}
		return c.painter.WithBattery(img, battery)
	}
	return c.painter.Idle(battery)
}

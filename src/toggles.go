package main

import (
	"context"
	"fmt"
	"strings"
)

const PROP_REPLAYGAIN = "replaygain"

func (c *Controller) Repeat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.repeat
}

func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

func replayGainLabel(mode string) string {
	return strings.ToUpper(mode)
}

// ToggleRepeat flips whether the playlist wraps around at its end.
func (c *Controller) ToggleRepeat(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.repeat = !c.repeat
	logger.Info().Bool("repeat", c.repeat).Msg("Repeat toggled")
	c.saveSessionLocked()
}

// ToggleVideo persists the option and restarts the engine with it, then
// picks playback up where it was.
func (c *Controller) ToggleVideo(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg.VideoEnabled = !c.cfg.VideoEnabled
	logger.Info().Bool("video", c.cfg.VideoEnabled).Msg("Video toggled")
	c.saveConfigLocked()
	c.restartEngineLocked(ctx)
}

// ToggleReplayGain switches between track and album gain on the running
// engine.
func (c *Controller) ToggleReplayGain(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.ReplayGainMode == REPLAYGAIN_ALBUM {
		c.cfg.ReplayGainMode = REPLAYGAIN_TRACK
	} else {
		c.cfg.ReplayGainMode = REPLAYGAIN_ALBUM
	}
	logger.Info().Str("replaygain", c.cfg.ReplayGainMode).Msg("ReplayGain toggled")
	c.saveConfigLocked()

	if err := c.engine.SetProperty(ctx, PROP_REPLAYGAIN, c.cfg.ReplayGainMode); err != nil {
		logger.Warn().Err(err).Msg("Could not apply ReplayGain mode")
	}
}

func (c *Controller) saveConfigLocked() {
	if c.configs == nil {
		return
	}
	if err := c.configs.Save(c.cfg); err != nil {
		logger.Error().Err(err).Msg("Failed to save config")
	}
}

// restartEngineLocked replaces the engine with a fresh one built from the
// current config. When that fails the closed engine stays attached and every
// call on it reports ErrEngineClosed.
func (c *Controller) restartEngineLocked(ctx context.Context) {
	if c.mode == ModeTrack {
		c.resume = c.queue.Index
	}
	c.selfChange = true
	if c.engine != nil {
		if err := c.engine.Terminate(); err != nil {
			logger.Warn().Err(err).Msg("Engine terminate failed")
		}
	}

	engine, err := c.factory(ctx, c.cfg, c.volume)
	if err != nil {
		logger.Error().Err(err).Msg("Could not restart audio engine")
		c.mode = ModeIdle
		c.queue.Clear()
		c.setNoticeLocked(0, "ENGINE ERROR")
		return
	}
	c.attachLocked(ctx, engine)

	switch c.mode {
	case ModeTrack:
		c.playCurrentLocked(ctx)
	case ModeLiveStream:
		c.playStreamLocked(ctx, c.stream)
	}
}

// Rescan rebuilds the playlists from the media root and maps the current
// position onto them by identity. A track that is still present keeps
// playing untouched.
func (c *Controller) Rescan(ctx context.Context) error {
	playlists, err := scanPlaylists(c.paths.Root)
	if err != nil {
		return fmt.Errorf("could not scan %s: %w", c.paths.Root, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyPlaylistsLocked(ctx, playlists)
	return nil
}

func (c *Controller) applyPlaylistsLocked(ctx context.Context, playlists []Playlist) {
	var id, path string
	if c.playlist >= 0 && c.playlist < len(c.playlists) {
		id = c.playlists[c.playlist].ID
	}
	if c.mode == ModeTrack {
		if track, err := c.queue.Current(); err == nil {
			path = track.Path
		}
	} else if id != "" && c.resume >= 0 && c.resume < len(c.playlists[c.playlist].Tracks) {
		path = c.playlists[c.playlist].Tracks[c.resume].Path
	}

	c.playlists = playlists
	c.playlist, c.resume = locatePosition(playlists, id, path)
	logger.Info().Int("playlists", len(playlists)).Int("playlist", c.playlist).Int("track", c.resume).Msg("Library rescanned")

	if c.mode != ModeTrack {
		// a queue kept across a stream switch must follow the new library
		if c.queue.Len() > 0 && len(playlists) > 0 {
			c.queue.Load(playlists[c.playlist].Tracks, c.resume)
		} else {
			c.queue.Clear()
		}
		return
	}
	if len(playlists) == 0 {
		c.enterIdleLocked(ctx)
		return
	}
	c.queue.Load(playlists[c.playlist].Tracks, c.resume)
	if track, err := c.queue.Current(); err != nil || track.Path != path {
		c.playCurrentLocked(ctx)
	}
}

// RefreshStreams re-reads the stream list and resolves it again. The stream
// playing is restarted on its possibly new URL.
func (c *Controller) RefreshStreams(ctx context.Context) error {
	slots, images, err := c.loadStreams(ctx)
	if err != nil {
		return fmt.Errorf("could not read streams: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.streams, c.images = slots, images
	if c.stream >= len(slots) {
		c.stream = 0
	}
	logger.Info().Int("streams", len(slots)).Msg("Streams refreshed")

	if c.mode != ModeLiveStream {
		return nil
	}
	if len(slots) == 0 {
		c.enterIdleLocked(ctx)
		return nil
	}
	c.playStreamLocked(ctx, c.stream)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// OpenPlaylistMenu lists the playlists; only meaningful while playing tracks.
func (c *Controller) OpenPlaylistMenu(ctx context.Context) {
	c.runMenu(ctx, func() *MenuFrame {
		if c.mode != ModeTrack {
			return nil
		}
		return c.playlistFrameLocked()
	})
}

// OpenTrackMenu lists the tracks of the current playlist.
func (c *Controller) OpenTrackMenu(ctx context.Context) {
	c.runMenu(ctx, func() *MenuFrame {
		if c.mode != ModeTrack {
			return nil
		}
		return c.trackFrameLocked(c.playlist)
	})
}

func (c *Controller) OpenSystemMenu(ctx context.Context) {
	c.runMenu(ctx, func() *MenuFrame {
		return c.systemFrameLocked(ctx)
	})
}

// runMenu runs one menu session on the calling goroutine. The status loop is
// replaced by menu render tasks for the session and restarted afterwards.
func (c *Controller) runMenu(ctx context.Context, build func() *MenuFrame) {
	c.mu.Lock()
	if c.inMenu {
		c.mu.Unlock()
		return
	}
	root := build()
	if root == nil {
		c.mu.Unlock()
		return
	}
	c.inMenu = true
	c.mu.Unlock()

	nav := newMenuNavigator(c.input, func(view MenuView) {
		c.supervisor.Start(ctx, "menu", func(ctx context.Context) error {
			return c.display.RenderMenu(ctx, view)
		})
	})
	if err := nav.Run(ctx, root); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn().Err(err).Msg("Menu session ended with error")
	}

	c.mu.Lock()
	c.inMenu = false
	c.mu.Unlock()

	if ctx.Err() == nil {
		c.supervisor.Start(ctx, "status", c.runStatus)
	}
}

// InMenu reports whether a menu session owns the display.
func (c *Controller) InMenu() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inMenu
}

// lockedFrame builds a frame under the controller lock, for builders that
// run later from inside a menu session.
func (c *Controller) lockedFrame(build func() *MenuFrame) *MenuFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return build()
}

func (c *Controller) playlistFrameLocked() *MenuFrame {
	if len(c.playlists) == 0 {
		return nil
	}
	items := lo.Map(c.playlists, func(pl Playlist, p int) *MenuItem {
		return &MenuItem{
			Label:   pl.Name,
			Playing: c.mode == ModeTrack && p == c.playlist,
			Action: func(ctx context.Context) bool {
				c.PlayPlaylist(ctx, p)
				return true
			},
			Extra: func() *MenuFrame {
				return c.lockedFrame(func() *MenuFrame { return c.trackFrameLocked(p) })
			},
		}
	})
	title := func(sel, total int) string { return fmt.Sprintf("PLAYLIST %d/%d", sel+1, total) }
	return newListFrame(FrameList, MENU_WINDOW, title, items, c.playlist)
}

func (c *Controller) trackFrameLocked(p int) *MenuFrame {
	if p < 0 || p >= len(c.playlists) {
		return nil
	}

	playing, sel := -1, 0
	if p == c.playlist {
		sel = c.resume
		if c.mode == ModeTrack {
			playing, sel = c.queue.Index, c.queue.Index
		}
	}

	items := lo.Map(c.playlists[p].Tracks, func(t Track, i int) *MenuItem {
		return &MenuItem{
			Label:   t.Title,
			Playing: i == playing,
			Action: func(ctx context.Context) bool {
				c.PlayTrack(ctx, p, i)
				return true
			},
		}
	})
	title := func(sel, total int) string { return fmt.Sprintf("TRACK %d/%d", sel+1, total) }
	return newListFrame(FrameTracks, MENU_WINDOW, title, items, sel)
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func (c *Controller) systemFrameLocked(ctx context.Context) *MenuFrame {
	closeAfter := func(fn func(ctx context.Context)) func(ctx context.Context) bool {
		return func(ctx context.Context) bool {
			fn(ctx)
			return true
		}
	}
	stayAfter := func(fn func(ctx context.Context)) func(ctx context.Context) bool {
		return func(ctx context.Context) bool {
			fn(ctx)
			return false
		}
	}

	items := []*MenuItem{
		{Label: "Resume Playback", Action: closeAfter(c.Resume)},
		{LabelFn: func() string { return "Repeat playlist: " + onOff(c.Repeat()) }, Action: stayAfter(c.ToggleRepeat)},
		{LabelFn: func() string { return "Video: " + onOff(c.Config().VideoEnabled) }, Action: stayAfter(c.ToggleVideo)},
		{LabelFn: func() string { return "ReplayGain: " + replayGainLabel(c.Config().ReplayGainMode) }, Action: stayAfter(c.ToggleReplayGain)},
		{Label: "Refresh streams", Action: closeAfter(func(ctx context.Context) {
			if err := c.RefreshStreams(ctx); err != nil {
				logger.Error().Err(err).Msg("Stream refresh failed")
			}
		})},
		{Label: "Refresh playlists", Action: closeAfter(func(ctx context.Context) {
			if err := c.Rescan(ctx); err != nil {
				logger.Error().Err(err).Msg("Rescan failed")
			}
		})},
	}
	if c.wifi != nil {
		items = append(items, &MenuItem{Label: "Wi-Fi", Submenu: func() *MenuFrame { return c.wifiFrame(ctx) }})
	}
	items = append(items,
		&MenuItem{Label: "Share stream", Action: closeAfter(c.ShareStream)},
		&MenuItem{Label: "Play snake", Action: closeAfter(c.PlaySnake)},
		&MenuItem{Label: "Idle", Action: closeAfter(c.EnterIdle)},
		&MenuItem{Label: "Shutdown", Action: closeAfter(c.RequestPowerOff)},
	)

	return newListFrame(FrameSystem, MENU_WINDOW, func(int, int) string { return "SYSTEM" }, items, 0)
}

// showMessage puts a message on screen from inside a menu session.
func (c *Controller) showMessage(ctx context.Context, lines ...string) {
	frame := c.painter.Message(c.battery(), lines...)
	c.supervisor.Start(ctx, "message", func(ctx context.Context) error {
		return c.display.Render(frame)
	})
}

// wifiFrame scans for networks. Saved networks are activated directly, the
// others ask for a password first.
func (c *Controller) wifiFrame(ctx context.Context) *MenuFrame {
	c.showMessage(ctx, "Scanning Wi-Fi...")
	networks, err := c.wifi.Scan(ctx)
	if err != nil || len(networks) == 0 {
		logger.Warn().Err(err).Msg("No Wi-Fi networks found")
		c.showMessage(ctx, "No networks found")
		sleepCtx(ctx, MESSAGE_HOLD)
		return nil
	}
	saved, err := c.wifi.Saved(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not list saved connections")
	}

	items := lo.Map(networks, func(n Network, _ int) *MenuItem {
		item := &MenuItem{Label: fmt.Sprintf("%s (%d%%)", n.SSID, n.Signal)}
		if lo.Contains(saved, n.SSID) {
			item.Action = func(ctx context.Context) bool {
				c.showMessage(ctx, "Connecting...", n.SSID)
				c.wifiResult(n.SSID, c.wifi.Activate(ctx, n.SSID))
				return true
			}
			return item
		}
		item.Submenu = func() *MenuFrame {
			frame := newTextFrame(n.SSID+" Password", func(ctx context.Context, password string) bool {
				if password == "" {
					return false
				}
				c.showMessage(ctx, "Connecting...", n.SSID)
				c.wifiResult(n.SSID, c.wifi.Connect(ctx, n.SSID, password))
				return true
			})
			frame.Input.Mask = true
			return frame
		}
		return item
	})

	title := func(sel, total int) string { return fmt.Sprintf("Wi-Fi %d/%d", sel+1, total) }
	return newListFrame(FrameList, WIFI_WINDOW, title, items, 0)
}

func (c *Controller) wifiResult(ssid string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		logger.Warn().Err(err).Str("ssid", ssid).Msg("Wi-Fi connection failed")
		c.setNoticeLocked(MESSAGE_HOLD, "Connection failed")
		return
	}
	logger.Info().Str("ssid", ssid).Msg("Wi-Fi connected")
	c.setNoticeLocked(MESSAGE_HOLD, "Connected!")
}

// RequestPowerOff ends the appliance; main powers the board off after the
// graceful shutdown.
func (c *Controller) RequestPowerOff(context.Context) {
	c.mu.Lock()
	c.powerOff = true
	c.mu.Unlock()
	logger.Info().Msg("Shutdown requested from menu")
	if c.shutdown != nil {
		c.shutdown()
	}
}

package main

import (
	"context"
	"errors"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type fakeNetworker struct {
	networks  []Network
	saved     []string
	scanErr   error
	activate  error
	activated []string
	connected []string
}

func (n *fakeNetworker) Scan(context.Context) ([]Network, error) {
	return n.networks, n.scanErr
}

func (n *fakeNetworker) Saved(context.Context) ([]string, error) {
	return n.saved, nil
}

func (n *fakeNetworker) Activate(_ context.Context, ssid string) error {
	n.activated = append(n.activated, ssid)
	return n.activate
}

func (n *fakeNetworker) Connect(_ context.Context, ssid, password string) error {
	n.connected = append(n.connected, ssid+"/"+password)
	return nil
}

func repeatAction(a Action, n int) []Action {
	return lo.Times(n, func(int) Action { return a })
}

func menuTitles(views []MenuView) []string {
	return lo.Map(views, func(v MenuView, _ int) string { return v.Title })
}

func TestController_PlaylistMenuSwitchesPlaylist(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, testPlaylists(), nil)
	defer r.c.supervisor.Stop()

	r.c.PlayPlaylist(ctx, 0)
	r.engine.Reset()
	r.input.push(ActionDown, ActionSelect)

	r.c.OpenPlaylistMenu(ctx)

	require.Equal(t, []string{"stop", "play:/media/x.mp3"}, r.engine.Calls())
	require.False(t, r.c.InMenu())

	menus := r.display.Menus()
	require.Equal(t, []string{"PLAYLIST 1/2", "PLAYLIST 2/2"}, menuTitles(menus))
	require.Equal(t, []string{"> * rock", "  jazz"}, menus[0].Options)
	require.Equal(t, "status", r.c.supervisor.Active(), "status screen comes back after the menu")
}

func TestController_PlaylistMenuOnlyWhilePlayingTracks(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, testPlaylists(), []string{"https://x"})
	defer r.c.supervisor.Stop()

	r.c.OpenPlaylistMenu(ctx)
	r.c.SelectStream(ctx, 0)
	r.c.OpenTrackMenu(ctx)

	require.Empty(t, r.display.Menus())
	require.Equal(t, "", r.c.supervisor.Active())
}

func TestController_PlaylistMenuExtraOpensTracks(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, testPlaylists(), nil)
	defer r.c.supervisor.Stop()

	r.c.PlayPlaylist(ctx, 0)
	r.engine.Reset()
	r.input.push(ActionExtra, ActionDown, ActionSelect)

	r.c.OpenPlaylistMenu(ctx)

	require.Equal(t, []string{"stop", "play:/media/b.mp3"}, r.engine.Calls())
	menus := r.display.Menus()
	require.Equal(t, []string{"PLAYLIST 1/2", "TRACK 1/3", "TRACK 2/3"}, menuTitles(menus))
	require.Equal(t, []string{"> * a", "  b", "  c"}, menus[1].Options)
}

func TestController_TrackMenuSelectsWithinQueue(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, testPlaylists(), nil)
	defer r.c.supervisor.Stop()

	r.c.PlayTrack(ctx, 1, 1)
	r.engine.Reset()

	t.Run("selecting the playing track does nothing", func(t *testing.T) {
		r.input.push(ActionSelect)
		r.c.OpenTrackMenu(ctx)
		require.Empty(t, r.engine.Calls())
	})

	t.Run("another track plays", func(t *testing.T) {
		r.input.push(ActionUp, ActionSelect)
		r.c.OpenTrackMenu(ctx)
		require.Equal(t, []string{"stop", "play:/media/x.mp3"}, r.engine.Calls())
		require.Equal(t, 0, r.index())
	})
}

func TestController_SystemMenuTogglesStayOpen(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, testPlaylists(), nil)
	defer r.c.supervisor.Stop()

	r.input.push(ActionDown, ActionSelect, ActionBack)
	r.c.OpenSystemMenu(ctx)

	require.True(t, r.c.Repeat())
	menus := r.display.Menus()
	require.Len(t, menus, 3)
	require.Equal(t, "SYSTEM", menus[2].Title)
	require.Equal(t, "Repeat playlist: OFF", menus[1].Options[1])
	require.Equal(t, "Repeat playlist: ON", menus[2].Options[1])
	require.Equal(t, []string{
		"Resume Playback",
		"Repeat playlist: ON",
		"Video: OFF",
		"ReplayGain: TRACK",
		"Refresh streams",
		"Refresh playlists",
		"Share stream",
		"Play snake",
		"Idle",
		"Shutdown",
	}, menus[2].Options, "Wi-Fi is hidden without a network tool")
}

func TestController_SystemMenuResume(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, testPlaylists(), nil)
	defer r.c.supervisor.Stop()

	r.input.push(ActionSelect)
	r.c.OpenSystemMenu(ctx)

	require.Equal(t, ModeTrack, r.c.Mode())
	require.Equal(t, []string{"stop", "play:/media/a.mp3"}, r.engine.Calls())
}

func TestController_SystemMenuShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newTestRig(t, testPlaylists(), nil)
	r.c.shutdown = cancel
	defer r.c.supervisor.Stop()

	r.input.push(ActionUp, ActionSelect)
	r.c.OpenSystemMenu(ctx)

	require.True(t, r.c.PowerOffRequested())
	require.ErrorIs(t, ctx.Err(), context.Canceled)
	require.NotEqual(t, "status", r.c.supervisor.Active(), "no status loop once shutting down")
}

func TestController_WifiSavedNetwork(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, testPlaylists(), nil)
	defer r.c.supervisor.Stop()

	wifi := &fakeNetworker{
		networks: []Network{{SSID: "home", Signal: 80}, {SSID: "cafe", Signal: 40}},
		saved:    []string{"home"},
	}
	r.c.wifi = wifi

	r.input.push(repeatAction(ActionDown, 6)...)
	r.input.push(ActionSelect, ActionSelect)
	r.c.OpenSystemMenu(ctx)

	require.Equal(t, []string{"home"}, wifi.activated)
	require.Equal(t, []string{"Connected!"}, r.c.Notice())

	menus := r.display.Menus()
	last := menus[len(menus)-1]
	require.Equal(t, "Wi-Fi 1/2", last.Title)
	require.Equal(t, []string{"> home (80%)", "  cafe (40%)"}, last.Options)
}

func TestController_WifiFailedActivation(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, testPlaylists(), nil)
	defer r.c.supervisor.Stop()

	r.c.wifi = &fakeNetworker{
		networks: []Network{{SSID: "home", Signal: 80}},
		saved:    []string{"home"},
		activate: errors.New("secrets required"),
	}

	r.input.push(repeatAction(ActionDown, 6)...)
	r.input.push(ActionSelect, ActionSelect)
	r.c.OpenSystemMenu(ctx)

	require.Equal(t, []string{"Connection failed"}, r.c.Notice())
}

func TestController_WifiPasswordEntry(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, testPlaylists(), nil)
	defer r.c.supervisor.Stop()

	wifi := &fakeNetworker{networks: []Network{{SSID: "home", Signal: 80}, {SSID: "cafe", Signal: 40}}}
	r.c.wifi = wifi

	r.input.push(repeatAction(ActionDown, 6)...)
	r.input.push(ActionSelect, ActionDown, ActionSelect)
	r.input.push(ActionConfirm)
	r.input.push(ActionSelect, ActionUp, ActionSelect, ActionSelect, ActionConfirm)
	r.c.OpenSystemMenu(ctx)

	require.Equal(t, []string{"cafe/bb"}, wifi.connected, "an empty password is not submitted")
	require.Equal(t, []string{"Connected!"}, r.c.Notice())

	menus := r.display.Menus()
	require.Equal(t, "cafe Password", menus[len(menus)-1].Title)
	require.Equal(t, "*b", menus[len(menus)-1].Options[0])
}

func TestController_ShareStream(t *testing.T) {
	ctx := context.Background()

	t.Run("renders the stream url", func(t *testing.T) {
		r := newTestRig(t, nil, []string{"https://radio.example/live"})
		defer r.c.supervisor.Stop()
		r.c.SelectStream(ctx, 0)

		r.c.ShareStream(ctx)

		require.Equal(t, "share", r.c.supervisor.Active())
		requireEventually(t, func() bool { return r.display.Frames() == 1 }, "QR code drawn")
	})

	t.Run("offline slot has nothing to share", func(t *testing.T) {
		r := newTestRig(t, nil, []string{""})
		r.c.ShareStream(ctx)

		require.Equal(t, []string{"NOTHING TO SHARE"}, r.c.Notice())
		require.Equal(t, "", r.c.supervisor.Active())
	})
}

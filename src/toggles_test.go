package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestController_ToggleVideoRestartsEngine(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, testPlaylists(), nil)
	path := filepath.Join(t.TempDir(), "config.json")
	r.c.configs = NewConfigStore(path)

	next := newFakeEngine()
	var built []Config
	r.c.factory = func(_ context.Context, cfg Config, _ int) (Engine, error) {
		built = append(built, cfg)
		return next, nil
	}

	r.c.PlayTrack(ctx, 0, 1)
	r.engine.Reset()

	r.c.ToggleVideo(ctx)

	require.Equal(t, []string{"terminate"}, r.engine.Calls())
	require.Equal(t, []string{"stop", "play:/media/b.mp3"}, next.Calls(), "playback picks up on the new engine")
	require.Len(t, built, 1)
	require.True(t, built[0].VideoEnabled)
	require.True(t, r.c.Config().VideoEnabled)
	require.True(t, readConfigFile(t, path).VideoEnabled)
	require.Equal(t, 1, r.index())

	r.engine.Reset()
	next.emit(EngineEvent{Kind: EventEndFile, Reason: END_REASON_EOF})
	r.drain(ctx)
	require.Equal(t, 1, r.index(), "the new engine's notifications are routed, the guard still holds")
}

func TestController_ToggleVideoRestartsStream(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, nil, []string{"https://a", "https://b"})

	next := newFakeEngine()
	r.c.factory = func(context.Context, Config, int) (Engine, error) { return next, nil }

	r.c.SelectStream(ctx, 1)
	r.c.ToggleVideo(ctx)

	require.Equal(t, []string{"stop", "play:https://b"}, next.Calls())
	require.Equal(t, ModeLiveStream, r.c.Mode())
}

func TestController_EngineRestartFailure(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, testPlaylists(), nil)
	r.c.factory = func(context.Context, Config, int) (Engine, error) {
		return nil, errors.New("mpv missing")
	}

	r.c.PlayTrack(ctx, 0, 2)
	r.c.ToggleVideo(ctx)

	require.Equal(t, ModeIdle, r.c.Mode())
	require.Equal(t, []string{"ENGINE ERROR"}, r.c.Notice())

	r.c.mu.Lock()
	require.Equal(t, 2, r.c.resume, "position is remembered for later")
	require.Equal(t, 0, r.c.queue.Len())
	r.c.mu.Unlock()
}

func TestController_ToggleReplayGain(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, testPlaylists(), nil)

	r.c.ToggleReplayGain(ctx)
	require.Equal(t, REPLAYGAIN_ALBUM, r.c.Config().ReplayGainMode)
	r.c.ToggleReplayGain(ctx)

	require.Equal(t, []string{"set:replaygain=album", "set:replaygain=track"}, r.engine.Calls())
}

func TestController_ToggleRepeatIsSaved(t *testing.T) {
	ctx := context.Background()
	r := newTestRig(t, testPlaylists(), nil)
	store := openTestSessionStore(t)
	r.c.session = store

	r.c.ToggleRepeat(ctx)

	session, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, session.Repeat)
}

func TestController_RescanKeepsPlayingTrack(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"rock/a.mp3": "", "rock/b.mp3": ""})

	r := newTestRig(t, nil, nil)
	r.c.paths.Root = root
	require.NoError(t, r.c.Rescan(ctx))

	r.c.PlayTrack(ctx, 0, 1)
	r.engine.Reset()

	writeFiles(t, root, map[string]string{"rock/0.mp3": ""})
	require.NoError(t, r.c.Rescan(ctx))

	require.Empty(t, r.engine.Calls(), "b is still there and keeps playing")
	require.Equal(t, 2, r.index())
	require.Equal(t, ModeTrack, r.c.Mode())

	require.NoError(t, os.Remove(filepath.Join(root, "rock", "b.mp3")))
	require.NoError(t, r.c.Rescan(ctx))

	require.Equal(t, []string{"stop", "play:" + filepath.Join(root, "rock", "0.mp3")}, r.engine.Calls())
	require.Equal(t, 0, r.index())
}

func TestController_RescanEmptyLibraryGoesIdle(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"rock/a.mp3": ""})

	r := newTestRig(t, nil, nil)
	r.c.paths.Root = root
	require.NoError(t, r.c.Rescan(ctx))
	r.c.PlayPlaylist(ctx, 0)

	require.NoError(t, os.RemoveAll(filepath.Join(root, "rock")))
	require.NoError(t, r.c.Rescan(ctx))
	require.Equal(t, ModeIdle, r.c.Mode())

	r.c.paths.Root = filepath.Join(root, "missing")
	require.Error(t, r.c.Rescan(ctx))
}

func TestController_RescanWhileIdleMapsResumePoint(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"jazz/x.mp3": "", "rock/a.mp3": "", "rock/b.mp3": ""})

	r := newTestRig(t, nil, nil)
	r.c.paths.Root = root
	require.NoError(t, r.c.Rescan(ctx))
	r.c.PlayTrack(ctx, 1, 1)
	r.c.EnterIdle(ctx)
	r.engine.Reset()

	writeFiles(t, root, map[string]string{"blues/q.mp3": ""})
	require.NoError(t, r.c.Rescan(ctx))

	require.Empty(t, r.engine.Calls())
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	require.Equal(t, 2, r.c.playlist)
	require.Equal(t, 1, r.c.resume)
}

func TestController_RequestRescanIsDispatched(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"rock/a.mp3": ""})

	r := newTestRig(t, nil, nil)
	r.c.paths.Root = root
	r.c.RequestRescan()
	r.drain(ctx)

	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	require.Len(t, r.c.playlists, 1)
}

func TestController_RefreshStreams(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "streams.txt")

	r := newTestRig(t, nil, []string{"https://old", "https://other"})
	r.c.paths.StreamsFile = path
	r.c.SelectStream(ctx, 1)
	r.engine.Reset()

	require.NoError(t, os.WriteFile(path, []byte("https://new\nhttps://two\n"), 0644))
	require.NoError(t, r.c.RefreshStreams(ctx))
	require.Equal(t, []string{"stop", "play:https://two"}, r.engine.Calls())

	r.engine.Reset()
	require.NoError(t, os.WriteFile(path, []byte("https://only\n"), 0644))
	require.NoError(t, r.c.RefreshStreams(ctx))
	require.Equal(t, []string{"stop", "play:https://only"}, r.engine.Calls(), "slot out of range falls back to the first")

	require.NoError(t, os.WriteFile(path, nil, 0644))
	require.NoError(t, r.c.RefreshStreams(ctx))
	require.Equal(t, ModeIdle, r.c.Mode())
}

func TestController_RefreshStreamsWhilePlayingTracks(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "streams.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://new\n"), 0644))

	r := newTestRig(t, testPlaylists(), nil)
	r.c.paths.StreamsFile = path
	r.c.PlayPlaylist(ctx, 0)
	r.engine.Reset()

	require.NoError(t, r.c.RefreshStreams(ctx))
	require.Empty(t, r.engine.Calls())
	require.Equal(t, ModeTrack, r.c.Mode())

	r.c.ModeToggle(ctx)
	require.Equal(t, []string{"stop", "play:https://new"}, r.engine.Calls())
}

func TestController_RescanWhileStreamingRemapsQueue(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"jazz/x.mp3": "", "jazz/y.mp3": "", "rock/a.mp3": ""})

	r := newTestRig(t, nil, []string{"https://s"})
	r.c.paths.Root = root
	require.NoError(t, r.c.Rescan(ctx))
	r.c.PlayTrack(ctx, 0, 1)
	r.c.ModeToggle(ctx)
	require.Equal(t, ModeLiveStream, r.c.Mode())

	writeFiles(t, root, map[string]string{"blues/q.mp3": ""})
	require.NoError(t, r.c.Rescan(ctx))
	r.engine.Reset()
	r.c.ModeToggle(ctx)

	require.Equal(t, []string{"stop", "play:" + filepath.Join(root, "jazz", "y.mp3")}, r.engine.Calls(), "jazz moved to index 1")
	r.c.mu.Lock()
	require.Equal(t, 1, r.c.playlist)
	require.Equal(t, 1, r.c.queue.Index)
	r.c.mu.Unlock()

	r.c.ModeToggle(ctx)
	require.NoError(t, os.RemoveAll(filepath.Join(root, "jazz")))
	require.NoError(t, r.c.Rescan(ctx))
	r.engine.Reset()
	r.c.ModeToggle(ctx)

	require.Equal(t, []string{"stop", "play:" + filepath.Join(root, "blues", "q.mp3")}, r.engine.Calls(), "removed playlist falls back to the first")
	r.c.mu.Lock()
	require.Equal(t, 0, r.c.playlist)
	require.Equal(t, 0, r.c.queue.Index)
	r.c.mu.Unlock()
}

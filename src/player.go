package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"
)

const EVENT_QUEUE_SIZE = 256

// MediaPaths locates everything the controller reads from disk.
type MediaPaths struct {
	Root        string
	StreamsFile string
	ImagesDir   string
}

// ControllerOptions wires the controller to its collaborators.
type ControllerOptions struct {
	Factory  EngineFactory
	Display  DisplaySink
	Painter  *Painter
	Input    InputSource
	Configs  *ConfigStore
	Session  *SessionStore
	Resolver Resolver
	Wifi     Networker
	Battery  func() int
	Paths    MediaPaths
	Volume   int
	Shutdown context.CancelFunc
}

// controllerEvent is work handed to the dispatcher from other goroutines.
type controllerEvent struct {
	engine EngineEvent
	rescan bool
}

// Controller owns the playback mode, the queue and the engine. Every
// transition runs under mu; engine notifications are queued and handled by
// the dispatcher under the same lock.
type Controller struct {
	mu sync.Mutex

	mode      PlaybackMode
	queue     Queue
	playlists []Playlist
	playlist  int // playlist in the queue, or the one to resume
	resume    int // track to resume in that playlist
	streams   []string
	images    map[int]string
	stream    int
	repeat    bool
	volume    int
	cfg       Config

	// selfChange is set by every transition that stops or starts media and
	// cleared once the engine reports the new file started.
	selfChange bool
	inMenu     bool

	notice      []string
	noticeGen   int
	noticeUntil time.Time // zero keeps the notice until the next transition

	lastStreamChange time.Time
	powerOff         bool

	engine     Engine
	factory    EngineFactory
	state      playbackStateStore
	display    DisplaySink
	painter    *Painter
	input      InputSource
	configs    *ConfigStore
	session    *SessionStore
	resolver   Resolver
	wifi       Networker
	battery    func() int
	paths      MediaPaths
	shutdown   context.CancelFunc
	supervisor Supervisor

	events         chan controllerEvent
	statusInterval time.Duration
	batteryRedraw  time.Duration
}

func newController(opts ControllerOptions) *Controller {
	c := &Controller{
		volume:         opts.Volume,
		cfg:            defaultConfig(),
		images:         make(map[int]string),
		factory:        opts.Factory,
		display:        opts.Display,
		painter:        opts.Painter,
		input:          opts.Input,
		configs:        opts.Configs,
		session:        opts.Session,
		resolver:       opts.Resolver,
		wifi:           opts.Wifi,
		battery:        opts.Battery,
		paths:          opts.Paths,
		shutdown:       opts.Shutdown,
		events:         make(chan controllerEvent, EVENT_QUEUE_SIZE),
		statusInterval: STATUS_POLL_INTERVAL,
		batteryRedraw:  BATTERY_REDRAW_INTERVAL,
	}
	if c.volume <= 0 {
		c.volume = DEFAULT_VOLUME
	}
	if c.battery == nil {
		c.battery = func() int { return -1 }
	}
	if c.resolver == nil {
		c.resolver = noResolver{}
	}
	return c
}

// Start loads config, library, streams and the saved session, starts the
// engine and puts the status screen up. Failing to start the engine is the
// only fatal error.
func (c *Controller) Start(ctx context.Context) error {
	if c.configs != nil {
		c.cfg = c.configs.Load()
	}

	playlists, err := scanPlaylists(c.paths.Root)
	if err != nil {
		logger.Error().Err(err).Str("root", c.paths.Root).Msg("Media scan failed")
	}
	slots, images, err := c.loadStreams(ctx)
	if err != nil {
		logger.Error().Err(err).Str("path", c.paths.StreamsFile).Msg("Could not read streams")
	}

	c.mu.Lock()
	c.playlists = playlists
	c.streams, c.images = slots, images
	c.restoreSessionLocked()

	engine, err := c.factory(ctx, c.cfg, c.volume)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("could not start audio engine: %w", err)
	}
	c.attachLocked(ctx, engine)
	logger.Info().Int("playlists", len(c.playlists)).Int("streams", len(c.streams)).
		Str("mode", c.mode.String()).Msg("Controller ready")
	c.mu.Unlock()

	// the status screen owns the display before any menu can open
	c.supervisor.Start(ctx, "status", c.runStatus)
	return nil
}

// attachLocked routes engine notifications into the dispatcher.
func (c *Controller) attachLocked(ctx context.Context, engine Engine) {
	c.engine = engine
	engine.OnEvent(c.Post)
	for _, prop := range []string{PROP_TIME_POS, PROP_DURATION, PROP_VOLUME} {
		if err := engine.Observe(ctx, prop, c.state.observe); err != nil {
			logger.Warn().Err(err).Str("property", prop).Msg("Could not observe engine property")
		}
	}
}

// Post hands an engine notification to the dispatcher. It never blocks, so
// it is safe to call from the engine's own goroutine.
func (c *Controller) Post(ev EngineEvent) {
	c.post(controllerEvent{engine: ev})
}

// RequestRescan queues a library rescan.
func (c *Controller) RequestRescan() {
	c.post(controllerEvent{rescan: true})
}

func (c *Controller) post(ev controllerEvent) {
	select {
	case c.events <- ev:
	default:
		logger.Warn().Msg("Controller event queue full, dropping event")
	}
}

// Run dispatches queued events until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.events:
			c.dispatch(ctx, ev)
		}
	}
}

func (c *Controller) dispatch(ctx context.Context, ev controllerEvent) {
	if ev.rescan {
		if err := c.Rescan(ctx); err != nil {
			logger.Error().Err(err).Msg("Rescan failed")
		}
		return
	}
	c.handleEngineEvent(ctx, ev.engine)
}

func (c *Controller) handleEngineEvent(ctx context.Context, ev EngineEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Kind {
	case EventFileStarted:
		c.selfChange = false
	case EventEndFile:
		if c.selfChange {
			logger.Debug().Str("reason", ev.Reason).Msg("Ignoring end of file caused by a transition")
			return
		}
		switch ev.Reason {
		case END_REASON_EOF:
			if c.mode == ModeTrack {
				c.nextLocked(ctx)
			}
		case END_REASON_ERROR:
			c.playbackFailedLocked()
		}
	}
}

// Close stops the render task, saves the session and terminates the engine.
func (c *Controller) Close() error {
	c.supervisor.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveSessionLocked()
	if c.engine == nil {
		return nil
	}
	return c.engine.Terminate()
}

func (c *Controller) Mode() PlaybackMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// PowerOffRequested reports whether shutdown came from the System menu.
func (c *Controller) PowerOffRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.powerOff
}

// ModeToggle cycles Idle -> LiveStream (or Track without streams) and
// switches between Track and LiveStream.
func (c *Controller) ModeToggle(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeIdle:
		switch {
		case len(c.streams) > 0:
			c.playStreamLocked(ctx, c.stream)
		case len(c.playlists) > 0:
			c.startPlaylistLocked(ctx, c.playlist, c.resume)
		default:
			logger.Info().Msg("Nothing to play, staying idle")
		}
	case ModeTrack:
		if len(c.streams) == 0 {
			return
		}
		c.resume = c.queue.Index
		c.playStreamLocked(ctx, c.stream)
	case ModeLiveStream:
		if c.queue.Len() > 0 {
			c.playCurrentLocked(ctx)
			return
		}
		if len(c.playlists) > 0 {
			c.startPlaylistLocked(ctx, c.playlist, c.resume)
			return
		}
		c.enterIdleLocked(ctx)
	}
}

// SelectTrack plays track i of the queue.
func (c *Controller) SelectTrack(ctx context.Context, i int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeTrack && i == c.queue.Index {
		return
	}
	if !c.queue.Select(i) {
		return
	}
	c.playCurrentLocked(ctx)
}

func (c *Controller) NextTrack(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextLocked(ctx)
}

func (c *Controller) nextLocked(ctx context.Context) {
	if c.mode != ModeTrack || c.queue.Len() == 0 {
		return
	}
	if !c.queue.Advance(c.repeat) {
		logger.Info().Msg("End of playlist")
		c.resume = 0
		c.enterIdleLocked(ctx)
		return
	}
	c.playCurrentLocked(ctx)
}

// PrevTrack restarts the current track once it played for a few seconds,
// otherwise steps back one track.
func (c *Controller) PrevTrack(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prevLocked(ctx)
}

func (c *Controller) prevLocked(ctx context.Context) {
	if c.mode != ModeTrack || c.queue.Len() == 0 {
		return
	}
	if c.state.Load().Elapsed <= RESTART_AFTER {
		c.queue.Retreat()
	}
	c.playCurrentLocked(ctx)
}

// SelectStream switches to stream slot i.
func (c *Controller) SelectStream(ctx context.Context, i int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.streams) {
		return
	}
	if c.mode == ModeTrack {
		c.resume = c.queue.Index
	}
	c.playStreamLocked(ctx, i)
}

// ChangeStream steps through the stream slots, at most once per debounce
// period.
func (c *Controller) ChangeStream(ctx context.Context, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changeStreamLocked(ctx, delta)
}

func (c *Controller) changeStreamLocked(ctx context.Context, delta int) {
	if len(c.streams) == 0 {
		return
	}
	now := time.Now()
	if now.Sub(c.lastStreamChange) < STREAM_CHANGE_DEBOUNCE {
		return
	}
	c.lastStreamChange = now
	c.playStreamLocked(ctx, wrapIndex(c.stream+delta, len(c.streams)))
}

// Skip is the joystick up/down short press: next/previous in Track mode,
// stream change in LiveStream mode, resume from Idle.
func (c *Controller) Skip(ctx context.Context, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeTrack:
		if delta > 0 {
			c.nextLocked(ctx)
		} else {
			c.prevLocked(ctx)
		}
	case ModeLiveStream:
		c.changeStreamLocked(ctx, delta)
	case ModeIdle:
		if delta > 0 {
			c.resumeLocked(ctx)
		}
	}
}

// PlayPlaylist starts playlist p from its first track unless it is already
// the one playing.
func (c *Controller) PlayPlaylist(ctx context.Context, p int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p < 0 || p >= len(c.playlists) {
		return
	}
	if c.mode == ModeTrack && p == c.playlist && c.queue.Len() > 0 {
		return
	}
	c.startPlaylistLocked(ctx, p, 0)
}

// PlayTrack plays track t of playlist p, loading the playlist if needed.
func (c *Controller) PlayTrack(ctx context.Context, p, t int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p < 0 || p >= len(c.playlists) {
		return
	}
	if p == c.playlist && c.queue.Len() > 0 {
		if c.mode == ModeTrack && t == c.queue.Index {
			return
		}
		if c.queue.Select(t) {
			c.playCurrentLocked(ctx)
		}
		return
	}
	c.startPlaylistLocked(ctx, p, t)
}

// Resume restarts the remembered playlist position, or the current stream
// when there are no playlists.
func (c *Controller) Resume(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumeLocked(ctx)
}

func (c *Controller) resumeLocked(ctx context.Context) {
	if c.mode != ModeIdle {
		return
	}
	switch {
	case len(c.playlists) > 0:
		c.startPlaylistLocked(ctx, c.playlist, c.resume)
	case len(c.streams) > 0:
		c.playStreamLocked(ctx, c.stream)
	}
}

// EnterIdle stops playback, remembering where the queue was.
func (c *Controller) EnterIdle(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeTrack {
		c.resume = c.queue.Index
	}
	c.enterIdleLocked(ctx)
}

func (c *Controller) TogglePause(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == ModeIdle {
		return
	}
	paused, err := c.engine.Paused(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not read pause state")
		return
	}
	if err := c.engine.SetPaused(ctx, !paused); err != nil {
		logger.Warn().Err(err).Msg("Could not toggle pause")
	}
}

func (c *Controller) startPlaylistLocked(ctx context.Context, p, t int) {
	if len(c.playlists) == 0 {
		return
	}
	if p < 0 || p >= len(c.playlists) {
		p, t = 0, 0
	}
	pl := c.playlists[p]
	c.queue.Load(pl.Tracks, t)
	c.playlist = p
	logger.Info().Str("playlist", pl.Name).Int("tracks", len(pl.Tracks)).Msg("Playlist loaded")

	c.playCurrentLocked(ctx)
	c.saveSessionLocked()
}

// playCurrentLocked stops the engine and plays the queue's current track.
func (c *Controller) playCurrentLocked(ctx context.Context) {
	track, err := c.queue.Current()
	if err != nil {
		logger.Debug().Err(err).Msg("Nothing to play")
		c.enterIdleLocked(ctx)
		return
	}

	c.clearNoticeLocked()
	c.mode = ModeTrack
	c.resume = c.queue.Index
	c.selfChange = true
	if err := c.engine.Stop(ctx); err != nil {
		logger.Warn().Err(err).Msg("Engine stop failed")
	}

	logger.Info().Str("track", track.Title).Int("index", c.queue.Index).Msg("Playing track")
	if err := c.engine.Play(ctx, track.Path); err != nil {
		c.selfChange = false
		logger.Warn().Err(err).Str("path", track.Path).Msg("Engine play failed")
		c.setNoticeLocked(MESSAGE_HOLD, "PLAY ERROR", track.Title)
	}
}

// playStreamLocked stops the engine and plays slot i. An empty slot shows
// the offline placeholder without touching the engine's play.
func (c *Controller) playStreamLocked(ctx context.Context, i int) {
	if len(c.streams) == 0 {
		return
	}
	i = wrapIndex(i, len(c.streams))

	c.clearNoticeLocked()
	c.mode = ModeLiveStream
	c.stream = i
	c.selfChange = true
	if err := c.engine.Stop(ctx); err != nil {
		logger.Warn().Err(err).Msg("Engine stop failed")
	}

	label := fmt.Sprintf("STREAM %d/%d", i+1, len(c.streams))
	url, err := c.streamURLLocked(i)
	if err != nil {
		logger.Info().Err(err).Int("slot", i+1).Msg("Stream slot offline")
		c.setNoticeLocked(0, label, "OFFLINE")
		return
	}

	logger.Info().Int("slot", i+1).Str("url", url).Msg("Playing stream")
	if err := c.engine.Play(ctx, url); err != nil {
		c.selfChange = false
		logger.Warn().Err(err).Str("url", url).Msg("Engine play failed")
		c.setNoticeLocked(0, label, "ERROR")
	}
}

func (c *Controller) enterIdleLocked(ctx context.Context) {
	c.selfChange = true
	if c.engine != nil {
		if err := c.engine.Stop(ctx); err != nil {
			logger.Warn().Err(err).Msg("Engine stop failed")
		}
	}
	c.mode = ModeIdle
	c.queue.Clear()
	c.clearNoticeLocked()
	logger.Info().Msg("Idle")
}

// playbackFailedLocked handles the engine giving up on the current media.
func (c *Controller) playbackFailedLocked() {
	switch c.mode {
	case ModeTrack:
		track, _ := c.queue.Current()
		c.setNoticeLocked(MESSAGE_HOLD, "PLAY ERROR", track.Title)
	case ModeLiveStream:
		c.setNoticeLocked(0, fmt.Sprintf("STREAM %d/%d", c.stream+1, len(c.streams)), "ERROR")
	}
}

// setNoticeLocked covers the status screen with lines. A zero hold keeps
// them until the next transition.
func (c *Controller) setNoticeLocked(hold time.Duration, lines ...string) {
	c.notice = lines
	c.noticeGen++
	c.noticeUntil = time.Time{}
	if hold > 0 {
		c.noticeUntil = time.Now().Add(hold)
	}
}

func (c *Controller) clearNoticeLocked() {
	if c.notice != nil {
		c.notice = nil
		c.noticeGen++
	}
}

// Notice returns the lines currently covering the status screen.
func (c *Controller) Notice() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.noticeActiveLocked(time.Now()) {
		return nil
	}
	return append([]string(nil), c.notice...)
}

func (c *Controller) noticeActiveLocked(now time.Time) bool {
	return len(c.notice) > 0 && (c.noticeUntil.IsZero() || now.Before(c.noticeUntil))
}

// loadStreams reads and resolves the stream list and indexes its images.
func (c *Controller) loadStreams(ctx context.Context) ([]string, map[int]string, error) {
	images := make(map[int]string)
	if c.paths.ImagesDir != "" {
		images = loadStreamImages(c.paths.ImagesDir)
	}

	entries, err := loadStreamEntries(c.paths.StreamsFile)
	if err != nil {
		return nil, images, err
	}
	return resolveStreams(ctx, c.resolver, entries), images, nil
}

// streamURLLocked returns the URL of slot i, ErrEmptySlot when the slot is
// offline.
func (c *Controller) streamURLLocked(i int) (string, error) {
	if i < 0 || i >= len(c.streams) || c.streams[i] == "" {
		return "", ErrEmptySlot
	}
	return c.streams[i], nil
}

// streamImagePathLocked picks the picture of slot i, falling back to the default
// one.
func (c *Controller) streamImagePathLocked(i int) string {
	if path, ok := c.images[i]; ok {
		return path
	}
	return filepath.Join(c.paths.ImagesDir, DEFAULT_STREAM_IMAGE)
}

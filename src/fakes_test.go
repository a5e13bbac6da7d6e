package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errFakePlay = errors.New("fake play failure")

// fakeEngine records every call as a short string and lets tests push
// property changes and events as if they came from the engine.
type fakeEngine struct {
	mu         sync.Mutex
	calls      []string
	failPlay   map[string]bool
	paused     bool
	volume     int
	props      map[string]any
	observers  map[string]PropertyFunc
	onEvent    func(EngineEvent)
	terminated bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		failPlay:  make(map[string]bool),
		volume:    DEFAULT_VOLUME,
		props:     make(map[string]any),
		observers: make(map[string]PropertyFunc),
	}
}

func (e *fakeEngine) record(call string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
}

func (e *fakeEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *fakeEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

func (e *fakeEngine) Play(_ context.Context, locator string) error {
	e.record("play:" + locator)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failPlay[locator] {
		return errFakePlay
	}
	return nil
}

func (e *fakeEngine) Stop(context.Context) error {
	e.record("stop")
	return nil
}

func (e *fakeEngine) Seek(_ context.Context, seconds float64) error {
	e.record(fmt.Sprintf("seek:%g", seconds))
	return nil
}

func (e *fakeEngine) Volume(context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume, nil
}

func (e *fakeEngine) SetVolume(_ context.Context, volume int) error {
	e.record(fmt.Sprintf("volume:%d", volume))
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = volume
	return nil
}

func (e *fakeEngine) Paused(context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused, nil
}

func (e *fakeEngine) SetPaused(_ context.Context, paused bool) error {
	e.record(fmt.Sprintf("pause:%v", paused))
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = paused
	return nil
}

func (e *fakeEngine) SetProperty(_ context.Context, name string, value any) error {
	e.record(fmt.Sprintf("set:%s=%v", name, value))
	e.mu.Lock()
	defer e.mu.Unlock()
	e.props[name] = value
	return nil
}

func (e *fakeEngine) Observe(_ context.Context, name string, fn PropertyFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers[name] = fn
	return nil
}

func (e *fakeEngine) OnEvent(fn func(EngineEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEvent = fn
}

func (e *fakeEngine) Terminate() error {
	e.record("terminate")
	e.mu.Lock()
	defer e.mu.Unlock()
	e.terminated = true
	return nil
}

// publish delivers a property change the way the engine's reader would.
func (e *fakeEngine) publish(name string, value float64) {
	e.mu.Lock()
	fn := e.observers[name]
	e.mu.Unlock()
	if fn != nil {
		fn(name, value)
	}
}

func (e *fakeEngine) emit(ev EngineEvent) {
	e.mu.Lock()
	fn := e.onEvent
	e.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// fakeDisplay counts writes and flags any two writes that overlap in time.
type fakeDisplay struct {
	mu      sync.Mutex
	frames  int
	menus   []MenuView
	active  atomic.Int32
	overlap atomic.Bool
	hold    time.Duration
}

func (d *fakeDisplay) enter() {
	if d.active.Add(1) > 1 {
		d.overlap.Store(true)
	}
}

func (d *fakeDisplay) leave() {
	d.active.Add(-1)
}

func (d *fakeDisplay) Render(image.Image) error {
	d.enter()
	defer d.leave()
	time.Sleep(d.hold)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames++
	return nil
}

func (d *fakeDisplay) RenderMenu(ctx context.Context, view MenuView) error {
	d.enter()
	defer d.leave()

	d.mu.Lock()
	d.menus = append(d.menus, view)
	d.mu.Unlock()
	return sleepCtx(ctx, d.hold)
}

func (d *fakeDisplay) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

func (d *fakeDisplay) Menus() []MenuView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]MenuView(nil), d.menus...)
}

// scriptedInput returns queued actions, then times out.
type scriptedInput struct {
	mu      sync.Mutex
	actions []Action
}

func newScriptedInput(actions ...Action) *scriptedInput {
	return &scriptedInput{actions: actions}
}

func (in *scriptedInput) AwaitAction(ctx context.Context, _ time.Duration) (Action, error) {
	if err := ctx.Err(); err != nil {
		return ActionNone, err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.actions) == 0 {
		return ActionNone, ErrInputTimeout
	}
	action := in.actions[0]
	in.actions = in.actions[1:]
	return action, nil
}

func (in *scriptedInput) push(actions ...Action) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.actions = append(in.actions, actions...)
}

func testTracks(names ...string) []Track {
	tracks := make([]Track, len(names))
	for i, n := range names {
		tracks[i] = Track{Path: "/media/" + n + ".mp3", Title: n}
	}
	return tracks
}

func testPlaylists() []Playlist {
	return []Playlist{
		{ID: "/media/rock/", Name: "rock", Tracks: testTracks("a", "b", "c")},
		{ID: "/media/jazz/", Name: "jazz", Tracks: testTracks("x", "y")},
	}
}

type testRig struct {
	c       *Controller
	engine  *fakeEngine
	display *fakeDisplay
	input   *scriptedInput
}

// newTestRig builds a started-looking controller over fakes, without
// touching the filesystem.
func newTestRig(t *testing.T, playlists []Playlist, streams []string) *testRig {
	t.Helper()

	r := &testRig{engine: newFakeEngine(), display: &fakeDisplay{}, input: newScriptedInput()}
	r.c = newController(ControllerOptions{
		Factory: func(context.Context, Config, int) (Engine, error) { return r.engine, nil },
		Display: r.display,
		Painter: newPainter(""),
		Input:   r.input,
	})
	r.c.statusInterval = 5 * time.Millisecond

	r.c.mu.Lock()
	r.c.playlists = playlists
	r.c.streams = streams
	r.c.attachLocked(context.Background(), r.engine)
	r.c.mu.Unlock()
	return r
}

// drain dispatches every event queued so far.
func (r *testRig) drain(ctx context.Context) {
	for {
		select {
		case ev := <-r.c.events:
			r.c.dispatch(ctx, ev)
		default:
			return
		}
	}
}

func (r *testRig) index() int {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	return r.c.queue.Index
}

func requireEventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}

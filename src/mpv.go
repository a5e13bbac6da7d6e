package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	mpvSocketRetries  = 20
	mpvSocketInterval = 100 * time.Millisecond
	mpvQuitTimeout    = 2 * time.Second
)

type mpvCommand struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id,omitempty"`
}

// mpvMessage is either a command reply or an event.
type mpvMessage struct {
	Error     string `json:"error"`
	Data      any    `json:"data"`
	RequestID int64  `json:"request_id"`
	Event     string `json:"event"`
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
}

type MpvOptions struct {
	Path       string
	SocketDir  string
	Video      bool
	ReplayGain string
	Volume     int
}

func (o MpvOptions) args(socket string) []string {
	args := []string{
		"--idle=yes",
		"--no-terminal",
		"--input-ipc-server=" + socket,
		"--loop-playlist=no",
		"--volume=" + strconv.Itoa(o.Volume),
		"--volume-max=" + strconv.Itoa(MAX_VOLUME),
		"--replaygain=" + o.ReplayGain,
		"--replaygain-preamp=0",
		"--replaygain-clip=no",
	}
	if !o.Video {
		args = append(args, "--no-video")
	}
	return args
}

// MpvEngine drives an mpv process over its JSON IPC socket. One connection
// carries both command replies and events; a reader goroutine routes them.
type MpvEngine struct {
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}

	conn    net.Conn
	writeMu sync.Mutex
	enc     *json.Encoder

	mu        sync.Mutex
	pending   map[int64]chan mpvMessage
	observers map[int64]observer
	onEvent   func(EngineEvent)
	closed    bool

	nextID    atomic.Int64
	done      chan struct{}
	closeOnce sync.Once
}

type observer struct {
	name string
	fn   PropertyFunc
}

// newMpvFactory returns the EngineFactory used by the controller.
func newMpvFactory(path, socketDir string) EngineFactory {
	return func(ctx context.Context, cfg Config, volume int) (Engine, error) {
		return StartMpv(ctx, MpvOptions{
			Path:       path,
			SocketDir:  socketDir,
			Video:      cfg.VideoEnabled,
			ReplayGain: cfg.ReplayGainMode,
			Volume:     volume,
		})
	}
}

// StartMpv launches mpv in idle mode and connects to its IPC socket.
func StartMpv(ctx context.Context, opts MpvOptions) (*MpvEngine, error) {
	socket := filepath.Join(opts.SocketDir, fmt.Sprintf("%s-mpv-%s.sock", APP_NAME, uuid.NewString()))
	os.Remove(socket)

	cmd := exec.Command(opts.Path, opts.args(socket)...)
	out := componentWriter("mpv")
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not start mpv process: %w", err)
	}
	exited := make(chan struct{})
	go func() {
		cmd.Wait()
		close(exited)
	}()

	conn, err := dialMpv(ctx, socket, exited)
	if err != nil {
		cmd.Process.Kill()
		os.Remove(socket)
		return nil, err
	}

	logger.Info().Int("pid", cmd.Process.Pid).Str("socket", socket).
		Bool("video", opts.Video).Str("replaygain", opts.ReplayGain).Msg("mpv started")

	m := newMpvEngine(conn)
	m.cmd = cmd
	m.exited = exited
	m.socketPath = socket
	return m, nil
}

func dialMpv(ctx context.Context, socket string, exited <-chan struct{}) (net.Conn, error) {
	for range mpvSocketRetries {
		if conn, err := net.Dial("unix", socket); err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-exited:
			return nil, errors.New("mpv exited before its IPC socket appeared")
		case <-time.After(mpvSocketInterval):
		}
	}
	return nil, fmt.Errorf("mpv socket did not appear at %s", socket)
}

// newMpvEngine wraps an established IPC connection and starts its reader.
func newMpvEngine(conn net.Conn) *MpvEngine {
	m := &MpvEngine{
		conn:      conn,
		enc:       json.NewEncoder(conn),
		pending:   make(map[int64]chan mpvMessage),
		observers: make(map[int64]observer),
		done:      make(chan struct{}),
	}
	go m.readLoop()
	return m
}

func (m *MpvEngine) readLoop() {
	defer m.closeOnce.Do(func() { close(m.done) })

	scanner := bufio.NewScanner(m.conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg mpvMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			logger.Warn().Err(err).Str("line", scanner.Text()).Msg("Could not parse line from mpv")
			continue
		}

		if msg.Event != "" {
			m.dispatch(msg)
			continue
		}

		m.mu.Lock()
		reply, ok := m.pending[msg.RequestID]
		delete(m.pending, msg.RequestID)
		m.mu.Unlock()
		if ok {
			reply <- msg
		}
	}

	if err := scanner.Err(); err != nil && !m.isClosed() {
		logger.Error().Err(err).Msg("mpv IPC connection lost")
	}
}

// dispatch runs on the reader goroutine, outside the controller's control.
func (m *MpvEngine) dispatch(msg mpvMessage) {
	switch msg.Event {
	case "property-change":
		m.mu.Lock()
		obs, ok := m.observers[msg.ID]
		m.mu.Unlock()
		if ok {
			obs.fn(msg.Name, msg.Data)
		}
	case "start-file":
		m.emit(EngineEvent{Kind: EventFileStarted})
	case "end-file":
		m.emit(EngineEvent{Kind: EventEndFile, Reason: msg.Reason})
	}
}

func (m *MpvEngine) emit(ev EngineEvent) {
	m.mu.Lock()
	fn := m.onEvent
	m.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (m *MpvEngine) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// command sends one IPC command and waits for its reply.
func (m *MpvEngine) command(ctx context.Context, args ...any) (any, error) {
	id := m.nextID.Add(1)
	reply := make(chan mpvMessage, 1)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrEngineClosed
	}
	m.pending[id] = reply
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
	}()

	m.writeMu.Lock()
	err := m.enc.Encode(mpvCommand{Command: args, RequestID: id})
	m.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("mpv %v: %w", args[0], err)
	}

	ctx, cancel := context.WithTimeout(ctx, ENGINE_CALL_TIMEOUT)
	defer cancel()

	select {
	case msg := <-reply:
		if msg.Error != "success" {
			return nil, fmt.Errorf("mpv %v: %s", args[0], msg.Error)
		}
		return msg.Data, nil
	case <-m.done:
		return nil, ErrEngineClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("mpv %v: %w", args[0], ctx.Err())
	}
}

func (m *MpvEngine) Play(ctx context.Context, locator string) error {
	if _, err := m.command(ctx, "loadfile", locator, "replace"); err != nil {
		return err
	}
	return m.SetPaused(ctx, false)
}

func (m *MpvEngine) Stop(ctx context.Context) error {
	_, err := m.command(ctx, "stop")
	return err
}

func (m *MpvEngine) Seek(ctx context.Context, seconds float64) error {
	_, err := m.command(ctx, "seek", seconds, "absolute")
	return err
}

func (m *MpvEngine) Volume(ctx context.Context) (int, error) {
	data, err := m.command(ctx, "get_property", PROP_VOLUME)
	if err != nil {
		return 0, err
	}
	v, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("mpv volume: unexpected value %v", data)
	}
	return int(v), nil
}

func (m *MpvEngine) SetVolume(ctx context.Context, volume int) error {
	return m.SetProperty(ctx, PROP_VOLUME, clamp(volume, 0, MAX_VOLUME))
}

func (m *MpvEngine) Paused(ctx context.Context) (bool, error) {
	data, err := m.command(ctx, "get_property", "pause")
	if err != nil {
		return false, err
	}
	paused, _ := data.(bool)
	return paused, nil
}

func (m *MpvEngine) SetPaused(ctx context.Context, paused bool) error {
	return m.SetProperty(ctx, "pause", paused)
}

func (m *MpvEngine) SetProperty(ctx context.Context, name string, value any) error {
	_, err := m.command(ctx, "set_property", name, value)
	return err
}

// Observe registers fn for changes of the named property. mpv reports the
// current value right away.
func (m *MpvEngine) Observe(ctx context.Context, name string, fn PropertyFunc) error {
	id := m.nextID.Add(1)

	m.mu.Lock()
	m.observers[id] = observer{name: name, fn: fn}
	m.mu.Unlock()

	if _, err := m.command(ctx, "observe_property", id, name); err != nil {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MpvEngine) OnEvent(fn func(EngineEvent)) {
	m.mu.Lock()
	m.onEvent = fn
	m.mu.Unlock()
}

// Terminate asks mpv to quit, then kills it if it does not exit in time.
func (m *MpvEngine) Terminate() error {
	ctx, cancel := context.WithTimeout(context.Background(), mpvQuitTimeout)
	defer cancel()
	if _, err := m.command(ctx, "quit"); err != nil && !errors.Is(err, ErrEngineClosed) {
		logger.Debug().Err(err).Msg("mpv quit command")
	}

	m.mu.Lock()
	m.closed = true
	m.onEvent = nil
	m.mu.Unlock()
	m.conn.Close()
	// no property callback may run once Terminate returned
	<-m.done

	if m.cmd != nil {
		select {
		case <-m.exited:
		case <-time.After(mpvQuitTimeout):
			logger.Warn().Msg("mpv did not quit in time, killing it")
			m.cmd.Process.Kill()
			<-m.exited
		}
	}
	if m.socketPath != "" {
		os.Remove(m.socketPath)
	}
	return nil
}

package main

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Action is a menu navigation symbol.
type Action int

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionSelect
	ActionExtra
	ActionBack
	ActionConfirm
)

func (a Action) String() string {
	switch a {
	case ActionUp:
		return "up"
	case ActionDown:
		return "down"
	case ActionSelect:
		return "select"
	case ActionExtra:
		return "extra"
	case ActionBack:
		return "back"
	case ActionConfirm:
		return "confirm"
	}
	return "none"
}

// InputSource yields one menu action, or ErrInputTimeout when nothing was
// pressed within timeout.
type InputSource interface {
	AwaitAction(ctx context.Context, timeout time.Duration) (Action, error)
}

const (
	INPUT_POLL_INTERVAL = 50 * time.Millisecond
	MENU_PRESS_SETTLE   = 200 * time.Millisecond
	CONFIRM_HOLD        = time.Second
)

// Linux input event structure
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

const EV_KEY = 0x01

// ButtonState is the live pressed state of every button. The evdev reader
// writes it; the control loop and menus sample it.
type ButtonState struct {
	mu      sync.Mutex
	pressed [buttonCount]bool
	since   [buttonCount]time.Time
}

func (s *ButtonState) set(b Button, down bool, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if down && !s.pressed[b] {
		s.since[b] = at
	}
	s.pressed[b] = down
}

func (s *ButtonState) Pressed(b Button) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pressed[b]
}

// HeldFor is how long b has been down, 0 when released.
func (s *ButtonState) HeldFor(b Button) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pressed[b] {
		return 0
	}
	return time.Since(s.since[b])
}

// readButtons feeds state from an evdev device until ctx is done.
func readButtons(ctx context.Context, device string, state *ButtonState) error {
	file, err := os.Open(device)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		file.Close()
	}()

	logger.Info().Str("device", device).Msg("Button reader started")

	var ev inputEvent
	for {
		err := binary.Read(file, binary.LittleEndian, &ev)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, os.ErrClosed) {
				return err
			}
			logger.Error().Err(err).Msg("Reading input event")
			if err := sleepCtx(ctx, 100*time.Millisecond); err != nil {
				return nil
			}
			continue
		}

		if ev.Type != EV_KEY {
			continue
		}
		b, ok := KEYCODE_BUTTONS[ev.Code]
		if !ok {
			continue
		}
		// value 2 is autorepeat, the pressed state already covers it
		switch ev.Value {
		case 1:
			state.set(b, true, time.Now())
		case 0:
			state.set(b, false, time.Now())
		}
	}
}

// buttonInput turns sampled button state into menu actions.
type buttonInput struct {
	buttons  *ButtonState
	activity func()
	poll     time.Duration
	settle   time.Duration
}

func newButtonInput(buttons *ButtonState, activity func()) *buttonInput {
	return &buttonInput{
		buttons:  buttons,
		activity: activity,
		poll:     INPUT_POLL_INTERVAL,
		settle:   MENU_PRESS_SETTLE,
	}
}

func (in *buttonInput) AwaitAction(ctx context.Context, timeout time.Duration) (Action, error) {
	deadline := time.Now().Add(timeout)
	for {
		for _, bind := range MENU_BINDINGS {
			if !in.buttons.Pressed(bind.button) {
				continue
			}
			if in.activity != nil {
				in.activity()
			}
			if bind.button == JoyPress {
				return in.pressOrConfirm(ctx)
			}
			return bind.action, sleepCtx(ctx, in.settle)
		}

		if time.Now().After(deadline) {
			return ActionNone, ErrInputTimeout
		}
		if err := sleepCtx(ctx, in.poll); err != nil {
			return ActionNone, err
		}
	}
}

// pressOrConfirm waits for the joystick press to end: a long hold confirms,
// anything shorter selects.
func (in *buttonInput) pressOrConfirm(ctx context.Context) (Action, error) {
	for in.buttons.Pressed(JoyPress) {
		if in.buttons.HeldFor(JoyPress) >= CONFIRM_HOLD {
			for in.buttons.Pressed(JoyPress) {
				if err := sleepCtx(ctx, in.poll); err != nil {
					return ActionNone, err
				}
			}
			return ActionConfirm, nil
		}
		if err := sleepCtx(ctx, in.poll); err != nil {
			return ActionNone, err
		}
	}
	return ActionSelect, sleepCtx(ctx, in.settle)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package main

import (
	"context"
	"time"
)

const (
	CONTROL_POLL_INTERVAL = 50 * time.Millisecond
	PRESS_DEBOUNCE        = 300 * time.Millisecond
	SYSTEM_MENU_HOLD      = 2 * time.Second
)

// Controls maps the buttons onto controller commands outside of menus.
// Menus it opens run on its goroutine and read the same ButtonState.
type Controls struct {
	c         *Controller
	buttons   *ButtonState
	backlight *Backlight

	poll       time.Duration
	debounce   time.Duration
	systemHold time.Duration

	prev         [buttonCount]bool
	swallow      [buttonCount]bool // press already consumed, ignore until release
	quietUntil   time.Time
	systemOpened bool
	seek         seekHold
}

func newControls(c *Controller, buttons *ButtonState, backlight *Backlight) *Controls {
	return &Controls{
		c:          c,
		buttons:    buttons,
		backlight:  backlight,
		poll:       CONTROL_POLL_INTERVAL,
		debounce:   PRESS_DEBOUNCE,
		systemHold: SYSTEM_MENU_HOLD,
	}
}

func (k *Controls) Run(ctx context.Context) error {
	ticker := time.NewTicker(k.poll)
	defer ticker.Stop()

	logger.Info().Msg("Controls started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			k.step(ctx, time.Now())
		}
	}
}

// step samples every button once and reacts to presses, holds and releases.
func (k *Controls) step(ctx context.Context, now time.Time) {
	for b := Button(0); b < buttonCount; b++ {
		if ctx.Err() != nil {
			return
		}
		down := k.buttons.Pressed(b)
		was := k.prev[b]
		k.prev[b] = down

		switch {
		case down && !was:
			k.pressed(ctx, b, now)
		case down:
			if !k.swallow[b] {
				k.held(ctx, b, now)
			}
		case was:
			if k.swallow[b] {
				k.swallow[b] = false
				continue
			}
			k.released(ctx, b)
		}
	}
}

func (k *Controls) pressed(ctx context.Context, b Button, now time.Time) {
	if k.backlight != nil && k.backlight.Touch() {
		logger.Debug().Stringer("button", b).Msg("Press woke the display")
		k.swallow[b] = true
		return
	}
	if now.Before(k.quietUntil) {
		k.swallow[b] = true
		return
	}
	logger.Debug().Stringer("button", b).Msg("Button pressed")

	switch b {
	case Key1:
		k.c.ModeToggle(ctx)
	case Key2:
		k.c.OpenPlaylistMenu(ctx)
		k.resync()
	case Key3:
		k.systemOpened = false
		return
	case JoyPress:
		k.c.TogglePause(ctx)
	case JoyUp:
		k.seek.press(1, now)
		return
	case JoyDown:
		k.seek.press(-1, now)
		return
	case JoyLeft:
		k.c.ChangeVolume(ctx, -VOLUME_STEP)
	case JoyRight:
		k.c.ChangeVolume(ctx, VOLUME_STEP)
	}
	k.quietUntil = time.Now().Add(k.debounce)
}

func (k *Controls) held(ctx context.Context, b Button, now time.Time) {
	switch b {
	case Key3:
		if k.systemOpened || k.buttons.HeldFor(Key3) < k.systemHold {
			return
		}
		k.systemOpened = true
		k.c.OpenSystemMenu(ctx)
		k.resync()
	case JoyUp, JoyDown:
		if dir := k.seek.poll(now, k.c.Mode() == ModeTrack); dir != 0 {
			k.c.Seek(ctx, float64(dir)*SEEK_STEP)
		}
	}
}

func (k *Controls) released(ctx context.Context, b Button) {
	switch b {
	case Key3:
		if k.systemOpened {
			return
		}
		k.c.OpenTrackMenu(ctx)
		k.resync()
	case JoyUp, JoyDown:
		if dir := k.seek.release(); dir != 0 {
			k.c.Skip(ctx, dir)
			k.quietUntil = time.Now().Add(k.debounce)
		}
	}
}

// resync adopts the current button state after a menu session so presses
// made inside the menu are not replayed here.
func (k *Controls) resync() {
	for b := Button(0); b < buttonCount; b++ {
		down := k.buttons.Pressed(b)
		k.prev[b] = down
		k.swallow[b] = down
	}
	k.seek = seekHold{}
	k.quietUntil = time.Now().Add(k.debounce)
}

package main

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Places the battery percentage may be published, first hit wins
var BATTERY_PATHS = []string{
	"/sys/class/power_supply/battery/capacity",
	"/sys/class/power_supply/BAT0/capacity",
	"/sys/class/power_supply/pisugar-battery/capacity",
	"/tmp/battery_capacity",
}

const (
	BATTERY_CACHE_TTL    = 10 * time.Second
	DEFAULT_BACKLIGHT    = "/sys/class/backlight/fb_st7789v/bl_power"
	DEFAULT_IDLE_TIMEOUT = 60 * time.Second
	INACTIVITY_CHECK     = 5 * time.Second
	DEFAULT_SHUTDOWN_CMD = "sudo shutdown -h now"
	BL_POWER_ON          = "0"
	BL_POWER_POWERDOWN   = "4"
)

// readBatteryLevel returns the battery percentage, -1 when unavailable.
func readBatteryLevel(paths []string) int {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		capacity, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err == nil && capacity >= 0 && capacity <= 100 {
			return capacity
		}
	}
	return -1
}

// BatteryMonitor caches the battery level; reading the fuel gauge is slow.
type BatteryMonitor struct {
	mu      sync.Mutex
	paths   []string
	level   int
	checked time.Time
	ttl     time.Duration
}

func newBatteryMonitor(paths []string) *BatteryMonitor {
	return &BatteryMonitor{paths: paths, level: -1, ttl: BATTERY_CACHE_TTL}
}

func (b *BatteryMonitor) Level() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if time.Since(b.checked) > b.ttl {
		b.level = readBatteryLevel(b.paths)
		b.checked = time.Now()
	}
	return b.level
}

// Backlight switches the panel light off after a period without input and
// back on at the next press.
type Backlight struct {
	mu        sync.Mutex
	path      string
	on        bool
	lastInput time.Time
	timeout   time.Duration
}

func newBacklight(path string, timeout time.Duration) *Backlight {
	return &Backlight{path: path, on: true, lastInput: time.Now(), timeout: timeout}
}

// Touch records user activity. It reports whether the press woke the
// display, in which case the press must not do anything else.
func (b *Backlight) Touch() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastInput = time.Now()
	if b.on {
		return false
	}
	b.setLocked(true)
	return true
}

func (b *Backlight) IsOn() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on
}

func (b *Backlight) setLocked(on bool) {
	b.on = on
	if b.path == "" {
		return
	}
	value := BL_POWER_ON
	if !on {
		value = BL_POWER_POWERDOWN
	}
	if err := os.WriteFile(b.path, []byte(value), 0644); err != nil {
		logger.Warn().Err(err).Str("path", b.path).Msg("Could not switch backlight")
	}
}

// startInactivityMonitor runs until ctx is done, turning the light off once
// the idle timeout elapsed. A zero timeout keeps it on.
func (b *Backlight) startInactivityMonitor(ctx context.Context) {
	ticker := time.NewTicker(INACTIVITY_CHECK)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			if !b.on {
				b.setLocked(true)
			}
			b.mu.Unlock()
			return
		case <-ticker.C:
			b.checkIdle(time.Now())
		}
	}
}

func (b *Backlight) checkIdle(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timeout <= 0 || !b.on {
		return
	}
	if idle := now.Sub(b.lastInput); idle >= b.timeout {
		logger.Info().Dur("idle", idle).Msg("Backlight off after inactivity")
		b.setLocked(false)
	}
}

// powerOff runs the configured shutdown command.
func powerOff(command string) error {
	if strings.TrimSpace(command) == "" {
		return nil
	}
	logger.Info().Str("cmd", command).Msg("Powering off")
	syncLog()
	return exec.Command("sh", "-c", command).Run()
}

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadBatteryLevel(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"garbage":  "full\n",
		"too_high": "150\n",
		"good":     "87\n",
	})
	path := func(name string) string { return filepath.Join(dir, name) }

	require.Equal(t, 87, readBatteryLevel([]string{path("missing"), path("garbage"), path("too_high"), path("good")}))
	require.Equal(t, -1, readBatteryLevel([]string{path("missing"), path("garbage")}))
	require.Equal(t, -1, readBatteryLevel(nil))
}

func TestBatteryMonitor_Caches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capacity")
	require.NoError(t, os.WriteFile(path, []byte("50"), 0644))

	b := newBatteryMonitor([]string{path})
	require.Equal(t, 50, b.Level())

	require.NoError(t, os.WriteFile(path, []byte("60"), 0644))
	require.Equal(t, 50, b.Level(), "cached")

	b.ttl = 0
	time.Sleep(time.Millisecond)
	require.Equal(t, 60, b.Level())
}

func TestBacklight_IdleAndWake(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bl_power")
	b := newBacklight(path, time.Minute)

	b.checkIdle(time.Now().Add(30 * time.Second))
	require.True(t, b.IsOn())
	require.NoFileExists(t, path)

	b.checkIdle(time.Now().Add(2 * time.Minute))
	require.False(t, b.IsOn())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, BL_POWER_POWERDOWN, string(data))

	require.True(t, b.Touch(), "first touch wakes the display")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, BL_POWER_ON, string(data))

	require.False(t, b.Touch())
}

func TestBacklight_ZeroTimeoutStaysOn(t *testing.T) {
	b := newBacklight("", 0)
	b.checkIdle(time.Now().Add(24 * time.Hour))
	require.True(t, b.IsOn())
}

func TestPowerOff(t *testing.T) {
	require.NoError(t, powerOff(""))
	require.NoError(t, powerOff("true"))
	require.Error(t, powerOff("exit 3"))
}

package main

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// App metadata
const (
	APP_NAME    = "radiobit"
	APP_VERSION = "0.3.1"
	APP_AUTHOR  = "radiobit contributors"
)

// Display constants for the 240x240 LCD HAT
const SCREEN_WIDTH = 240
const SCREEN_HEIGHT = 240

// UI layout constants (at 240x240 native resolution)
const (
	MENU_TITLE_HEIGHT = 23
	MENU_ITEM_HEIGHT  = 20
	MENU_LEFT_PAD     = 5
	MENU_WINDOW       = 10 // playlist, track and system lists
	WIFI_WINDOW       = 8

	STATUS_MARGIN_X    = 10
	STATUS_TITLE_Y     = 75
	STATUS_TITLE_LINES = 4
	STATUS_TIME_Y      = 180
	PROGRESS_BAR_X     = 20
	PROGRESS_BAR_Y     = 215
	PROGRESS_BAR_W     = 200
	PROGRESS_BAR_H     = 10

	BATTERY_X = 200
	BATTERY_Y = 10
	BATTERY_W = 24
	BATTERY_H = 12
)

// Font sizes at native resolution
const (
	FONT_SIZE_STATUS = 19.0
	FONT_SIZE_MENU   = 16.0
)

// Playback tuning
const (
	DEFAULT_VOLUME = 40
	MAX_VOLUME     = 120
	VOLUME_STEP    = 3
	SEEK_STEP      = 10.0
	RESTART_AFTER  = 3.0 // seconds into a track after which "previous" restarts it
)

// Timing
const (
	STATUS_POLL_INTERVAL    = 200 * time.Millisecond
	BATTERY_REDRAW_INTERVAL = 10 * time.Second
	MENU_INPUT_TIMEOUT      = 10 * time.Second
	SCROLL_FRAME_DELAY      = 400 * time.Millisecond
	SCROLL_SETTLE           = 500 * time.Millisecond
	SCROLL_SPEED            = 40.0 // px per second
	SCROLL_END_PAD          = 10
	STREAM_CHANGE_DEBOUNCE  = time.Second
	RESOLVE_TIMEOUT         = 10 * time.Second
	ENGINE_CALL_TIMEOUT     = 3 * time.Second
	MESSAGE_HOLD            = 1500 * time.Millisecond
)

var (
	ErrEngineClosed = errors.New("engine closed")
	ErrInputTimeout = errors.New("no input before timeout")
	ErrNoQueue      = errors.New("queue is empty")
	ErrEmptySlot    = errors.New("stream slot is offline")
)

// PlaybackMode is the top level state of the controller.
type PlaybackMode int

const (
	ModeIdle PlaybackMode = iota
	ModeTrack
	ModeLiveStream
)

func (m PlaybackMode) String() string {
	switch m {
	case ModeTrack:
		return "track"
	case ModeLiveStream:
		return "stream"
	default:
		return "idle"
	}
}

// Track is one playable file of a playlist.
type Track struct {
	Path  string
	Title string
}

// Playlist is a named, ordered collection discovered under the media root.
// ID is the manifest path, or the directory path with a trailing separator.
type Playlist struct {
	ID     string
	Name   string
	Tracks []Track
}

// cleanTitle turns a file name into a display title.
func cleanTitle(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

package main

import (
	"context"
	"strings"
)

const (
	TEXT_INPUT_CHARSET = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_@."
	TEXT_INPUT_MAX     = 32
	TEXT_INPUT_VISIBLE = 16
)

// TextInput collects a string one character at a time from a cyclic
// alphabet cursor.
type TextInput struct {
	Title     string
	Max       int
	Mask      bool // hide all but the last character
	OnConfirm func(ctx context.Context, value string) bool

	cursor int
	buf    []byte
}

func newTextFrame(title string, onConfirm func(ctx context.Context, value string) bool) *MenuFrame {
	return &MenuFrame{
		Kind:   FrameText,
		Window: 2,
		Input:  &TextInput{Title: title, Max: TEXT_INPUT_MAX, OnConfirm: onConfirm},
	}
}

func (t *TextInput) Cycle(delta int) {
	t.cursor = wrapIndex(t.cursor+delta, len(TEXT_INPUT_CHARSET))
}

func (t *TextInput) Current() byte {
	return TEXT_INPUT_CHARSET[t.cursor]
}

func (t *TextInput) Append() {
	if len(t.buf) < t.Max {
		t.buf = append(t.buf, t.Current())
	}
}

func (t *TextInput) Delete() {
	if len(t.buf) > 0 {
		t.buf = t.buf[:len(t.buf)-1]
	}
}

func (t *TextInput) Value() string {
	return string(t.buf)
}

// View shows the tail of the entered text and the cursor character below it.
func (t *TextInput) View() MenuView {
	line := t.Value()
	if t.Mask && len(line) > 1 {
		line = strings.Repeat("*", len(line)-1) + line[len(line)-1:]
	}
	if len(line) > TEXT_INPUT_VISIBLE {
		line = line[len(line)-TEXT_INPUT_VISIBLE:]
	}
	return MenuView{
		Title:    t.Title,
		Options:  []string{line, "^ " + string(t.Current())},
		Selected: 1,
	}
}

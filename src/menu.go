package main

import (
	"context"
	"errors"
	"time"
)

// FrameKind selects how a frame reacts to input and how its rows are drawn.
type FrameKind int

const (
	FrameList   FrameKind = iota // playlists, networks
	FrameTracks                  // tracks of one playlist
	FrameSystem                  // settings with live labels
	FrameText                    // cyclic alphabet text entry
)

// MenuItem is one selectable row. Each item carries its own behaviour so
// reordering items cannot misalign what a row does.
type MenuItem struct {
	Label   string
	LabelFn func() string // recomputed on every redraw when set
	Playing bool

	Action  func(ctx context.Context) bool // true ends the menu session
	Submenu func() *MenuFrame              // pushed on select
	Extra   func() *MenuFrame              // pushed on extra
}

func (it *MenuItem) label() string {
	if it.LabelFn != nil {
		return it.LabelFn()
	}
	return it.Label
}

// MenuFrame is one screen of the menu stack.
type MenuFrame struct {
	Kind   FrameKind
	Title  func(sel, total int) string
	Items  []*MenuItem
	Sel    int
	Offset int
	Window int
	Input  *TextInput
}

func newListFrame(kind FrameKind, window int, title func(sel, total int) string, items []*MenuItem, sel int) *MenuFrame {
	f := &MenuFrame{Kind: kind, Title: title, Items: items, Window: window}
	if sel >= 0 && sel < len(items) {
		f.Sel = sel
	}
	f.adjustScroll()
	return f
}

// adjustScroll keeps the selection inside the visible window.
func (f *MenuFrame) adjustScroll() {
	if f.Sel < f.Offset {
		f.Offset = f.Sel
	}
	if f.Sel >= f.Offset+f.Window {
		f.Offset = f.Sel - f.Window + 1
	}
}

func (f *MenuFrame) move(delta int) {
	if len(f.Items) == 0 {
		return
	}
	f.Sel = wrapIndex(f.Sel+delta, len(f.Items))
	f.adjustScroll()
}

func (f *MenuFrame) selected() *MenuItem {
	if f.Sel < 0 || f.Sel >= len(f.Items) {
		return nil
	}
	return f.Items[f.Sel]
}

// MenuView is what the display draws for a frame: the visible window only,
// with Selected relative to it.
type MenuView struct {
	Title    string
	Options  []string
	Selected int
}

func (f *MenuFrame) View() MenuView {
	if f.Kind == FrameText {
		return f.Input.View()
	}

	total := len(f.Items)
	end := min(f.Offset+f.Window, total)
	options := make([]string, 0, max(end-f.Offset, 0))
	for i := f.Offset; i < end; i++ {
		item := f.Items[i]
		label := item.label()
		if f.Kind == FrameList || f.Kind == FrameTracks {
			prefix := "  "
			if i == f.Sel {
				prefix = "> "
			}
			if item.Playing {
				prefix += "* "
			}
			label = prefix + label
		}
		options = append(options, label)
	}

	view := MenuView{Options: options, Selected: f.Sel - f.Offset}
	if f.Title != nil {
		view.Title = f.Title(f.Sel, total)
	}
	return view
}

// MenuNavigator runs one menu session over an explicit frame stack.
type MenuNavigator struct {
	stack   []*MenuFrame
	input   InputSource
	present func(MenuView)
	timeout time.Duration
}

func newMenuNavigator(input InputSource, present func(MenuView)) *MenuNavigator {
	return &MenuNavigator{input: input, present: present, timeout: MENU_INPUT_TIMEOUT}
}

// Run drives the session until an item ends it, the root frame is popped,
// input times out or ctx is cancelled.
func (n *MenuNavigator) Run(ctx context.Context, root *MenuFrame) error {
	if root == nil {
		return nil
	}
	n.stack = []*MenuFrame{root}
	defer func() { n.stack = nil }()

	for len(n.stack) > 0 {
		top := n.stack[len(n.stack)-1]
		n.present(top.View())

		action, err := n.input.AwaitAction(ctx, n.timeout)
		if errors.Is(err, ErrInputTimeout) {
			return nil
		}
		if err != nil {
			return err
		}
		if n.handle(ctx, top, action) {
			return nil
		}
	}
	return nil
}

func (n *MenuNavigator) Depth() int {
	return len(n.stack)
}

func (n *MenuNavigator) push(f *MenuFrame) {
	if f != nil {
		n.stack = append(n.stack, f)
	}
}

func (n *MenuNavigator) pop() {
	if len(n.stack) > 0 {
		n.stack = n.stack[:len(n.stack)-1]
	}
}

func (n *MenuNavigator) handle(ctx context.Context, f *MenuFrame, action Action) bool {
	if f.Kind == FrameText {
		return n.handleText(ctx, f.Input, action)
	}

	switch action {
	case ActionUp:
		f.move(-1)
	case ActionDown:
		f.move(1)
	case ActionSelect, ActionConfirm:
		item := f.selected()
		if item == nil {
			return false
		}
		if item.Submenu != nil {
			n.push(item.Submenu())
			return false
		}
		if item.Action != nil {
			return item.Action(ctx)
		}
	case ActionExtra:
		if item := f.selected(); item != nil && item.Extra != nil {
			n.push(item.Extra())
		}
	case ActionBack:
		n.pop()
	}
	return false
}

func (n *MenuNavigator) handleText(ctx context.Context, in *TextInput, action Action) bool {
	switch action {
	case ActionUp:
		in.Cycle(1)
	case ActionDown:
		in.Cycle(-1)
	case ActionSelect:
		in.Append()
	case ActionExtra:
		in.Delete()
	case ActionConfirm:
		n.pop()
		if in.OnConfirm != nil {
			return in.OnConfirm(ctx, in.Value())
		}
	case ActionBack:
		n.pop()
	}
	return false
}

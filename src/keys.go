package main

// Button is one of the HAT's physical controls.
type Button int

const (
	Key1 Button = iota
	Key2
	Key3
	JoyUp
	JoyDown
	JoyLeft
	JoyRight
	JoyPress
	buttonCount
)

func (b Button) String() string {
	switch b {
	case Key1:
		return "KEY1"
	case Key2:
		return "KEY2"
	case Key3:
		return "KEY3"
	case JoyUp:
		return "UP"
	case JoyDown:
		return "DOWN"
	case JoyLeft:
		return "LEFT"
	case JoyRight:
		return "RIGHT"
	case JoyPress:
		return "PRESS"
	}
	return "UNKNOWN"
}

// Linux keycodes emitted by the gpio-keys overlay for the HAT
// (BCM 21/20/16 for the keys, 19/6/5/26/13 for the joystick).
const (
	KEY_ENTER = 28
	KEY_F1    = 59
	KEY_F2    = 60
	KEY_F3    = 61
	KEY_UP    = 103
	KEY_LEFT  = 105
	KEY_RIGHT = 106
	KEY_DOWN  = 108
)

var KEYCODE_BUTTONS = map[uint16]Button{
	KEY_F1:    Key1,
	KEY_F2:    Key2,
	KEY_F3:    Key3,
	KEY_UP:    JoyUp,
	KEY_DOWN:  JoyDown,
	KEY_LEFT:  JoyLeft,
	KEY_RIGHT: JoyRight,
	KEY_ENTER: JoyPress,
}

// menuBinding is how the joystick reads inside a menu. The HAT is mounted
// rotated, so right scrolls up the list. Order is the polling priority.
type menuBinding struct {
	button Button
	action Action
}

var MENU_BINDINGS = []menuBinding{
	{JoyRight, ActionUp},
	{JoyLeft, ActionDown},
	{JoyPress, ActionSelect},
	{JoyUp, ActionExtra},
	{JoyDown, ActionBack},
}

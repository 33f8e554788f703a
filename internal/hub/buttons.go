package hub

import (
	"fmt"
	"strconv"
	"strings"
)

// Button identifies one of the hub's lights. Indices 0-2 are the touchpads,
// 3 is the cue light above them.
type Button int

const (
	ButtonLeft   Button = 0
	ButtonMiddle Button = 1
	ButtonRight  Button = 2
	LightCue     Button = 3
)

// Touchpads lists the three pressable buttons in index order
var Touchpads = []Button{ButtonLeft, ButtonMiddle, ButtonRight}

var buttonNames = map[string]Button{
	"left":   ButtonLeft,
	"middle": ButtonMiddle,
	"right":  ButtonRight,
	"cue":    LightCue,
}

// ParseButton resolves a numeric ("1") or symbolic ("middle", case-insensitive)
// identifier to a Button.
func ParseButton(id string) (Button, error) {
	key := strings.ToLower(strings.TrimSpace(id))

	if n, err := strconv.Atoi(key); err == nil {
		b := Button(n)
		if !b.Valid() {
			return 0, NewInvalidArgumentError(fmt.Sprintf("button index %d out of range 0-3", n))
		}
		return b, nil
	}

	if b, ok := buttonNames[key]; ok {
		return b, nil
	}
	return 0, NewInvalidArgumentError(fmt.Sprintf("invalid button identifier %q", id))
}

// Valid reports whether b addresses a light on the hub
func (b Button) Valid() bool {
	return b >= ButtonLeft && b <= LightCue
}

// String returns the symbolic name of the button
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	case LightCue:
		return "cue"
	default:
		return fmt.Sprintf("Button(%d)", int(b))
	}
}

// ButtonState holds which touchpads were pressed (left, middle, right)
type ButtonState [3]bool

// DecodeButtons turns the hub's bitmask into a ButtonState; bit i set means
// touchpad i is pressed. Bits above the third are ignored.
func DecodeButtons(mask int) ButtonState {
	return ButtonState{mask&1 != 0, mask&2 != 0, mask&4 != 0}
}

// parseMask reads a bitmask parameter; anything that is not an integer
// counts as no buttons.
func parseMask(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// Mask encodes the state back into the hub's bitmask form
func (s ButtonState) Mask() int {
	mask := 0
	for i, pressed := range s {
		if pressed {
			mask |= 1 << i
		}
	}
	return mask
}

// Pressed reports whether the given touchpad is pressed
func (s ButtonState) Pressed(b Button) bool {
	if b < ButtonLeft || b > ButtonRight {
		return false
	}
	return s[b]
}

// Any reports whether at least one touchpad is pressed
func (s ButtonState) Any() bool {
	return s[0] || s[1] || s[2]
}

// String lists the pressed touchpads, e.g. "left+right", or "none"
func (s ButtonState) String() string {
	var names []string
	for _, b := range Touchpads {
		if s[b] {
			names = append(names, b.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

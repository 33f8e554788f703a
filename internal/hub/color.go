package hub

import "strings"

// Color is a light color. The hub has a yellow and a blue LED per light;
// white drives both.
type Color string

const (
	ColorOff    Color = "off"
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
	ColorWhite  Color = "white"
)

// DefaultMaxBrightness is the channel value used at 100% intensity. The
// firmware accepts up to 100 but 60 is already bright on stock hardware.
const DefaultMaxBrightness = 60

// ParseColor normalises a color name. Unknown names are kept as given and
// drive both channels to zero, like "off".
func ParseColor(name string) Color {
	return Color(strings.ToLower(strings.TrimSpace(name)))
}

// ChannelLevels maps a color and an intensity percentage to the
// (yellow, blue) channel values sent to the hub. Intensity is clamped to
// [0,100] and scaled by maxBrightness.
func ChannelLevels(color Color, intensity, maxBrightness int) (yellow, blue int) {
	intensity = max(0, min(intensity, 100))
	brightness := intensity * maxBrightness / 100

	switch ParseColor(string(color)) {
	case ColorWhite:
		return brightness, brightness
	case ColorYellow:
		return brightness, 0
	case ColorBlue:
		return 0, brightness
	default:
		return 0, 0
	}
}

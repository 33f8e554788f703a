package hub

import "testing"

func TestChannelLevels(t *testing.T) {
	tests := []struct {
		name       string
		color      Color
		intensity  int
		max        int
		wantYellow int
		wantBlue   int
	}{
		{name: "white full", color: ColorWhite, intensity: 100, max: 60, wantYellow: 60, wantBlue: 60},
		{name: "yellow full", color: ColorYellow, intensity: 100, max: 60, wantYellow: 60, wantBlue: 0},
		{name: "blue half", color: ColorBlue, intensity: 50, max: 60, wantYellow: 0, wantBlue: 30},
		{name: "off", color: ColorOff, intensity: 100, max: 60},
		{name: "unknown color", color: "purple", intensity: 100, max: 60},
		{name: "upper case", color: "WHITE", intensity: 100, max: 60, wantYellow: 60, wantBlue: 60},
		{name: "clamped high", color: ColorWhite, intensity: 250, max: 60, wantYellow: 60, wantBlue: 60},
		{name: "clamped low", color: ColorWhite, intensity: -10, max: 60},
		{name: "truncates", color: ColorYellow, intensity: 33, max: 60, wantYellow: 19},
		{name: "custom max", color: ColorBlue, intensity: 100, max: 100, wantBlue: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, b := ChannelLevels(tt.color, tt.intensity, tt.max)
			if y != tt.wantYellow || b != tt.wantBlue {
				t.Errorf("ChannelLevels(%q, %d, %d) = (%d, %d), want (%d, %d)",
					tt.color, tt.intensity, tt.max, y, b, tt.wantYellow, tt.wantBlue)
			}
		})
	}
}

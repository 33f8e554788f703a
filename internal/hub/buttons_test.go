package hub

import "testing"

func TestParseButton(t *testing.T) {
	tests := []struct {
		input   string
		want    Button
		wantErr bool
	}{
		{input: "0", want: ButtonLeft},
		{input: "1", want: ButtonMiddle},
		{input: "2", want: ButtonRight},
		{input: "3", want: LightCue},
		{input: "left", want: ButtonLeft},
		{input: "Middle", want: ButtonMiddle},
		{input: " RIGHT ", want: ButtonRight},
		{input: "cue", want: LightCue},
		{input: "4", wantErr: true},
		{input: "-1", wantErr: true},
		{input: "top", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseButton(tt.input)
			if tt.wantErr {
				if !IsInvalidArgument(err) {
					t.Fatalf("ParseButton(%q) error = %v, want invalid argument", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseButton(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseButton(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeButtons(t *testing.T) {
	tests := []struct {
		mask int
		want ButtonState
	}{
		{mask: 0, want: ButtonState{false, false, false}},
		{mask: 1, want: ButtonState{true, false, false}},
		{mask: 2, want: ButtonState{false, true, false}},
		{mask: 4, want: ButtonState{false, false, true}},
		{mask: 5, want: ButtonState{true, false, true}},
		{mask: 7, want: ButtonState{true, true, true}},
		{mask: 8, want: ButtonState{false, false, false}},
		{mask: 9, want: ButtonState{true, false, false}},
	}

	for _, tt := range tests {
		got := DecodeButtons(tt.mask)
		if got != tt.want {
			t.Errorf("DecodeButtons(%d) = %v, want %v", tt.mask, got, tt.want)
		}
		if got.Mask() != tt.mask&7 {
			t.Errorf("DecodeButtons(%d).Mask() = %d, want %d", tt.mask, got.Mask(), tt.mask&7)
		}
	}
}

func TestParseMask(t *testing.T) {
	tests := map[string]int{
		"5":   5,
		" 3 ": 3,
		"":    0,
		"abc": 0,
		"2x":  0,
	}
	for in, want := range tests {
		if got := parseMask(in); got != want {
			t.Errorf("parseMask(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestButtonState_String(t *testing.T) {
	if got := (ButtonState{}).String(); got != "none" {
		t.Errorf("String() = %q, want none", got)
	}
	if got := DecodeButtons(5).String(); got != "left+right" {
		t.Errorf("String() = %q, want left+right", got)
	}
}

func TestButtonState_Pressed(t *testing.T) {
	s := DecodeButtons(2)
	if !s.Pressed(ButtonMiddle) {
		t.Error("Pressed(middle) = false, want true")
	}
	if s.Pressed(ButtonLeft) || s.Pressed(LightCue) {
		t.Error("Pressed() reported a button that was not pressed")
	}
	if !s.Any() {
		t.Error("Any() = false, want true")
	}
}

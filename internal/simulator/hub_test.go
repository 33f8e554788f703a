package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/muurk/controlpet/internal/protocol"
)

func mustDecode(t *testing.T, s string) protocol.Message {
	t.Helper()
	msg, err := protocol.Decode([]byte(s))
	if err != nil {
		t.Fatalf("Decode(%q) error = %v", s, err)
	}
	return msg
}

func replyStrings(replies []protocol.Message) []string {
	out := make([]string, len(replies))
	for i, r := range replies {
		out[i] = r.String()
	}
	return out
}

func TestHubState_Apply(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "light", input: "@light:0:60:60:;", want: []string{"@ok;"}},
		{name: "light out of range index", input: "@light:9:60:60:;", want: []string{"@ok;"}},
		{name: "play audio", input: "@playaudio:positive:;", want: []string{"@ok;"}},
		{name: "reinitialize", input: "@reinitialize;", want: []string{"@ok;"}},
		{name: "buttons", input: "@buttons;", want: []string{"@buttons:0:;"}},
		{name: "dispense", input: "@dispense;", want: []string{"@ok:taken:;"}},
		{name: "unknown", input: "@selfdestruct;", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHubState(OutcomeTaken, 0)
			got := replyStrings(h.apply(context.Background(), mustDecode(t, tt.input)))

			if len(got) != len(tt.want) {
				t.Fatalf("apply(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("apply(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHubState_LightClamping(t *testing.T) {
	h := newHubState(OutcomeTaken, 0)

	h.apply(context.Background(), mustDecode(t, "@light:2:150:-5:;"))
	h.apply(context.Background(), mustDecode(t, "@light:3:abc:40:;"))

	lights := h.lightsSnapshot()
	if lights[2] != (Light{Yellow: 100, Blue: 0}) {
		t.Errorf("light 2 = %+v, want {100 0}", lights[2])
	}
	if lights[3] != (Light{Yellow: 0, Blue: 40}) {
		t.Errorf("light 3 = %+v, want {0 40}", lights[3])
	}

	h.apply(context.Background(), mustDecode(t, "@reinitialize;"))
	if h.lightsSnapshot() != [4]Light{} {
		t.Errorf("lights after reinitialize = %+v, want all off", h.lightsSnapshot())
	}
}

func TestHubState_ButtonsAccumulateUntilQueried(t *testing.T) {
	h := newHubState(OutcomeTaken, 0)
	now := time.Now()

	h.press(1, now)
	h.press(4, now)

	got := replyStrings(h.apply(context.Background(), mustDecode(t, "@buttons;")))
	if len(got) != 1 || got[0] != "@buttons:5:;" {
		t.Fatalf("first query = %v, want [@buttons:5:;]", got)
	}

	got = replyStrings(h.apply(context.Background(), mustDecode(t, "@buttons;")))
	if len(got) != 1 || got[0] != "@buttons:0:;" {
		t.Fatalf("second query = %v, want [@buttons:0:;]", got)
	}
}

func TestHubState_PressDebounce(t *testing.T) {
	h := newHubState(OutcomeTaken, 400*time.Millisecond)
	now := time.Now()

	ev, ok := h.press(2, now)
	if !ok || ev.String() != "@button_event:2:;" {
		t.Fatalf("press() = (%v, %v), want button_event:2", ev, ok)
	}
	if _, ok := h.press(2, now.Add(100*time.Millisecond)); ok {
		t.Error("press() within debounce produced an event")
	}
	if _, ok := h.press(1, now.Add(100*time.Millisecond)); !ok {
		t.Error("press() of a different pad was debounced")
	}
	if _, ok := h.press(2, now.Add(500*time.Millisecond)); !ok {
		t.Error("press() after debounce produced no event")
	}
	if _, ok := h.press(8, now); ok {
		t.Error("press() with no touchpad bits produced an event")
	}
}

func TestHubState_DispenseOutcomes(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{outcome: OutcomeTaken, want: "@ok:taken:;"},
		{outcome: OutcomeNotTaken, want: "@ok:not_taken:;"},
		{outcome: OutcomeError, want: "@error;"},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			h := newHubState(tt.outcome, 0)
			got := replyStrings(h.apply(context.Background(), mustDecode(t, "@dispense;")))
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("dispense = %v, want [%s]", got, tt.want)
			}
		})
	}
}

func TestHubState_DispenseCancelled(t *testing.T) {
	h := newHubState(OutcomeTaken, 0)
	h.setDispenseDelay(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := h.apply(ctx, mustDecode(t, "@dispense;")); got != nil {
		t.Errorf("cancelled dispense replied %v, want nothing", replyStrings(got))
	}
}

func TestOutcome_Valid(t *testing.T) {
	for _, o := range []Outcome{OutcomeTaken, OutcomeNotTaken, OutcomeError} {
		if !o.Valid() {
			t.Errorf("%q.Valid() = false", o)
		}
	}
	if Outcome("maybe").Valid() {
		t.Error(`"maybe".Valid() = true`)
	}
}

package soundtrigger

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ControlPrefix starts every trigger datagram
const ControlPrefix = "@["

// CommandPlay is the only command the listener acts on
const CommandPlay = "play"

// ErrNotControl is returned for datagrams that are not trigger messages
var ErrNotControl = errors.New("not a control message")

var triggerPattern = regexp.MustCompile(`@\[(\d+)\]\[(\w+)\]<(\w+)>`)

// Trigger is one decoded "@[<timestamp>][<command>]<<param>>" message.
// Games repeat each trigger several times with the same timestamp so a lost
// datagram does not drop the sound.
type Trigger struct {
	Timestamp string
	Command   string
	Param     string
}

// String renders the trigger in wire form
func (t Trigger) String() string {
	return fmt.Sprintf("@[%s][%s]<%s>", t.Timestamp, t.Command, t.Param)
}

// ParseTrigger decodes a datagram. Datagrams that do not start with "@[" yield
// ErrNotControl; control messages that do not match the trigger form yield a
// parse error.
func ParseTrigger(data []byte) (Trigger, error) {
	s := string(data)
	if !strings.HasPrefix(s, ControlPrefix) {
		return Trigger{}, ErrNotControl
	}

	m := triggerPattern.FindStringSubmatch(s)
	if m == nil {
		return Trigger{}, fmt.Errorf("could not parse control message %q", s)
	}
	return Trigger{Timestamp: m[1], Command: m[2], Param: m[3]}, nil
}

package protocol

import (
	"bytes"
	"fmt"
	"strings"
)

// Framing markers
const (
	StartMarker     = '@'
	EndMarker       = ';'
	ParamSeparator  = ':'
	reservedSymbols = "@:;"
)

// Client to hub commands
const (
	CmdLight        = "light"
	CmdReinitialize = "reinitialize"
	CmdDispense     = "dispense"
	CmdPlayAudio    = "playaudio"
	CmdButtons      = "buttons" // also sent back by the hub with the button mask
)

// Hub to client commands
const (
	CmdButtonEvent = "button_event"
	CmdOK          = "ok"
	CmdError       = "error"
	CmdShout       = "shout"
)

// Acknowledgement parameters carried by CmdOK after a dispense
const (
	AckTaken    = "taken"
	AckNotTaken = "not_taken"
)

// Message is a single decoded protocol message: a command name and its
// ordered parameters.
type Message struct {
	Command string
	Params  []string
}

// NewMessage builds a message after checking that neither the command nor any
// parameter contains a reserved framing character.
func NewMessage(command string, params ...string) (Message, error) {
	if command == "" {
		return Message{}, &ParseError{Reason: "empty command"}
	}
	if strings.ContainsAny(command, reservedSymbols) {
		return Message{}, &ParseError{
			Reason: fmt.Sprintf("command %q contains a reserved character", command),
		}
	}
	for i, p := range params {
		if strings.ContainsAny(p, reservedSymbols) {
			return Message{}, &ParseError{
				Reason: fmt.Sprintf("parameter %d (%q) contains a reserved character", i, p),
			}
		}
	}
	return Message{Command: command, Params: params}, nil
}

// Param returns the i-th parameter, or "" if the message has fewer.
func (m Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Bytes returns the wire form of the message.
func (m Message) Bytes() []byte {
	return Encode(m.Command, m.Params...)
}

// String returns the wire form of the message as a string.
func (m Message) String() string {
	return string(m.Bytes())
}

// Encode joins command and parameters with ':' and wraps the result in the
// '@' and ';' markers. Nothing is escaped: callers must make sure no
// parameter contains a reserved character (see NewMessage).
func Encode(command string, params ...string) []byte {
	size := len(command) + 2
	for _, p := range params {
		size += len(p) + 1
	}

	buf := make([]byte, 0, size)
	buf = append(buf, StartMarker)
	buf = append(buf, command...)
	for _, p := range params {
		buf = append(buf, ParamSeparator)
		buf = append(buf, p...)
	}
	buf = append(buf, EndMarker)
	return buf
}

// Decode extracts one message from buf. It takes everything between the first
// '@' and the first ';' after it and splits that on ':'. Bytes outside the
// markers are ignored.
func Decode(buf []byte) (Message, error) {
	start := bytes.IndexByte(buf, StartMarker)
	if start < 0 {
		return Message{}, &ParseError{Reason: "missing start marker", Raw: buf}
	}

	end := bytes.IndexByte(buf[start+1:], EndMarker)
	if end < 0 {
		return Message{}, &ParseError{Reason: "missing end marker", Raw: buf}
	}

	body := buf[start+1 : start+1+end]
	if len(body) == 0 {
		return Message{}, &ParseError{Reason: "empty message", Raw: buf}
	}

	fields := strings.Split(string(body), string(ParamSeparator))
	msg := Message{Command: fields[0]}
	if len(fields) > 1 {
		msg.Params = fields[1:]
	}
	return msg, nil
}

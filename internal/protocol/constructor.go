package protocol

import (
	"strconv"
)

// The hub firmware reads light and audio parameters by scanning for the next
// ':' after each field, so those commands are sent with a trailing empty
// parameter ("@light:0:60:0:;"). Commands without parameters are sent bare.

// BuildLight constructs a light command for the given light index and
// per-channel brightness values.
func BuildLight(index, yellow, blue int) Message {
	return Message{
		Command: CmdLight,
		Params: []string{
			strconv.Itoa(index),
			strconv.Itoa(yellow),
			strconv.Itoa(blue),
			"",
		},
	}
}

// BuildReinitialize constructs the command that starts a new round: the hub
// waits until the dispenser is idle and no button is held, then turns all
// button lights off.
func BuildReinitialize() Message {
	return Message{Command: CmdReinitialize}
}

// BuildDispense constructs the command that presents a treat. The hub answers
// with "@ok:taken:;", "@ok:not_taken:;" or "@error;".
func BuildDispense() Message {
	return Message{Command: CmdDispense}
}

// BuildPlayAudio constructs the command that plays one of the hub's built-in
// sounds. The sound name must not contain reserved characters.
func BuildPlayAudio(sound string) (Message, error) {
	return NewMessage(CmdPlayAudio, sound, "")
}

// BuildButtonsQuery constructs the command asking the hub for the buttons
// pressed since the last query. The hub answers with "@buttons:<mask>:;".
func BuildButtonsQuery() Message {
	return Message{Command: CmdButtons}
}

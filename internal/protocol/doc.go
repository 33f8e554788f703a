// Package protocol implements the ControlPet hub text protocol.
//
// Every message is ASCII and framed as
//
//	@<command>[:<param>]*;
//
// with no length prefix and no escaping. '@' and ';' delimit a frame and ':'
// separates fields, so none of the three may appear inside a parameter.
//
// # Messages
//
// Client to hub:
//   - light:<index>:<yellow>:<blue>:   set one light (0-2 buttons, 3 cue)
//   - reinitialize                     start a new round
//   - dispense                         present a treat
//   - playaudio:<sound>:               play a built-in sound
//   - buttons                          query buttons pressed since last query
//
// Hub to client:
//   - buttons:<mask>                   answer to the buttons query
//   - button_event:<mask>              a touchpad was pressed
//   - ok[:taken|:not_taken]            acknowledgement
//   - error                            dispenser failure
//
// The hub also announces itself with a UDP datagram "@shout:<device id>:;"
// (see package discovery).
//
// # Usage Example - Framing
//
//	framer := protocol.NewFramer()
//	for _, frame := range framer.Feed(chunk) {
//	    msg, err := protocol.Decode(frame)
//	    if err != nil {
//	        continue // malformed frames are dropped
//	    }
//	    fmt.Println(msg.Command, msg.Params)
//	}
//
// # Usage Example - Construction
//
//	msg := protocol.BuildLight(1, 60, 0)
//	_, err := conn.Write(msg.Bytes()) // "@light:1:60:0:;"
//
// # Thread Safety
//
// Encoding, decoding and the builders are stateless and safe for concurrent
// use. A Framer holds per-connection state and belongs to one reader.
package protocol

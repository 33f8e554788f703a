// Package simulator implements an in-process ControlPet hub.
//
// The simulator behaves like the hub firmware closely enough to drive the
// control tools without hardware:
//
//   - TCP control port (4889 by default) and websocket bridge (4890)
//   - UDP commands on the control port number, answered to the sender
//   - "@shout:<id>:;" announcements sent from the control port every 5s
//   - optional mDNS registration of _controlpet._tcp and _websocket._tcp
//
// Commands are answered the way the firmware answers them: light, playaudio
// and reinitialize with "@ok;", dispense with "@ok:taken:;",
// "@ok:not_taken:;" or "@error;" after a configurable delay, and buttons
// with the mask accumulated since the previous query. Button presses are
// injected with PressButtons and sent to every connected client as
// "@button_event:<mask>:;".
//
// # Traffic Capture
//
// When CaptureDir is set every frame in both directions is appended to a
// capture-<timestamp>.jsonl file in that directory. ReadCapture parses
// these files back.
//
// # Usage Example
//
//	sim, err := simulator.New(&simulator.Config{Host: "127.0.0.1", ShoutAddr: "255.255.255.255:4888"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := sim.Start(); err != nil { // blocks until SIGINT/SIGTERM
//	    log.Fatal(err)
//	}
package simulator

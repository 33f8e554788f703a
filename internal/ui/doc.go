// Package ui provides terminal output for the controlpet CLI.
//
// Most commands are "run once and exit": they print a header box, do their
// work, and print a success or failure box through a Printer. Training
// sessions print a RoundBoard line per round and its progress bar at the end.
//
// The monitor command is the one interactive screen. MonitorModel is a Bubble
// Tea model that follows a live hub session, showing each received message
// and mapping keys to light, sound and dispense commands.
//
// # Logging Integration
//
// Logging is controlled by the CONTROLPET_LOG_LEVEL environment variable or
// the --log-level flag. When unset, zap logging is silent so the styled output
// is shown cleanly.
package ui

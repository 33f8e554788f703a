// Package logging provides structured logging for the controlpet tools.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used by the hub session, the discovery client and the simulator.
//
// # Log Levels
//
//   - Debug: protocol traffic, framing details, dropped messages
//   - Info: connections, discovery results, session state changes
//   - Warn: connection loss, unexpected acknowledgements
//   - Error: startup failures, socket errors
//
// # Structured Logging
//
//	logging.Info("Hub discovered",
//	    zap.String("name", hub.Name),
//	    zap.String("addr", hub.Address()),
//	)
//
// Protocol traffic goes through LogMessage so every frame is logged with the
// same fields:
//
//	logging.LogMessage(remoteAddr, logging.DirectionReceived, frame)
//
// # Configuration
//
// Logging is silent unless a level is given, either explicitly or through the
// CONTROLPET_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Output goes to stderr so that command output on stdout stays clean.
package logging

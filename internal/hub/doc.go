// Package hub drives a ControlPet hub over its TCP (or websocket) control
// channel.
//
// A Client wraps a single-use Session. The session runs a reader goroutine
// that frames and decodes hub messages and a writer goroutine that sends
// queued commands in order. Fire-and-forget commands (lights, sounds,
// reinitialize) are queued and return immediately:
//
//	c := hub.NewClient(hub.DefaultConfig("192.168.0.136:4889"))
//	if err := c.Connect(ctx); err != nil {
//		return err
//	}
//	defer c.Close()
//
//	_ = c.SetButtonLight(hub.ButtonLeft, hub.ColorWhite, 100)
//	pressed, err := c.WaitForButtonPress(ctx, 20*time.Second)
//	if err == nil && pressed.Pressed(hub.ButtonLeft) {
//		taken, _ := c.Dispense(ctx)
//		_ = taken
//	}
//
// Only one button wait and one dispense may be outstanding per session; a
// second concurrent call fails with an AlreadyPending error. When the
// connection drops every blocked call returns a ConnectionLost error.
package hub

// Package discovery finds ControlPet hubs on the local network.
//
// Hubs announce themselves every few seconds with a UDP broadcast to port
// 4888 carrying "@shout:<device id>:;". The datagram is sent from the hub's
// control port, so its source address is the endpoint to connect to.
//
// # Broadcast Discovery
//
// Discover performs exactly one bounded wait for the first announcement:
//
//	hub, err := discovery.Discover(ctx, 20*time.Second)
//	if err != nil {
//	    log.Fatal(err) // socket problem
//	}
//	if hub == nil {
//	    fmt.Println("Hub not found") // timed out, caller may retry
//	}
//
// It never retries on its own; a timeout is reported as a nil hub, not as an
// error.
//
// # mDNS Discovery
//
// Hubs also register "_controlpet._tcp" over mDNS. Scanner browses for those
// services and returns every hub seen before its timeout:
//
//	hubs, err := discovery.ScanForHubs(ctx, 5*time.Second)
//
// mDNS needs multicast on the local segment and UDP 5353 open in the firewall.
package discovery

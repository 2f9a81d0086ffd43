// Package birddog provides a client for controlling a BirdDog NDI
// encoder/decoder appliance over its local network interface.
//
// The device exposes two partially-overlapping control surfaces: a JSON REST
// API on port 8080 and an authenticated HTML web-configuration interface on
// the standard port. Several operations only work reliably through one of
// them, so the package composes both behind a single Client. REST handles
// hostname, reboot/restart, operation-mode reads, audio setup, and NDI source
// listing/selection; settings reads and mode/output writes are delegated to a
// companion backend that logs into the web interface, scrapes state out of
// the configuration page, and re-submits it as all-or-nothing form posts.
//
// # Usage Example
//
//	client, err := birddog.NewClient("192.168.100.100")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := client.Open(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	sources, err := client.ListSources(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, src := range sources {
//	    fmt.Printf("[%d] %s (%s)\n", src.Index, src.Name, src.Address)
//	}
//
//	// Writes that need the web interface log in transparently on first use.
//	if err := client.SetVideoOutput(ctx, birddog.VideoOutputHDMI); err != nil {
//	    log.Fatal(err)
//	}
//
// # Sessions and Lifecycle
//
// A Client lazily builds its own HTTP session and releases it on Close. A
// session supplied through NewClientWithSession is borrowed and never
// released by the client. The companion web backend shares the client's
// session and its lifecycle is strictly nested inside the client's: it is
// logged in no earlier than first use and logged out and closed before the
// client's own teardown.
//
// # Error Handling
//
// All failures are *DeviceError values categorized by ErrorType (network,
// HTTP status, authentication, decode, protocol invariant, lookup,
// validation). The client never retries: every failure surfaces unchanged to
// the caller. The one exception is the reboot trigger request, whose errors
// are discarded because the device drops the connection while going down.
//
// # Concurrency
//
// One Client manages exactly one device and expects sequential use. No
// thread-safety is provided for concurrent calls against a single instance.
package birddog

package tile

import "fmt"

// Location identifies where a Tile's storage lives: the host, or one of
// the rank's accelerator devices (spec.md §3's "Residency / location").
type Location struct {
	// Device is the device id when Host is false; meaningless otherwise.
	Device int
	Host   bool
}

// HostLocation is the well-known host residency tag.
var HostLocation = Location{Host: true}

// DeviceLocation returns the residency tag for accelerator dev.
func DeviceLocation(dev int) Location { return Location{Device: dev} }

func (l Location) String() string {
	if l.Host {
		return "host"
	}
	return fmt.Sprintf("dev%d", l.Device)
}

// Less imposes a total order on locations so they can be used as stable
// map/slice keys in deterministic iteration order (host first, then
// devices ascending).
func (l Location) Less(o Location) bool {
	if l.Host != o.Host {
		return l.Host
	}
	return l.Device < o.Device
}

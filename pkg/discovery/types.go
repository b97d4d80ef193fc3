package discovery

import (
	"strings"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/profile"
)

// Service type and domain for console control services.
const (
	// ServiceType is the DNS-SD service type consoles advertise.
	ServiceType = "_mixer-midi._tcp"

	// Domain is the mDNS domain.
	Domain = "local."
)

// TXT record keys.
const (
	// TXTKeyModel carries the console model identifier.
	TXTKeyModel = "model"

	// TXTKeyName carries the user-assigned console name.
	TXTKeyName = "name"

	// TXTKeyVersion carries the console firmware version.
	TXTKeyVersion = "fw"
)

// Console is one discovered console on the local network.
type Console struct {
	// InstanceName is the DNS-SD instance name, unique per console.
	InstanceName string

	// Host is the console's advertised hostname.
	Host string

	// Port is the advertised control port.
	Port int

	// Addresses are the console's IPv4 and IPv6 addresses, aggregated
	// across interfaces.
	Addresses []string

	// Model is the advertised console model. It may not be registered;
	// check Supported before connecting.
	Model profile.Model

	// Name is the user-assigned console name, when advertised.
	Name string

	// Firmware is the advertised firmware version, when present.
	Firmware string
}

// Supported reports whether a profile is registered for the console's
// advertised model.
func (c *Console) Supported() bool {
	_, err := profile.ForModel(c.Model)
	return err == nil
}

// Addr returns the first advertised address, or the hostname when the
// announcement carried none.
func (c *Console) Addr() string {
	if len(c.Addresses) > 0 {
		return c.Addresses[0]
	}
	return c.Host
}

// parseTXT extracts known key=value entries from a TXT record set.
func parseTXT(txt []string) map[string]string {
	out := make(map[string]string, len(txt))
	for _, entry := range txt {
		key, value, found := strings.Cut(entry, "=")
		if !found || key == "" {
			continue
		}
		out[strings.ToLower(key)] = value
	}
	return out
}

// mergeAddresses appends addresses not already present.
func mergeAddresses(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		seen[a] = struct{}{}
	}
	for _, a := range incoming {
		if _, ok := seen[a]; !ok {
			existing = append(existing, a)
			seen[a] = struct{}{}
		}
	}
	return existing
}

package discovery

import (
	"context"
	"net"

	"github.com/enbility/zeroconf/v3"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/profile"
)

// BrowserConfig configures the mDNS browser.
type BrowserConfig struct {
	// Interface restricts browsing to one network interface by name.
	// Empty browses all multicast-capable interfaces.
	Interface string
}

// Browser searches the local network for consoles.
type Browser struct {
	config BrowserConfig
}

// NewBrowser creates an mDNS console browser.
func NewBrowser(config BrowserConfig) *Browser {
	return &Browser{config: config}
}

// Browse searches for consoles until ctx is cancelled. Each console is
// emitted once; announcements from additional interfaces merge their
// addresses into the already-emitted entry. The returned channel closes
// when browsing stops.
func (b *Browser) Browse(ctx context.Context) (<-chan *Console, error) {
	out := make(chan *Console)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	opts := b.clientOptions()

	go func() {
		defer close(out)

		consoles := make(map[string]*Console)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				c := entryToConsole(entry)
				if c == nil {
					continue
				}
				existing, found := consoles[c.InstanceName]
				if found {
					existing.Addresses = mergeAddresses(existing.Addresses, c.Addresses)
					continue
				}
				consoles[c.InstanceName] = c
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				delete(consoles, entry.Instance)

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
	}()

	return out, nil
}

// FindAll collects every console discovered within the context's
// lifetime, typically bounded by a timeout.
func (b *Browser) FindAll(ctx context.Context) ([]*Console, error) {
	ch, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Console
	for c := range ch {
		out = append(out, c)
	}
	return out, nil
}

func (b *Browser) clientOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

// entryToConsole converts a service entry, or returns nil when the
// announcement carries no model key.
func entryToConsole(entry *zeroconf.ServiceEntry) *Console {
	txt := parseTXT(entry.Text)
	model, ok := txt[TXTKeyModel]
	if !ok || model == "" {
		return nil
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &Console{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         entry.Port,
		Addresses:    addrs,
		Model:        profile.Model(model),
		Name:         txt[TXTKeyName],
		Firmware:     txt[TXTKeyVersion],
	}
}

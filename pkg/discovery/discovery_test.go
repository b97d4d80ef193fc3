package discovery

import (
	"net"
	"testing"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanctuarysoundapp/mixerlink-go/pkg/profile"
)

func TestParseTXT(t *testing.T) {
	txt := parseTXT([]string{"model=sq", "name=FOH Desk", "fw=1.5.2", "junk", "=empty"})
	assert.Equal(t, "sq", txt["model"])
	assert.Equal(t, "FOH Desk", txt["name"])
	assert.Equal(t, "1.5.2", txt["fw"])
	_, ok := txt[""]
	assert.False(t, ok)
}

func TestEntryToConsole(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{
			Instance: "SQ-6-A1B2C3",
			Service:  ServiceType,
			Domain:   Domain,
		},
		HostName: "sq-6.local.",
		Port:     51325,
		Text:     []string{"model=sq", "name=Main Desk"},
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.20")},
	}

	c := entryToConsole(entry)
	require.NotNil(t, c)
	assert.Equal(t, "SQ-6-A1B2C3", c.InstanceName)
	assert.Equal(t, profile.ModelSQ, c.Model)
	assert.Equal(t, "Main Desk", c.Name)
	assert.Equal(t, 51325, c.Port)
	assert.Equal(t, "192.168.1.20", c.Addr())
	assert.True(t, c.Supported())
}

func TestEntryToConsoleNoModel(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "printer.local.",
		Port:     9100,
		Text:     []string{"ty=LaserJet"},
	}
	assert.Nil(t, entryToConsole(entry))
}

func TestConsoleSupported(t *testing.T) {
	c := &Console{Model: profile.Model("x32")}
	assert.False(t, c.Supported())
	c.Model = profile.ModelQu
	assert.True(t, c.Supported())
}

func TestConsoleAddrFallsBackToHost(t *testing.T) {
	c := &Console{Host: "sq-6.local."}
	assert.Equal(t, "sq-6.local.", c.Addr())
}

func TestMergeAddresses(t *testing.T) {
	got := mergeAddresses([]string{"192.168.1.20"}, []string{"192.168.1.20", "fe80::1"})
	assert.Equal(t, []string{"192.168.1.20", "fe80::1"}, got)
}

// Package discovery finds mixing consoles on the local network via
// mDNS/DNS-SD. Consoles advertise their control service with a TXT
// record carrying the model identifier; the browser aggregates
// announcements from multiple interfaces into one service entry per
// instance name.
package discovery

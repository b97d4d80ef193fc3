// Package transport provides the raw TCP byte transport to a console.
//
// The console protocol is an unframed byte stream: there are no length
// prefixes, and message boundaries are recovered by the parsing layer.
// The transport therefore exposes chunk reads rather than message reads;
// whatever the network delivers is handed up as-is.
//
// Consoles listen on an unencrypted default port and a TLS-secured
// alternate port; Config selects between them. Dialing honors context
// cancellation and a configurable timeout.
package transport

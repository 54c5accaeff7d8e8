// Package server implements the WebSocket chat relay: the Hub that tracks
// connected clients and fans messages out to them, the per-connection
// read/write pumps, the Router that recognises the exchange command, and the
// HTTP handlers that expose it all.
package server

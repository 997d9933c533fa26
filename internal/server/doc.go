// Package server accepts WebSocket connections and hands each one to a
// session as a duplex byte channel. It owns the transport concerns the
// sessions never see: the HTTP upgrade, write serialization and
// deadlines, keepalive pings, and connection-scoped contexts canceled
// at shutdown.
package server

// Package session implements the per-client connection session.
//
// A session owns one duplex connection handed over by the transport
// layer. It parses inbound control messages, manages the subscription
// state machine (Idle → Subscribed → Closed), and drives the periodic
// rates send loop bound to the connection's lifetime.
package session

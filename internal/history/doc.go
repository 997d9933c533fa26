// Package history implements the price history store: a per-symbol time
// series of quotes ordered by upstream timestamp, trimmed to a 30-day
// retention window on every write, and queryable for a previous
// reference price within a lookback window.
//
// Entry payloads are the full Quote in JSON. Three backends implement
// the Store interface: postgres (pgx), redis (sorted sets), and an
// in-process memory store for development and tests.
package history

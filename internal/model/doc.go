// Package model defines shared data types used across the rates relay.
//
// Conventions:
//   - Symbols: "{ASSET}_{FIAT}" pairs (e.g. "BTC_CAD")
//   - Prices: float64 dollars
//   - Timestamps: int64 seconds since Unix epoch, as reported by upstream
package model

// Package upstream provides the HTTP client for the exchange quote feed.
//
// The feed is a single unauthenticated GET endpoint returning a JSON
// array of raw quote records (symbol, bid, ask, timestamp, change). One
// Client is constructed at process scope and shared by all sessions; its
// pooled http.Client is created lazily on first fetch.
package upstream

// Package database provides PostgreSQL connection pool management for the
// price history backend.
package database

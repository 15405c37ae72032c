// Package session defines the persisted client session record, its
// versioned binary wire format, and the Redis-backed persistence store used
// to survive process restarts. The careauth root package is the only
// intended consumer; it owns the in-memory session and treats this package
// as its durability layer.
package session

// Package session models the authenticated-identity record, its Redis
// store, and an optional HS256 token encoding of the same record.
//
// # Architecture boundaries
//
// This package owns the currentUser wire shape and nothing else. It never
// reads settings, lockout state, or the roster, and it performs no policy
// decisions; the root package decides when a session is written or cleared.
package session

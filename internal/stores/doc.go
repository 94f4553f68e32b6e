// Package stores holds the Redis-backed transient records shared with the
// rest of the keyspace: the pending OTP challenge and the operator settings.
// Wire shapes here are an external contract; do not rename JSON fields.
package stores

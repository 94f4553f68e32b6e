// Package limiters implements the persistent failed-login lockout policy.
package limiters

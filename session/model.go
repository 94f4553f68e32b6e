package session

import "time"

// Session defines a public type used by authgate APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// The JSON field names are the external store contract read by downstream
// pages; LoginTime is Unix milliseconds.
type Session struct {
	Identity  string `json:"user_id"`
	Role      string `json:"role"`
	LoginTime int64  `json:"loginTime"`
}

// LoginAt returns LoginTime as a time.Time.
func (s *Session) LoginAt() time.Time {
	return time.UnixMilli(s.LoginTime)
}

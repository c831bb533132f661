// Package auth implements an API-key authentication Layer, generalized
// from the teacher's HTTP-middleware API key authenticator onto weft's
// Service/Layer model: validate a caller-supplied key against a
// configured store before calling inner, and publish the matched
// key's Info onto the request's Extensions bag for downstream layers
// (rate limiting, audit) to key off of.
package auth

import "time"

// Info describes an authenticated API key.
type Info struct {
	Key       string
	UserID    string
	TeamID    string
	Enabled   bool
	CreatedAt time.Time
}

// Store validates API keys and enumerates the configured set.
type Store interface {
	Validate(key string) (*Info, error)
	List() []*Info
}

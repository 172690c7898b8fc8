package idgen

import (
	"github.com/google/uuid"
)

// ID prefixes for different models
const (
	PrefixLockSession = "lock_"
	PrefixRequest     = "req_"
)

// NewLockSession generates a new lock session ID with lock_ prefix
func NewLockSession() string {
	return PrefixLockSession + uuid.New().String()
}

// NewRequest generates a new request ID with req_ prefix
func NewRequest() string {
	return PrefixRequest + uuid.New().String()
}

// New generates a generic UUID without prefix (for internal use only)
func New() string {
	return uuid.New().String()
}

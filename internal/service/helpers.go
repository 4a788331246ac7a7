package service

import (
	"time"
)

// GetExpiresAt turns a token lifetime in seconds into an absolute expiry.
// An explicit expiry wins; with neither, tokens get a 60 day lifetime.
func GetExpiresAt(now time.Time, expiresIn int, explicit *time.Time) time.Time {
	if explicit != nil && !explicit.IsZero() {
		return *explicit
	}
	if expiresIn <= 0 {
		return now.Add(defaultTokenLifetime)
	}
	return now.Add(time.Duration(expiresIn) * time.Second)
}

const defaultTokenLifetime = 60 * 24 * time.Hour

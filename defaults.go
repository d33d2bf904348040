package cachefetch

import "time"

const (
	defaultRetention       = 24 * time.Hour
	defaultGenRetention    = 30 * 24 * time.Hour
	defaultCleanupInterval = time.Hour
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// Package genstore keeps a generation counter per stored response key.
//
// The response store stamps each entry with the generation observed before the
// network call and rejects entries whose stamp no longer matches. Bumping a
// key's generation therefore invalidates whatever is stored under it, including
// writes still in flight.
package genstore

import "context"

// GenStore abstracts where generations live.
// Use LocalGenStore (default) for in-process gens, or RedisGenStore to share
// invalidations between replicas.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}

package cachefetch

import "time"

// Hooks lightweight callbacks for high-signal cache events.
// Implementations MUST be cheap and non-blocking; they run on request paths.
type Hooks interface {
	// A stored entry was deleted on read.
	// reason ∈ {"corrupt", "gen_mismatch"}
	SelfHeal(storageKey, reason string)

	// A response was not stored because its cache policy forbids it.
	StoreSkipped(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// Provider or codec error while storing or reading an entry.
	StoreError(storageKey string, err error)

	// GenStore errors.
	GenSnapshotError(storageKey string, err error)
	GenBumpError(storageKey string, err error)

	// A transport failure was answered with the stored response.
	FallbackServed(url string, age time.Duration)

	// A transport failure had no stored response to fall back to.
	FallbackMiss(url string, cause error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)              {}
func (NopHooks) StoreSkipped(string, string)          {}
func (NopHooks) ProviderSetRejected(string)           {}
func (NopHooks) StoreError(string, error)             {}
func (NopHooks) GenSnapshotError(string, error)       {}
func (NopHooks) GenBumpError(string, error)           {}
func (NopHooks) FallbackServed(string, time.Duration) {}
func (NopHooks) FallbackMiss(string, error)           {}

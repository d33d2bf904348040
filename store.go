package cachefetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gen "github.com/unkn0wn-root/cachefetch/genstore"
	"github.com/unkn0wn-root/cachefetch/internal/util"
	"github.com/unkn0wn-root/cachefetch/internal/wire"
	pr "github.com/unkn0wn-root/cachefetch/provider"
)

// StoreOptions tune the response store.
// Only Namespace and Provider are required; others have sensible defaults.
type StoreOptions struct {
	// Required
	Namespace string // logical namespace to avoid collisions, e.g. "users", "feeds"
	Provider  pr.Provider

	Logger          Logger        // if nil, NopLogger is used
	Hooks           Hooks         // if nil, NopHooks is used
	Retention       time.Duration // how long an entry stays available; 0 => 24h
	KeyHeaders      []string      // nil => DefaultKeyHeaders
	GenStore        gen.GenStore  // nil => LocalGenStore (in-process)
	CleanupInterval time.Duration // local gen store sweep; 0 => 1h
	GenRetention    time.Duration // local gen store retention; 0 => 30d
	Disabled        bool          // default false (enabled)
}

// Store keeps the most recent stored response per canonical request.
// Each entry is stamped with the key's generation observed before the network
// call; entries whose stamp no longer matches are never returned.
type Store struct {
	ns         string
	provider   pr.Provider
	gen        gen.GenStore
	ownGen     bool
	log        Logger
	hooks      Hooks
	retention  time.Duration
	keyHeaders []string
	enabled    bool
}

func NewStore(opts StoreOptions) (*Store, error) {
	if opts.Provider == nil {
		return nil, errors.New("cachefetch: provider is required")
	}
	if opts.Namespace == "" {
		return nil, errors.New("cachefetch: namespace is required")
	}

	s := &Store{
		ns:       opts.Namespace,
		provider: opts.Provider,
		enabled:  !opts.Disabled,
	}

	// defaults
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	s.retention = coalesce[time.Duration](opts.Retention, defaultRetention)
	s.keyHeaders = opts.KeyHeaders
	if s.keyHeaders == nil {
		s.keyHeaders = DefaultKeyHeaders
	}

	if opts.GenStore != nil {
		s.gen = opts.GenStore
	} else {
		s.gen = gen.NewLocalGenStore(
			coalesce[time.Duration](opts.CleanupInterval, defaultCleanupInterval),
			coalesce[time.Duration](opts.GenRetention, defaultGenRetention),
		)
		s.ownGen = true
	}
	return s, nil
}

func (s *Store) Enabled() bool { return s.enabled }

// Close closes a gen store the Store created itself, then the provider.
func (s *Store) Close(ctx context.Context) error {
	if s.ownGen {
		_ = s.gen.Close(ctx)
	}
	return s.provider.Close(ctx)
}

// Key returns the storage key for req.
func (s *Store) Key(req *Request) (string, error) {
	parts, err := canonicalParts(req, s.keyHeaders)
	if err != nil {
		return "", err
	}
	return util.HashedKey("resp:"+s.ns, parts...), nil
}

// SnapshotGen returns the current generation of key. Take it before the
// network call and hand it to PutWithGen afterwards.
func (s *Store) SnapshotGen(ctx context.Context, key string) (uint64, error) {
	g, err := s.gen.Snapshot(ctx, key)
	if err != nil {
		s.hooks.GenSnapshotError(key, err)
		return 0, err
	}
	return g, nil
}

// Get returns a copy of the stored response for key; changing it does not touch
// the stored entry. Corrupt and stale entries are deleted and reported as a miss.
func (s *Store) Get(ctx context.Context, key string) (*Response, bool, error) {
	if !s.enabled {
		return nil, false, nil
	}
	raw, ok, err := s.provider.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	e, err := wire.DecodeEntry(raw)
	if err != nil {
		_ = s.provider.Del(ctx, key) // self-heal corrupt
		s.hooks.SelfHeal(key, "corrupt")
		return nil, false, nil
	}
	cur, err := s.SnapshotGen(ctx, key)
	if err != nil {
		// cannot tell stale from fresh; keep the entry, serve nothing
		return nil, false, err
	}
	if e.Gen != cur {
		_ = s.provider.Del(ctx, key)
		s.hooks.SelfHeal(key, "gen_mismatch")
		s.log.Debug("dropped stale entry", Fields{"key": key, "entryGen": e.Gen, "gen": cur})
		return nil, false, nil
	}
	// e.Body aliases provider memory (ristretto/bigcache hand out their own slice)
	var body []byte
	if e.Body != nil {
		body = append([]byte(nil), e.Body...)
	}
	return &Response{
		StatusCode: e.StatusCode,
		Header:     http.Header(e.Header),
		Body:       body,
		ReceivedAt: time.Unix(0, e.ReceivedAt),
	}, true, nil
}

// PutWithGen stores resp under key iff the key's generation still equals
// observedGen. A moved generation means the key was invalidated while the
// response was in flight; the write is skipped without error.
func (s *Store) PutWithGen(ctx context.Context, key string, resp *Response, observedGen uint64) error {
	if !s.enabled {
		return nil
	}
	cur, err := s.SnapshotGen(ctx, key)
	if err != nil {
		return err
	}
	if cur != observedGen {
		s.log.Debug("PutWithGen skipped (gen mismatch)", Fields{"key": key, "obs": observedGen, "gen": cur})
		return nil
	}
	b, err := wire.EncodeEntry(wire.Entry{
		Gen:        observedGen,
		StatusCode: resp.StatusCode,
		ReceivedAt: resp.ReceivedAt.UnixNano(),
		Header:     resp.Header,
		Body:       resp.Body,
	})
	if err != nil {
		return fmt.Errorf("cachefetch: encode entry: %w", err)
	}
	ok, err := s.provider.Set(ctx, key, b, int64(len(b)), s.retention)
	if err != nil {
		return err
	}
	if !ok {
		s.hooks.ProviderSetRejected(key)
		s.log.Debug("PutWithGen rejected by provider (pressure)", Fields{"key": key})
	}
	return nil
}

// Invalidate bumps the key's generation and deletes the entry. Writes that
// observed the old generation are rejected from now on.
func (s *Store) Invalidate(ctx context.Context, key string) error {
	if !s.enabled {
		return nil
	}
	_, bumpErr := s.gen.Bump(ctx, key)
	if bumpErr != nil {
		s.hooks.GenBumpError(key, bumpErr)
	}
	delErr := s.provider.Del(ctx, key)
	if bumpErr != nil || delErr != nil {
		return &InvalidateError{Key: key, BumpErr: bumpErr, DelErr: delErr}
	}
	s.log.Debug("invalidated entry", Fields{"key": key})
	return nil
}

// InvalidateRequest is Invalidate for the storage key of req.
func (s *Store) InvalidateRequest(ctx context.Context, req *Request) error {
	key, err := s.Key(req)
	if err != nil {
		return err
	}
	return s.Invalidate(ctx, key)
}

// InvalidateError reports a failed Invalidate. A failed bump with a successful
// delete still leaves in-flight writes able to land.
type InvalidateError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *InvalidateError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("invalidate %q failed: gen bump and delete failed: bump=%v; delete=%v",
			e.Key, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("invalidate %q: gen bump failed: %v", e.Key, e.BumpErr)
	default:
		return fmt.Sprintf("invalidate %q: delete failed: %v", e.Key, e.DelErr)
	}
}

func (e *InvalidateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}

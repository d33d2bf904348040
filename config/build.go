package config

import (
	"context"
	"errors"
	"fmt"
	stdslog "log/slog"
	"net/http"
	"strings"
	"time"

	apexlog "github.com/apex/log"
	apexjson "github.com/apex/log/handlers/json"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/cachefetch"
	gen "github.com/unkn0wn-root/cachefetch/genstore"
	asynchook "github.com/unkn0wn-root/cachefetch/hooks/async"
	logapex "github.com/unkn0wn-root/cachefetch/log/apex"
	loglogrus "github.com/unkn0wn-root/cachefetch/log/logrus"
	logslog "github.com/unkn0wn-root/cachefetch/log/slog"
	logzap "github.com/unkn0wn-root/cachefetch/log/zap"
	logzerolog "github.com/unkn0wn-root/cachefetch/log/zerolog"
	pr "github.com/unkn0wn-root/cachefetch/provider"
	"github.com/unkn0wn-root/cachefetch/provider/bigcache"
	"github.com/unkn0wn-root/cachefetch/provider/redis"
	"github.com/unkn0wn-root/cachefetch/provider/ristretto"
	"github.com/unkn0wn-root/cachefetch/provider/sqlite"
	"github.com/unkn0wn-root/cachefetch/sloghooks"
)

// Stack is the wired result of Build. Transport stores cacheable responses in
// Store (nil with provider "none"); Cached falls back to them.
type Stack struct {
	Transport *cachefetch.HTTPTransport
	Cached    *cachefetch.Cached
	Store     *cachefetch.Store
	Logger    cachefetch.Logger
	Hooks     cachefetch.Hooks

	closers []func(context.Context) error
}

// Close releases everything Build opened, in reverse order.
func (s *Stack) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

func (s *Stack) onClose(fn func(context.Context) error) { s.closers = append(s.closers, fn) }

// Build opens the configured provider, generation store, logger and hooks and
// wires them into a transport stack. On error everything opened so far is closed.
func (f File) Build(ctx context.Context) (_ *Stack, err error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	s := &Stack{}
	defer func() {
		if err != nil {
			_ = s.Close(ctx)
		}
	}()

	if s.Logger, err = f.Log.build(s); err != nil {
		return nil, fmt.Errorf("config: logger: %w", err)
	}
	s.Hooks = f.Cache.Hooks.build(f.Log, s)

	var rdb goredis.UniversalClient
	if f.Cache.Provider == ProviderRedis || f.Cache.GenStore == GenRedis {
		client := goredis.NewClient(&goredis.Options{
			Addr:     f.Cache.Redis.Addr,
			Password: f.Cache.Redis.Password,
			DB:       f.Cache.Redis.DB,
		})
		s.onClose(func(context.Context) error { return client.Close() })
		rdb = client
	}

	p, err := f.Cache.provider(ctx, rdb)
	if err != nil {
		return nil, fmt.Errorf("config: provider %s: %w", f.Cache.Provider, err)
	}
	if p != nil {
		var gs gen.GenStore
		if f.Cache.GenStore == GenRedis {
			gs = gen.NewRedisGenStore(rdb, f.Cache.Namespace, f.Cache.Redis.GenTTL)
		}
		store, err := cachefetch.NewStore(cachefetch.StoreOptions{
			Namespace:  f.Cache.Namespace,
			Provider:   p,
			Logger:     s.Logger,
			Hooks:      s.Hooks,
			Retention:  f.Cache.Retention,
			KeyHeaders: f.Cache.KeyHeaders,
			GenStore:   gs,
		})
		if err != nil {
			_ = p.Close(ctx)
			return nil, fmt.Errorf("config: store: %w", err)
		}
		s.onClose(store.Close)
		s.Store = store
	}

	s.Transport = cachefetch.NewHTTPTransport(cachefetch.HTTPOptions{
		Client:       &http.Client{Timeout: f.Transport.Timeout},
		Store:        s.Store,
		PrivateCache: f.Transport.PrivateCache,
		UserAgent:    f.Transport.UserAgent,
		Logger:       s.Logger,
		Hooks:        s.Hooks,
	})
	s.Cached, err = cachefetch.NewCached(cachefetch.CachedOptions{
		Transport:       s.Transport,
		FallbackOnError: f.Transport.FallbackOnError,
		Logger:          s.Logger,
		Hooks:           s.Hooks,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// provider returns nil for "none". The redis client belongs to the Stack.
func (c Cache) provider(ctx context.Context, rdb goredis.UniversalClient) (pr.Provider, error) {
	retention := c.Retention
	if retention == 0 {
		retention = 24 * time.Hour
	}
	switch c.Provider {
	case ProviderBigcache:
		return bigcache.New(ctx, bigcache.Config{
			LifeWindow:         retention,
			CleanWindow:        c.Bigcache.CleanWindow,
			Shards:             c.Bigcache.Shards,
			MaxEntrySize:       c.Bigcache.MaxEntrySize,
			HardMaxCacheSizeMB: c.Bigcache.HardMaxCacheSizeMB,
		})
	case ProviderRistretto:
		return ristretto.New(ristretto.Config{
			NumCounters: c.Ristretto.NumCounters,
			MaxCost:     c.Ristretto.MaxCost,
			BufferItems: c.Ristretto.BufferItems,
			Metrics:     c.Ristretto.Metrics,
		})
	case ProviderRedis:
		return redis.New(redis.Config{Client: rdb, Prefix: c.Redis.Prefix})
	case ProviderSQLite:
		return sqlite.New(ctx, sqlite.Config{Path: c.SQLite.Path})
	default:
		return nil, nil
	}
}

// build returns nil when hook logging is off. The sink filters at log.level;
// self-heal and skipped-store events are debug records.
func (h Hooks) build(l Log, s *Stack) cachefetch.Hooks {
	if !h.Log {
		return nil
	}
	var hooks cachefetch.Hooks = sloghooks.New(
		stdslog.New(stdslog.NewJSONHandler(l.writer(), &stdslog.HandlerOptions{Level: l.slogLevel()})),
		sloghooks.Options{SelfHealEvery: h.SelfHealEvery, FallbackMissEvery: h.FallbackMissEvery},
	)
	if h.AsyncWorkers > 0 {
		ah := asynchook.New(hooks, h.AsyncWorkers, h.AsyncQueue)
		s.onClose(func(context.Context) error { ah.Close(); return nil })
		hooks = ah
	}
	return hooks
}

// slogLevel maps log.level onto slog. Names slog does not know ("trace",
// "fatal", "panic") fall back to the nearest level.
func (l Log) slogLevel() stdslog.Level {
	var lvl stdslog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err == nil {
		return lvl
	}
	switch strings.ToLower(l.Level) {
	case "trace":
		return stdslog.LevelDebug
	case "warning":
		return stdslog.LevelWarn
	default:
		return stdslog.LevelError
	}
}

func (l Log) build(s *Stack) (cachefetch.Logger, error) {
	w := l.writer()
	switch l.Backend {
	case BackendZap:
		lvl, err := zapcore.ParseLevel(l.Level)
		if err != nil {
			return nil, err
		}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(w),
			lvl,
		)
		zl := zap.New(core)
		s.onClose(func(context.Context) error { _ = zl.Sync(); return nil })
		return logzap.New(zl), nil
	case BackendLogrus:
		lvl, err := logrus.ParseLevel(l.Level)
		if err != nil {
			return nil, err
		}
		lr := logrus.New()
		lr.SetOutput(w)
		lr.SetFormatter(&logrus.JSONFormatter{})
		lr.SetLevel(lvl)
		return loglogrus.New(lr), nil
	case BackendSlog:
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
			return nil, err
		}
		return logslog.Logger{L: stdslog.New(stdslog.NewJSONHandler(w, &stdslog.HandlerOptions{Level: lvl}))}, nil
	case BackendZerolog:
		lvl, err := zerolog.ParseLevel(l.Level)
		if err != nil {
			return nil, err
		}
		return logzerolog.New(zerolog.New(w).Level(lvl).With().Timestamp().Logger()), nil
	case BackendApex:
		lvl, err := apexlog.ParseLevel(l.Level)
		if err != nil {
			return nil, err
		}
		return logapex.Logger{L: &apexlog.Logger{Handler: apexjson.New(w), Level: lvl}}, nil
	default:
		return cachefetch.NopLogger{}, nil
	}
}

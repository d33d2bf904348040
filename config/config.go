// Package config builds a ready-to-use fetch stack from a YAML file.
//
//	transport:
//	  timeout: 10s
//	  user_agent: my-app/1.0
//	  fallback_on_error: true
//	cache:
//	  provider: ristretto      # none | bigcache | ristretto | redis | sqlite
//	  namespace: users
//	  retention: 24h
//	  key_headers: [Accept]
//	  gen_store: local         # local | redis
//	log:
//	  backend: zap             # none | zap | logrus | slog | zerolog | apex
//	  level: debug
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable Load falls back to when called
// without a path.
const EnvPath = "CACHEFETCH_CONFIG"

var ErrNoPath = errors.New("config: no path given and " + EnvPath + " is unset")

type File struct {
	// Source is the path the file was read from; empty for Parse.
	Source    string    `yaml:"-"`
	Transport Transport `yaml:"transport"`
	Cache     Cache     `yaml:"cache"`
	Log       Log       `yaml:"log"`
}

type Transport struct {
	Timeout         time.Duration `yaml:"timeout"`
	UserAgent       string        `yaml:"user_agent"`
	PrivateCache    bool          `yaml:"private_cache"`
	FallbackOnError bool          `yaml:"fallback_on_error"`
}

type Cache struct {
	Provider   string        `yaml:"provider"`
	Namespace  string        `yaml:"namespace"`
	Retention  time.Duration `yaml:"retention"`
	KeyHeaders []string      `yaml:"key_headers"`
	GenStore   string        `yaml:"gen_store"`

	Bigcache  Bigcache  `yaml:"bigcache"`
	Ristretto Ristretto `yaml:"ristretto"`
	Redis     Redis     `yaml:"redis"`
	SQLite    SQLite    `yaml:"sqlite"`
	Hooks     Hooks     `yaml:"hooks"`
}

type Bigcache struct {
	Shards             int           `yaml:"shards"`
	CleanWindow        time.Duration `yaml:"clean_window"`
	MaxEntrySize       int           `yaml:"max_entry_size"`
	HardMaxCacheSizeMB int           `yaml:"hard_max_cache_size_mb"`
}

type Ristretto struct {
	NumCounters int64 `yaml:"num_counters"`
	MaxCost     int64 `yaml:"max_cost"`
	BufferItems int64 `yaml:"buffer_items"`
	Metrics     bool  `yaml:"metrics"`
}

type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	GenTTL   time.Duration `yaml:"gen_ttl"`
}

type SQLite struct {
	Path string `yaml:"path"`
}

// Hooks routes cache events to a slog JSON sink on the log output.
type Hooks struct {
	Log               bool   `yaml:"log"`
	SelfHealEvery     uint64 `yaml:"self_heal_every"`
	FallbackMissEvery uint64 `yaml:"fallback_miss_every"`
	AsyncWorkers      int    `yaml:"async_workers"` // 0 => hooks run inline
	AsyncQueue        int    `yaml:"async_queue"`
}

type Log struct {
	Backend string `yaml:"backend"`
	Level   string `yaml:"level"`
	Output  string `yaml:"output"` // stderr (default) | stdout

	out io.Writer // overrides Output
}

// Load reads and validates the file at path, or at $CACHEFETCH_CONFIG when
// path is empty.
func Load(path string) (File, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return File{}, ErrNoPath
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	f, err := Parse(b)
	if err != nil {
		return File{}, fmt.Errorf("config: %s: %w", path, err)
	}
	f.Source = path
	return f, nil
}

// Parse decodes YAML, applies defaults and validates the result. Unknown keys
// are rejected.
func Parse(b []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, err
	}
	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

func (f *File) applyDefaults() {
	if f.Cache.Provider == "" {
		f.Cache.Provider = ProviderNone
	}
	if f.Cache.GenStore == "" {
		f.Cache.GenStore = GenLocal
	}
	if f.Log.Backend == "" {
		f.Log.Backend = BackendNone
	}
	if f.Log.Level == "" {
		f.Log.Level = "info"
	}
	if f.Cache.Provider == ProviderRistretto {
		r := &f.Cache.Ristretto
		if r.NumCounters == 0 {
			r.NumCounters = 100_000
		}
		if r.MaxCost == 0 {
			r.MaxCost = 64 << 20
		}
		if r.BufferItems == 0 {
			r.BufferItems = 64
		}
	}
}

const (
	ProviderNone      = "none"
	ProviderBigcache  = "bigcache"
	ProviderRistretto = "ristretto"
	ProviderRedis     = "redis"
	ProviderSQLite    = "sqlite"

	GenLocal = "local"
	GenRedis = "redis"

	BackendNone    = "none"
	BackendZap     = "zap"
	BackendLogrus  = "logrus"
	BackendSlog    = "slog"
	BackendZerolog = "zerolog"
	BackendApex    = "apex"
)

func (f File) Validate() error {
	var errs []error
	if f.Transport.Timeout < 0 {
		errs = append(errs, errors.New("transport.timeout must not be negative"))
	}
	switch f.Cache.Provider {
	case ProviderNone:
	case ProviderBigcache, ProviderRistretto, ProviderRedis, ProviderSQLite:
		if f.Cache.Namespace == "" {
			errs = append(errs, errors.New("cache.namespace is required with a provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.provider: unknown %q", f.Cache.Provider))
	}
	if f.Cache.Retention < 0 {
		errs = append(errs, errors.New("cache.retention must not be negative"))
	}
	switch f.Cache.GenStore {
	case GenLocal:
	case GenRedis:
		if f.Cache.Provider == ProviderNone {
			errs = append(errs, errors.New("cache.gen_store: redis needs a cache.provider"))
		}
		if f.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required for the redis gen store"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.gen_store: unknown %q", f.Cache.GenStore))
	}
	if f.Cache.Provider == ProviderRedis && f.Cache.Redis.Addr == "" {
		errs = append(errs, errors.New("cache.redis.addr is required"))
	}
	if f.Cache.Provider == ProviderSQLite && f.Cache.SQLite.Path == "" {
		errs = append(errs, errors.New("cache.sqlite.path is required"))
	}
	switch f.Log.Backend {
	case BackendNone, BackendZap, BackendLogrus, BackendSlog, BackendZerolog, BackendApex:
	default:
		errs = append(errs, fmt.Errorf("log.backend: unknown %q", f.Log.Backend))
	}
	switch f.Log.Output {
	case "", "stderr", "stdout":
	default:
		errs = append(errs, fmt.Errorf("log.output: unknown %q", f.Log.Output))
	}
	return errors.Join(errs...)
}

func (l Log) writer() io.Writer {
	switch {
	case l.out != nil:
		return l.out
	case l.Output == "stdout":
		return os.Stdout
	default:
		return os.Stderr
	}
}

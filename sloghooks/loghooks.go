// Package sloghooks writes cachefetch hook events to a *slog.Logger.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/cachefetch"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery     uint64
	FallbackMissEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
	// KeepQuery logs URLs with their query string. Off by default: queries
	// often carry tokens.
	KeepQuery bool
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
	missCtr     atomic.Uint64
}

var _ cachefetch.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func (h *Hooks) url(raw string) string {
	if h.opts.KeepQuery {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return h.redact(raw)
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("cachefetch.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) StoreSkipped(storageKey, reason string) {
	if h.l == nil {
		return
	}
	h.l.Debug("cachefetch.store_skipped",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachefetch.provider_set_rejected",
		"key", h.redact(storageKey))
}

func (h *Hooks) StoreError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachefetch.store_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) GenSnapshotError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachefetch.gen_snapshot_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) GenBumpError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("cachefetch.gen_bump_error",
		"key", h.redact(storageKey),
		"err", err)
}

func (h *Hooks) FallbackServed(rawURL string, age time.Duration) {
	if h.l == nil {
		return
	}
	h.l.Info("cachefetch.fallback_served",
		"url", h.url(rawURL),
		"age", age)
}

func (h *Hooks) FallbackMiss(rawURL string, cause error) {
	if h.l == nil || !sample(h.opts.FallbackMissEvery, &h.missCtr) {
		return
	}
	h.l.Warn("cachefetch.fallback_miss",
		"url", h.url(rawURL),
		"err", h.scrub(cause, rawURL))
}

// scrub rewrites every spelling of rawURL in err's message to the logged form.
// Transport errors embed the full URL, query included.
func (h *Hooks) scrub(err error, rawURL string) any {
	if err == nil || h.opts.KeepQuery || rawURL == "" {
		return err
	}
	safe := h.url(rawURL)
	msg := strings.ReplaceAll(err.Error(), rawURL, safe)
	if u, perr := url.Parse(rawURL); perr == nil {
		if s := u.String(); s != rawURL {
			msg = strings.ReplaceAll(msg, s, safe)
		}
	}
	return msg
}

// Package zerolog adapts a zerolog.Logger to cachefetch.Logger.
package zerolog

import (
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/cachefetch"
)

var _ cachefetch.Logger = Logger{}

type Logger struct{ L zerolog.Logger }

func New(l zerolog.Logger) Logger {
	return Logger{L: l.With().Str("component", "cachefetch").Logger()}
}

func (z Logger) Debug(msg string, f cachefetch.Fields) {
	z.L.Debug().Fields(map[string]any(f)).Msg(msg)
}
func (z Logger) Info(msg string, f cachefetch.Fields) { z.L.Info().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Warn(msg string, f cachefetch.Fields) { z.L.Warn().Fields(map[string]any(f)).Msg(msg) }
func (z Logger) Error(msg string, f cachefetch.Fields) {
	z.L.Error().Fields(map[string]any(f)).Msg(msg)
}

// Package apex adapts an apex/log logger to cachefetch.Logger.
package apex

import (
	"github.com/apex/log"

	"github.com/unkn0wn-root/cachefetch"
)

var _ cachefetch.Logger = Logger{}

type Logger struct{ L log.Interface }

func (a Logger) Debug(msg string, f cachefetch.Fields) { a.L.WithFields(log.Fields(f)).Debug(msg) }
func (a Logger) Info(msg string, f cachefetch.Fields)  { a.L.WithFields(log.Fields(f)).Info(msg) }
func (a Logger) Warn(msg string, f cachefetch.Fields)  { a.L.WithFields(log.Fields(f)).Warn(msg) }
func (a Logger) Error(msg string, f cachefetch.Fields) { a.L.WithFields(log.Fields(f)).Error(msg) }

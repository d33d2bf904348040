// Package repository reads users from public JSON APIs and maps each API's
// payload onto one User shape, so callers can swap sources freely.
package repository

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/cachefetch"
)

// ErrNotFound is returned when the source has no user for the request.
var ErrNotFound = errors.New("repository: not found")

type Repository[T any] interface {
	Get(ctx context.Context, id int) (T, error)
	List(ctx context.Context) ([]T, error)
}

// User is the source-independent view of a user.
type User struct {
	Name      string
	Street    string
	City      string
	Postcode  string
	Latitude  string
	Longitude string
}

type Options struct {
	BaseURL   string               // "" => the public API
	Transport cachefetch.Transport // nil => a plain HTTPTransport
	Logger    cachefetch.Logger
}

func newFetcher[T any](o Options) cachefetch.Fetcher[T] {
	return cachefetch.New[T](cachefetch.Options[T]{Transport: o.Transport, Logger: o.Logger})
}

func mapAll[T any](in []T, fn func(T) (User, error)) ([]User, error) {
	out := make([]User, 0, len(in))
	for _, v := range in {
		u, err := fn(v)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

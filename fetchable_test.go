package cachefetch

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestBindCopiesRequest(t *testing.T) {
	tr := &countingTransport{resp: jsonResponse(http.StatusOK, philJSON)}
	f := New[user](Options[user]{Transport: tr})

	req := &Request{URL: "https://api.test/users/1"}
	src := Bind(f, req)
	req.URL = "https://api.test/users/2"

	if _, err := src.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := tr.last.Load().URL; got != "https://api.test/users/1" {
		t.Fatalf("bound request changed: %s", got)
	}
}

func TestBindNilRequest(t *testing.T) {
	f := New[user](Options[user]{Transport: &countingTransport{}})
	if _, err := Bind(f, nil).Fetch(context.Background()); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("want ErrInvalidRequest, got %v", err)
	}
}

func TestMapConvertsAndPassesErrors(t *testing.T) {
	tr := &countingTransport{resp: jsonResponse(http.StatusOK, philJSON)}
	names := Map(Bind(New[user](Options[user]{Transport: tr}), &Request{URL: "https://api.test/users/1"}),
		func(u user) (string, error) { return strings.ToUpper(u.Name), nil })

	got, err := names.Fetch(context.Background())
	if err != nil || got != "PHIL" {
		t.Fatalf("got %q err=%v", got, err)
	}

	// errors from the source skip fn
	failing := FetchableFunc[user](func(context.Context) (user, error) { return user{}, ErrEmptyBody })
	called := false
	_, err = Map(failing, func(u user) (string, error) { called = true; return u.Name, nil }).Fetch(context.Background())
	if !errors.Is(err, ErrEmptyBody) || called {
		t.Fatalf("err=%v called=%v", err, called)
	}

	// fn errors surface as-is
	boom := errors.New("no name")
	_, err = Map(Bind(New[user](Options[user]{Transport: tr}), &Request{URL: "https://api.test/users/1"}),
		func(user) (string, error) { return "", boom }).Fetch(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("want fn error, got %v", err)
	}
}

func TestFetchableHidesSource(t *testing.T) {
	a := &countingTransport{resp: jsonResponse(http.StatusOK, `"a"`)}
	b := &countingTransport{resp: jsonResponse(http.StatusOK, `"b"`)}
	sources := []Fetchable[string]{
		Bind(New[string](Options[string]{Transport: a}), &Request{URL: "https://a.test/"}),
		Bind(New[string](Options[string]{Transport: b}), &Request{URL: "https://b.test/"}),
	}
	var out []string
	for _, s := range sources {
		v, err := s.Fetch(context.Background())
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		out = append(out, v)
	}
	if strings.Join(out, ",") != "a,b" {
		t.Fatalf("got %v", out)
	}
}

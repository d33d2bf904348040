package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/cachefetch"
)

const RandomUserURL = "https://randomuser.me"

type randomUsers struct {
	Results []randomUser `json:"results"`
	Info    struct {
		Seed    string `json:"seed"`
		Results int    `json:"results"`
		Page    int    `json:"page"`
		Version string `json:"version"`
	} `json:"info"`
}

type randomUser struct {
	Gender string `json:"gender"`
	Name   struct {
		Title string `json:"title"`
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	Location struct {
		Street struct {
			Number int    `json:"number"`
			Name   string `json:"name"`
		} `json:"street"`
		City        string   `json:"city"`
		State       string   `json:"state"`
		Country     string   `json:"country"`
		Postcode    postcode `json:"postcode"`
		Coordinates struct {
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"coordinates"`
	} `json:"location"`
	Email string `json:"email"`
	Nat   string `json:"nat"`
}

// postcode is sent as a number for some nationalities and as a string for others.
type postcode string

func (p *postcode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = postcode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("postcode: %w", err)
	}
	*p = postcode(n.String())
	return nil
}

func (r randomUser) user() (User, error) {
	return User{
		Name:      strings.TrimSpace(r.Name.First + " " + r.Name.Last),
		Street:    r.Location.Street.Name,
		City:      r.Location.City,
		Postcode:  string(r.Location.Postcode),
		Latitude:  r.Location.Coordinates.Latitude,
		Longitude: r.Location.Coordinates.Longitude,
	}, nil
}

type RandomUserOptions struct {
	Options
	Results int    // page size for List; 0 => 10
	Seed    string // "" => a different set of users on every call
}

// RandomUser reads generated users from a randomuser.me-style API. The API has
// no ids: Get returns the first user of a one-user page. With a Seed, id picks
// the page, so the same id yields the same user.
type RandomUser struct {
	base    string
	results int
	seed    string
	f       cachefetch.Fetcher[randomUsers]
}

var _ Repository[User] = (*RandomUser)(nil)

func NewRandomUser(opts RandomUserOptions) *RandomUser {
	base := opts.BaseURL
	if base == "" {
		base = RandomUserURL
	}
	r := &RandomUser{
		base:    strings.TrimRight(base, "/"),
		results: opts.Results,
		seed:    opts.Seed,
		f:       newFetcher[randomUsers](opts.Options),
	}
	if r.results <= 0 {
		r.results = 10
	}
	return r
}

func (r *RandomUser) request(results, page int) *cachefetch.Request {
	q := url.Values{}
	q.Set("results", strconv.Itoa(results))
	if r.seed != "" {
		q.Set("seed", r.seed)
		q.Set("page", strconv.Itoa(page))
	}
	return &cachefetch.Request{URL: r.base + "/api/?" + q.Encode()}
}

// User returns a Fetchable for the user Get(id) would return.
func (r *RandomUser) User(id int) cachefetch.Fetchable[User] {
	return cachefetch.Map(cachefetch.Bind(r.f, r.request(1, id)), func(in randomUsers) (User, error) {
		if len(in.Results) == 0 {
			return User{}, ErrNotFound
		}
		return in.Results[0].user()
	})
}

func (r *RandomUser) Get(ctx context.Context, id int) (User, error) {
	return r.User(id).Fetch(ctx)
}

func (r *RandomUser) List(ctx context.Context) ([]User, error) {
	return cachefetch.Map(cachefetch.Bind(r.f, r.request(r.results, 1)), func(in randomUsers) ([]User, error) {
		return mapAll(in.Results, randomUser.user)
	}).Fetch(ctx)
}

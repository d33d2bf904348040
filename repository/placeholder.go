package repository

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/unkn0wn-root/cachefetch"
)

const PlaceholderURL = "https://jsonplaceholder.typicode.com"

type placeholderUser struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Address  struct {
		Street  string `json:"street"`
		Suite   string `json:"suite"`
		City    string `json:"city"`
		Zipcode string `json:"zipcode"`
		Geo     struct {
			Lat string `json:"lat"`
			Lng string `json:"lng"`
		} `json:"geo"`
	} `json:"address"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
	Company struct {
		Name        string `json:"name"`
		CatchPhrase string `json:"catchPhrase"`
		BS          string `json:"bs"`
	} `json:"company"`
}

func (p placeholderUser) user() (User, error) {
	return User{
		Name:      p.Name,
		Street:    p.Address.Street,
		City:      p.Address.City,
		Postcode:  p.Address.Zipcode,
		Latitude:  p.Address.Geo.Lat,
		Longitude: p.Address.Geo.Lng,
	}, nil
}

// Placeholder reads users from a JSONPlaceholder-style API:
// GET /users/{id} and GET /users.
type Placeholder struct {
	base string
	one  cachefetch.Fetcher[placeholderUser]
	all  cachefetch.Fetcher[[]placeholderUser]
}

var _ Repository[User] = (*Placeholder)(nil)

func NewPlaceholder(opts Options) *Placeholder {
	base := opts.BaseURL
	if base == "" {
		base = PlaceholderURL
	}
	return &Placeholder{
		base: strings.TrimRight(base, "/"),
		one:  newFetcher[placeholderUser](opts),
		all:  newFetcher[[]placeholderUser](opts),
	}
}

// User returns a Fetchable for the user with id.
func (p *Placeholder) User(id int) cachefetch.Fetchable[User] {
	req := &cachefetch.Request{URL: fmt.Sprintf("%s/users/%d", p.base, id)}
	return cachefetch.Map(cachefetch.Bind(p.one, req), placeholderUser.user)
}

// Get returns ErrNotFound (wrapping the status error) when the API answers 404.
func (p *Placeholder) Get(ctx context.Context, id int) (User, error) {
	u, err := p.User(id).Fetch(ctx)
	if cachefetch.StatusCode(err) == http.StatusNotFound {
		return User{}, fmt.Errorf("%w: user %d: %w", ErrNotFound, id, err)
	}
	return u, err
}

func (p *Placeholder) List(ctx context.Context) ([]User, error) {
	req := &cachefetch.Request{URL: p.base + "/users"}
	return cachefetch.Map(cachefetch.Bind(p.all, req), func(in []placeholderUser) ([]User, error) {
		return mapAll(in, placeholderUser.user)
	}).Fetch(ctx)
}

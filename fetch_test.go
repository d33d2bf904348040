package cachefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/unkn0wn-root/cachefetch/codec"
)

func TestGetDecodesUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/users/1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, philJSON)
	}))
	defer srv.Close()

	f := New[user](Options[user]{})
	got, err := f.Get(context.Background(), srv.URL+"/users/1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, phil) {
		t.Fatalf("got %+v want %+v", got, phil)
	}
}

func TestNotFoundIsStatusErrorWithBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	f := New[[]user](Options[[]user]{})
	got, err := f.Get(context.Background(), srv.URL+"/posts")
	if got != nil {
		t.Fatalf("expected zero value, got %v", got)
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("want *StatusError, got %T %v", err, err)
	}
	if se.Code != http.StatusNotFound || StatusCode(err) != http.StatusNotFound {
		t.Fatalf("code=%d", se.Code)
	}
	if se.Response == nil || string(se.Response.Body) != `{}` {
		t.Fatalf("response body not attached: %+v", se.Response)
	}
	if IsTransport(err) {
		t.Fatalf("status failure must not be a transport error")
	}
}

func TestStatusRange(t *testing.T) {
	cases := []struct {
		code int
		ok   bool
	}{
		{199, false},
		{200, true},
		{201, true},
		{299, true},
		{300, false},
		{304, false},
		{404, false},
		{500, false},
		{503, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.code), func(t *testing.T) {
			tr := &countingTransport{resp: jsonResponse(tc.code, `"x"`)}
			f := New[string](Options[string]{Transport: tr})
			v, err := f.Get(context.Background(), "https://api.test/v")
			if tc.ok {
				if err != nil || v != "x" {
					t.Fatalf("v=%q err=%v", v, err)
				}
				return
			}
			if StatusCode(err) != tc.code {
				t.Fatalf("want StatusError %d, got %v", tc.code, err)
			}
		})
	}
}

func TestEmptyBody(t *testing.T) {
	tr := &countingTransport{resp: jsonResponse(http.StatusNoContent, "")}
	f := New[user](Options[user]{Transport: tr})
	if _, err := f.Get(context.Background(), "https://api.test/users/1"); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("want ErrEmptyBody, got %v", err)
	}
}

func TestDecodeFailure(t *testing.T) {
	tr := &countingTransport{resp: jsonResponse(http.StatusOK, `{"id":"one"}`)}
	f := New[user](Options[user]{Transport: tr})
	_, err := f.Get(context.Background(), "https://api.test/users/1")
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("want *DecodeError, got %T %v", err, err)
	}
	if de.ContentType != "application/json" {
		t.Fatalf("content type=%q", de.ContentType)
	}
	if de.Unwrap() == nil {
		t.Fatalf("codec cause lost")
	}
}

func TestInvalidRequestNeverReachesTransport(t *testing.T) {
	tr := &countingTransport{resp: jsonResponse(http.StatusOK, `"x"`)}
	f := New[string](Options[string]{Transport: tr})
	ctx := context.Background()

	bad := []*Request{
		nil,
		{URL: "/relative/path"},
		{URL: "ftp://files.test/x"},
		{URL: "https://"},
		{URL: "http://a b.test/"},
		{Method: "GE T", URL: "https://api.test/"},
		{Method: "GET/", URL: "https://api.test/"},
	}
	for i, req := range bad {
		if _, err := f.Do(ctx, req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("case %d: want ErrInvalidRequest, got %v", i, err)
		}
	}
	if n := tr.calls.Load(); n != 0 {
		t.Fatalf("transport called %d times", n)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/users"
	srv.Close()

	f := New[[]user](Options[[]user]{})
	_, err := f.Get(context.Background(), url)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("want *TransportError, got %T %v", err, err)
	}
	if te.Method != http.MethodGet || te.URL != url {
		t.Fatalf("unexpected error fields: %+v", te)
	}
	if StatusCode(err) != 0 {
		t.Fatalf("transport failure carries no status")
	}
}

func TestForeignTransportErrorIsWrapped(t *testing.T) {
	tr := &countingTransport{err: errDial}
	f := New[user](Options[user]{Transport: tr})
	_, err := f.Get(context.Background(), "https://api.test/users/1")
	if !IsTransport(err) || !errors.Is(err, errDial) {
		t.Fatalf("want TransportError wrapping errDial, got %v", err)
	}

	nilResp := TransportFunc(func(context.Context, *Request) (*Response, error) { return nil, nil })
	f = New[user](Options[user]{Transport: nilResp})
	if _, err := f.Get(context.Background(), "https://api.test/users/1"); !IsTransport(err) {
		t.Fatalf("nil response must surface as transport error, got %v", err)
	}
}

func TestDoDoesNotMutateCallerRequest(t *testing.T) {
	tr := TransportFunc(func(_ context.Context, req *Request) (*Response, error) {
		req.Header.Set("Accept", "text/plain")
		req.Body[0] = 'X'
		return jsonResponse(http.StatusOK, `"ok"`), nil
	})
	f := New[string](Options[string]{Transport: tr})

	req := NewRequest("post", "https://api.test/echo", []byte("abc"))
	req.Header.Set("Accept", "application/json")
	if _, err := f.Do(context.Background(), req); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if req.Header.Get("Accept") != "application/json" || string(req.Body) != "abc" || req.Method != "post" {
		t.Fatalf("caller request mutated: %+v", req)
	}
}

func TestRequestBodyAndHeadersReachServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "bad")
			return
		}
		raw, _ := io.ReadAll(r.Body)
		in, err := codec.JSON[user]{}.Decode(raw)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "bad")
			return
		}
		in.ID = 11
		w.WriteHeader(http.StatusCreated)
		b, _ := codec.JSON[user]{}.Encode(in)
		_, _ = w.Write(b)
	}))
	defer srv.Close()

	req, err := EncodeRequest[user](http.MethodPost, srv.URL+"/users", codec.JSON[user]{}, "application/json", user{Name: "Phil"})
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	got, err := New[user](Options[user]{}).Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got.ID != 11 || got.Name != "Phil" {
		t.Fatalf("got %+v", got)
	}
}

func TestRepeatedFetchIsIdempotent(t *testing.T) {
	tr := &countingTransport{resp: jsonResponse(http.StatusOK, philJSON)}
	f := New[user](Options[user]{Transport: tr})

	a, errA := f.Get(context.Background(), "https://api.test/users/1")
	b, errB := f.Get(context.Background(), "https://api.test/users/1")
	if errA != nil || errB != nil {
		t.Fatalf("errs: %v %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("results differ: %+v vs %+v", a, b)
	}
	if tr.calls.Load() != 2 {
		t.Fatalf("every fetch must hit the transport; calls=%d", tr.calls.Load())
	}
}

func TestConcurrentFetches(t *testing.T) {
	tr := &countingTransport{resp: jsonResponse(http.StatusOK, philJSON)}
	f := New[user](Options[user]{Transport: tr})

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.Get(context.Background(), "https://api.test/users/1")
			if err == nil && v.Name != "Phil" {
				err = fmt.Errorf("got %+v", v)
			}
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestStrictCodecRejectsUnknownFields(t *testing.T) {
	tr := &countingTransport{resp: jsonResponse(http.StatusOK, `{"id":1,"extra":true}`)}
	loose := New[user](Options[user]{Transport: tr})
	if _, err := loose.Get(context.Background(), "https://api.test/users/1"); err != nil {
		t.Fatalf("default codec should ignore unknown fields: %v", err)
	}
	strict := New[user](Options[user]{Transport: tr, Codec: codec.JSON[user]{Strict: true}})
	var de *DecodeError
	if _, err := strict.Get(context.Background(), "https://api.test/users/1"); !errors.As(err, &de) {
		t.Fatalf("want DecodeError, got %v", err)
	}
}

package cachefetch

import (
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// DefaultKeyHeaders are the request headers that take part in the canonical
// request form when none are configured.
var DefaultKeyHeaders = []string{"Accept", "Accept-Language"}

// CanonicalForm returns the normalized identity of req used to look up stored
// responses: method, normalized URL, then "Name:v1,v2" for each key header, one
// per line. Header order and name case do not matter.
func CanonicalForm(req *Request, keyHeaders []string) (string, error) {
	parts, err := canonicalParts(req, keyHeaders)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, "\n"), nil
}

func canonicalParts(req *Request, keyHeaders []string) ([]string, error) {
	u, err := req.validate()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keyHeaders))
	seen := make(map[string]struct{}, len(keyHeaders))
	for _, h := range keyHeaders {
		h = http.CanonicalHeaderKey(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		names = append(names, h)
	}
	sort.Strings(names)

	parts := make([]string, 0, 2+len(names))
	parts = append(parts, req.method(), normalizeURL(u))
	for _, h := range names {
		parts = append(parts, h+":"+strings.Join(req.Header.Values(h), ","))
	}
	return parts, nil
}

// normalizeURL lower-cases scheme and host, drops the default port and the
// fragment, and turns an empty path into "/". Query order is preserved.
func normalizeURL(in *url.URL) string {
	u := *in
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" && u.RawPath == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u.String()
}

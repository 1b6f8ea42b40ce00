package parkingapi

import (
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID correlates client logs with server logs.
const HeaderRequestID = "X-Request-ID"

// TokenSource yields the bearer token of the current session, or "" when
// logged out. It is read on every request.
type TokenSource interface {
	Token() string
}

// bearerTransport attaches the current session token. The header is never
// left over from a previous session: it is set or removed on each request.
type bearerTransport struct {
	tokens TokenSource
	next   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if tok := t.tokens.Token(); tok != "" {
		r.Header.Set("Authorization", "Bearer "+tok)
	} else {
		r.Header.Del("Authorization")
	}
	return t.next.RoundTrip(r)
}

type requestIDTransport struct {
	next http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(HeaderRequestID) != "" {
		return t.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set(HeaderRequestID, uuid.NewString())
	return t.next.RoundTrip(r)
}

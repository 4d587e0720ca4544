package session

import (
	"context"
	"net/http"
)

// Transport attaches the current bearer credential to outgoing API requests
// and runs the unauthorized check on 401 responses. A request that already
// carries an Authorization header is passed through untouched.
type Transport struct {
	Store *Store
	Base  http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	token := t.Store.Token()
	if token != "" && req.Header.Get("Authorization") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		// The check outlives the request; a cancelled request context
		// would make the refresh fail and drop a still-valid session.
		go t.Store.HandleUnauthorized(context.WithoutCancel(req.Context()))
	}
	return resp, nil
}

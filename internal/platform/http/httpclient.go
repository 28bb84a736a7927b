// Package http provides the outbound HTTP client used by cloud SDK clients.
package http

import (
	"net/http"
	"time"
)

// idleConnsPerHost is sized for a single service endpoint shared by all request goroutines.
const idleConnsPerHost = 64

// NewClient returns an *http.Client whose whole round trip is bounded by timeout.
// http.DefaultClient never times out, so SDK clients must be handed this one.
//
// The transport starts from http.DefaultTransport (proxy from environment, dial and
// TLS timeouts, HTTP/2) and keeps more idle connections to one host, since every
// call goes to the same regional endpoint.
func NewClient(timeout time.Duration) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = idleConnsPerHost
	t.ResponseHeaderTimeout = timeout
	return &http.Client{Timeout: timeout, Transport: t}
}

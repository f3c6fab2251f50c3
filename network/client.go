// Package network provides the HTTP client used to download manifests and plugin scripts.
package network

import (
	"net/http"
	"sync"
	"time"
)

var (
	transport     *http.Transport
	transportOnce sync.Once
)

// Transport returns the shared, pooled transport. Clients created by New reuse it so that
// concurrent fetches of the same repository share connections.
func Transport() *http.Transport {
	transportOnce.Do(func() {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.MaxIdleConns = 100
		t.MaxIdleConnsPerHost = 16
		t.IdleConnTimeout = 30 * time.Second
		t.ResponseHeaderTimeout = 30 * time.Second
		transport = t
	})
	return transport
}

// New returns a client bound to the shared transport with the given overall timeout.
// A zero timeout leaves deadlines to the request context.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: Transport(),
	}
}

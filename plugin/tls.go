package plugin

// The http_tls module gives scripts an HTTP client that presents a Chrome TLS fingerprint,
// for sources that reject Go's default ClientHello. It tries HTTP/2 first and falls back
// to HTTP/1.1 with h1-only ALPN.
//
// Lua API:
//
//	http_tls.get(url)              -> body string
//	http_tls.get(url, headers_tbl) -> body string
//	http_tls.request(options_tbl)  -> {status, body, headers}
//
// Requests are bound to the script's context, so they stop when the execution times out.

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/plugtest/plugtest/constant"
	"github.com/plugtest/plugtest/internal/cache"
	"github.com/plugtest/plugtest/log"
	utls "github.com/refraction-networking/utls"
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/net/http2"
)

const (
	httpTimeout    = 30 * time.Second
	maxTLSBodySize = 16 << 20
	browserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

func registerTLSClient(L *lua.LState) {
	loader := func(L *lua.LState) int {
		L.Push(newTLSModule(L))
		return 1
	}

	L.PreloadModule(constant.TLSLib, loader)
	L.SetGlobal(constant.TLSLib, newTLSModule(L))
}

func newTLSModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(httpTLSGet))
	L.SetField(mod, "request", L.NewFunction(httpTLSRequest))
	return mod
}

func stateContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func tableToHeaders(tbl *lua.LTable) map[string]string {
	headers := make(map[string]string)
	if tbl != nil {
		tbl.ForEach(func(k, v lua.LValue) {
			headers[k.String()] = v.String()
		})
	}
	return headers
}

func httpTLSGet(L *lua.LState) int {
	url := L.CheckString(1)
	headers := tableToHeaders(L.OptTable(2, nil))

	resp, err := doTLSRequest(stateContext(L), http.MethodGet, url, headers, "")
	if err != nil {
		L.RaiseError("http_tls.get failed: %s", err.Error())
		return 0
	}

	L.Push(lua.LString(resp.Body))
	return 1
}

type tlsResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

func (r tlsResponse) toTable(L *lua.LState) *lua.LTable {
	result := L.NewTable()
	L.SetField(result, "status", lua.LNumber(r.Status))
	L.SetField(result, "body", lua.LString(r.Body))

	headers := L.NewTable()
	for k, v := range r.Headers {
		headers.RawSetString(k, lua.LString(v))
	}
	L.SetField(result, "headers", headers)
	return result
}

func httpTLSRequest(L *lua.LState) int {
	opts := L.CheckTable(1)

	method := strings.ToUpper(getStringField(opts, "method", http.MethodGet))
	url := getStringField(opts, "url", "")
	reqBody := getStringField(opts, "body", "")

	if url == "" {
		L.RaiseError("http_tls.request: url is required")
		return 0
	}

	shouldCache := lua.LVAsBool(opts.RawGetString("cache"))
	headersTbl, _ := opts.RawGetString("headers").(*lua.LTable)
	headers := tableToHeaders(headersTbl)

	var cacheKey string
	if shouldCache {
		cacheKey = cache.GenerateKey(url+reqBody, method)
		var entry tlsResponse
		if cache.Read(cacheKey, &entry) {
			L.Push(entry.toTable(L))
			return 1
		}
	}

	resp, err := doTLSRequest(stateContext(L), method, url, headers, reqBody)
	if err != nil {
		L.RaiseError("http_tls.request failed: %s", err.Error())
		return 0
	}

	if shouldCache && resp.Status == http.StatusOK {
		if err := cache.Write(cacheKey, resp); err != nil {
			log.Debugf("http_tls: cache %s: %v", url, err)
		}
	}

	L.Push(resp.toTable(L))
	return 1
}

func getStringField(tbl *lua.LTable, key string, def string) string {
	val := tbl.RawGetString(key)
	if val == lua.LNil {
		return def
	}
	return val.String()
}

var (
	h2Transport     *http2.Transport
	h2TransportOnce sync.Once
)

func getH2Transport() *http2.Transport {
	h2TransportOnce.Do(func() {
		h2Transport = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialTLS(ctx, network, addr, nil)
			},
		}
	})
	return h2Transport
}

var h1Transport = &http.Transport{
	DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialTLS(ctx, network, addr, []string{"http/1.1"})
	},
}

func newTLSRequest(ctx context.Context, method, rawURL string, headers map[string]string, body string) (*http.Request, error) {
	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", browserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// doTLSRequest tries the h2 transport and retries once over HTTP/1.1 when it fails.
// Plain http:// URLs skip the fingerprinting transports entirely.
func doTLSRequest(ctx context.Context, method, rawURL string, headers map[string]string, body string) (tlsResponse, error) {
	req, err := newTLSRequest(ctx, method, rawURL, headers, body)
	if err != nil {
		return tlsResponse{}, err
	}

	var resp *http.Response
	if req.URL.Scheme == "http" {
		resp, err = (&http.Client{Timeout: httpTimeout}).Do(req)
	} else {
		resp, err = (&http.Client{Timeout: httpTimeout, Transport: getH2Transport()}).Do(req)
		if err != nil && ctx.Err() == nil {
			req, err = newTLSRequest(ctx, method, rawURL, headers, body)
			if err != nil {
				return tlsResponse{}, err
			}
			resp, err = (&http.Client{Timeout: httpTimeout, Transport: h1Transport}).Do(req)
		}
	}
	if err != nil {
		return tlsResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxTLSBodySize))
	if err != nil {
		return tlsResponse{Status: resp.StatusCode}, fmt.Errorf("read body: %w", err)
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}

	return tlsResponse{Status: resp.StatusCode, Body: string(respBody), Headers: respHeaders}, nil
}

// dialTLS opens a connection presenting Chrome 120's ClientHello. nextProtos restricts ALPN.
func dialTLS(ctx context.Context, network, addr string, nextProtos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: httpTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: nextProtos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}

package translate

import (
	"compress/gzip"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/http2"
)

// makeHTTPClient returns a client whose transport speaks HTTP/2 through
// x/net, so stream resets surface as typed http2 errors (see IsTransient).
func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	// Support both --proxy flag and HTTP_PROXY/HTTPS_PROXY env vars
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	if h2, err := http2.ConfigureTransports(transport); err == nil {
		// Ping idle connections so a silently dropped one fails fast
		// instead of eating the keystroke's whole timeout.
		h2.ReadIdleTimeout = 15 * time.Second
		h2.PingTimeout = 5 * time.Second
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// readBody reads a response body, decoding the Content-Encoding we
// advertised ourselves (setting Accept-Encoding disables the transport's
// transparent gzip handling).
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("decoding gzip body: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

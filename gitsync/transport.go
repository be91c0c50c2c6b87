package gitsync

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-git/go-git/v5/plumbing/transport/client"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// byteCounter accumulates the response bytes of the requests it is attached
// to through the request context.
type byteCounter struct {
	n        atomic.Int64
	onChange func(total int64)
}

func (c *byteCounter) add(n int) {
	if n <= 0 {
		return
	}
	total := c.n.Add(int64(n))
	if c.onChange != nil {
		c.onChange(total)
	}
}

// Load returns the bytes counted so far.
func (c *byteCounter) Load() int64 { return c.n.Load() }

type counterKey struct{}

func withByteCounter(ctx context.Context, c *byteCounter) context.Context {
	return context.WithValue(ctx, counterKey{}, c)
}

// countingTransport wraps response bodies of requests whose context carries a
// byteCounter. Requests without one pass through untouched.
type countingTransport struct {
	base http.RoundTripper
}

func (t countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if c, ok := req.Context().Value(counterKey{}).(*byteCounter); ok && resp.Body != nil {
		resp.Body = &countingBody{ReadCloser: resp.Body, c: c}
	}
	return resp, nil
}

type countingBody struct {
	io.ReadCloser
	c *byteCounter
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.c.add(n)
	return n, err
}

var installOnce sync.Once

// installCountingTransport replaces go-git's http(s) transports with one
// backed by a counting client. The proxy comes from the environment, the
// same way git itself resolves it.
func installCountingTransport() {
	installOnce.Do(func() {
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.Proxy = http.ProxyFromEnvironment
		c := &http.Client{Transport: countingTransport{base: base}}
		client.InstallProtocol("https", githttp.NewClient(c))
		client.InstallProtocol("http", githttp.NewClient(c))
	})
}

package whep

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const contentTypeSDP = "application/sdp"

// Request is the option set for one HTTP exchange. It is built per call and
// never shared between requests.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is what a Transport hands back. The caller owns Body and must
// close it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Transport performs a single HTTP exchange.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// HTTPTransport is the default Transport, backed by a resty client.
type HTTPTransport struct {
	client *resty.Client
}

// NewHTTPTransport creates a transport with the given overall request timeout.
// A zero timeout leaves cancellation to the caller's context.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	c := resty.New().
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &HTTPTransport{client: c}
}

// NewHTTPTransportWithClient wraps an existing resty client.
func NewHTTPTransportWithClient(c *resty.Client) *HTTPTransport {
	return &HTTPTransport{client: c}
}

// Do executes req without buffering the response body.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	r := t.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	for k, vs := range req.Header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			resp.RawBody().Close()
		}
		return nil, err
	}

	body := resp.RawBody()
	if body == nil {
		body = http.NoBody
	}
	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       body,
	}, nil
}

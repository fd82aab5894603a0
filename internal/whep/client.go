package whep

import (
	"context"

	"go.uber.org/zap"
)

// Peer is the WebRTC engine handle borrowed for one session.
type Peer interface {
	// CreateOffer returns the SDP text of a new offer.
	CreateOffer(ctx context.Context) (string, error)
	// SetLocalDescription commits the last created description of kind t.
	SetLocalDescription(ctx context.Context, t SDPType) error
	// SetRemoteDescription applies sdp as the remote description of kind t.
	SetRemoteDescription(ctx context.Context, sdp string, t SDPType) error
}

// LocalDescriber is implemented by engines whose local description changes
// during the local commit, e.g. once ICE candidates have been gathered.
type LocalDescriber interface {
	LocalDescription() string
}

// Client runs the offer/answer exchange and the teardown request. It keeps no
// per-session state and may be shared between goroutines as long as each
// call gets its own Peer.
type Client struct {
	transport      Transport
	logger         *zap.Logger
	maxSDPSize     int
	requireLocator bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxSDPSize overrides DefaultMaxSDPSize for both offer and answer.
func WithMaxSDPSize(n int) Option {
	return func(c *Client) { c.maxSDPSize = n }
}

// WithRequireLocator turns a missing Location header into a
// KindMissingLocator error instead of a warning.
func WithRequireLocator(require bool) Option {
	return func(c *Client) { c.requireLocator = require }
}

// NewClient creates a Client. A nil transport uses NewHTTPTransport(0).
func NewClient(t Transport, opts ...Option) *Client {
	if t == nil {
		t = NewHTTPTransport(0)
	}
	c := &Client{
		transport:  t,
		logger:     zap.NewNop(),
		maxSDPSize: DefaultMaxSDPSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

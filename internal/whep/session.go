package whep

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Session is the result of a successful Establish.
type Session struct {
	client *Client
	token  string

	// Endpoint is the normalized URL the offer was posted to.
	Endpoint string
	// Locator identifies the server-side session resource. Empty when the
	// server sent no Location header; such a session cannot be torn down.
	Locator string

	closeOnce sync.Once
}

// HasLocator reports whether the session can be explicitly terminated.
func (s *Session) HasLocator() bool { return s.Locator != "" }

// Terminate issues the DELETE for this session's locator.
func (s *Session) Terminate(ctx context.Context) error {
	return s.client.Terminate(ctx, s.Locator, s.token)
}

// Close releases the server-side resource at most once. Failures are logged
// and swallowed; the media already exchanged stays valid either way.
func (s *Session) Close(ctx context.Context) {
	s.closeOnce.Do(func() {
		if !s.HasLocator() {
			s.client.logger.Info("no session URL, skipping teardown", zap.String("endpoint", s.Endpoint))
			return
		}
		if err := s.Terminate(ctx); err != nil {
			s.client.logger.Warn("session teardown failed", zap.String("sessionURL", s.Locator), zap.Error(err))
		}
	})
}

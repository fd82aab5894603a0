package whep

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/RenatoCabral2022/whipwhep/internal/metrics"
)

// Terminate releases the server-side session at locator with a DELETE. An
// empty locator fails with KindInvalidArgument before any request is made.
// Transport failures come back as KindTransport; callers should log them and
// move on, since the server may already have expired the resource.
func (c *Client) Terminate(ctx context.Context, locator, token string) (err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = KindOf(err).String()
		}
		metrics.TerminateTotal.WithLabelValues(outcome).Inc()
	}()

	if locator == "" {
		c.logger.Error("no session URL provided")
		return newError(opTerminate, KindInvalidArgument, nil, "no session URL to terminate")
	}
	target, err := normalizeURL(opTerminate, locator)
	if err != nil {
		c.logger.Error("unsupported URL scheme", zap.String("sessionURL", locator))
		return err
	}
	logger := c.logger.With(zap.String("sessionURL", target))

	req := &Request{
		Method: http.MethodDelete,
		URL:    target,
		Header: make(http.Header),
	}
	AttachBearer(req.Header, token)

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		logger.Warn("failed to delete session", zap.Error(err))
		return newError(opTerminate, KindTransport, err, "delete %s", target)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySnippet))
		logger.Warn("failed to delete session", zap.Int("status", resp.StatusCode))
		e := newError(opTerminate, KindTransport, nil, "endpoint refused delete: %s", snippet)
		e.StatusCode = resp.StatusCode
		return e
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, errorBodySnippet))

	logger.Info("session deleted")
	return nil
}

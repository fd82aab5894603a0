package whep

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pion/sdp/v3"
	"go.uber.org/zap"

	"github.com/RenatoCabral2022/whipwhep/internal/metrics"
)

const (
	opEstablish = "establish"
	opTerminate = "terminate"

	// errorBodySnippet caps how much of a failed response body is kept for diagnostics.
	errorBodySnippet = 512
)

// Establish runs one offer/answer exchange against rawURL. The local
// description is committed before the offer is sent; the remote description
// only after a successful HTTP exchange. A response without a Location header
// still yields a usable Session whose Locator is empty.
func (c *Client) Establish(ctx context.Context, pc Peer, rawURL, token string) (sess *Session, err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = KindOf(err).String()
		}
		metrics.EstablishTotal.WithLabelValues(outcome).Inc()
		metrics.EstablishDuration.Observe(time.Since(start).Seconds())
	}()

	endpoint, err := normalizeURL(opEstablish, rawURL)
	if err != nil {
		c.logger.Error("unsupported URL scheme", zap.String("url", rawURL))
		return nil, err
	}
	if c.maxSDPSize <= 0 {
		return nil, newError(opEstablish, KindAllocation, nil, "cannot size SDP buffer of %d bytes", c.maxSDPSize)
	}
	logger := c.logger.With(zap.String("endpoint", endpoint))
	logger.Info("starting SDP exchange", zap.String("url", rawURL))

	offer, err := pc.CreateOffer(ctx)
	if err != nil {
		logger.Error("failed to create offer", zap.Error(err))
		return nil, newError(opEstablish, KindEngine, err, "create offer")
	}
	if err := c.checkOfferSize(offer); err != nil {
		return nil, err
	}
	logger.Debug("generated offer", zap.String("sdp", offer))

	if err := pc.SetLocalDescription(ctx, SDPTypeOffer); err != nil {
		logger.Error("failed to set local description", zap.Error(err))
		return nil, newError(opEstablish, KindEngine, err, "set local description")
	}
	if ld, ok := pc.(LocalDescriber); ok {
		if gathered := ld.LocalDescription(); gathered != "" {
			offer = gathered
			if err := c.checkOfferSize(offer); err != nil {
				return nil, err
			}
		}
	}
	metrics.SDPBytes.WithLabelValues("offer").Observe(float64(len(offer)))

	req := &Request{
		Method: http.MethodPost,
		URL:    endpoint,
		Header: make(http.Header),
		Body:   []byte(EncodeOffer(offer)),
	}
	req.Header.Set("Content-Type", contentTypeSDP)
	AttachBearer(req.Header, token)

	logger.Info("sending SDP offer", zap.Int("offerBytes", len(offer)))
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		logger.Error("failed to send offer", zap.Error(err))
		return nil, newError(opEstablish, KindTransport, err, "send offer to %s", endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodySnippet))
		logger.Error("endpoint rejected offer",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		e := newError(opEstablish, KindTransport, nil, "endpoint rejected offer: %s", snippet)
		e.StatusCode = resp.StatusCode
		return nil, e
	}

	answer, truncated, err := readBlob(resp.Body, c.maxSDPSize)
	if err != nil {
		logger.Error("failed to read answer", zap.Error(err))
		return nil, newError(opEstablish, KindTransport, err, "read answer")
	}
	if answer == "" {
		logger.Error("no data received from server")
		return nil, newError(opEstablish, KindEmptyResponse, nil, "endpoint returned an empty answer")
	}
	if truncated {
		metrics.TruncatedAnswersTotal.Inc()
		logger.Warn("answer exceeds SDP bound, truncated", zap.Int("maxBytes", c.maxSDPSize))
	}
	metrics.SDPBytes.WithLabelValues("answer").Observe(float64(len(answer)))
	logger.Info("received answer", zap.Int("answerBytes", len(answer)), zap.Int("mediaSections", mediaSections(answer)))
	logger.Debug("answer text", zap.String("sdp", answer))

	if err := pc.SetRemoteDescription(ctx, answer, SDPTypeAnswer); err != nil {
		logger.Error("failed to set remote description", zap.String("sdp", answer), zap.Error(err))
		return nil, newError(opEstablish, KindEngine, err, "set remote description: %s", answer)
	}

	sess = &Session{
		client:   c,
		Endpoint: endpoint,
		token:    token,
	}

	location := resp.Header.Get("Location")
	if location == "" {
		metrics.MissingLocatorTotal.Inc()
		if c.requireLocator {
			logger.Error("endpoint returned no session URL")
			return nil, newError(opEstablish, KindMissingLocator, nil, "response from %s has no Location header", endpoint)
		}
		logger.Warn("failed to get session URL, teardown will be unavailable")
		return sess, nil
	}
	locator, err := resolveLocator(endpoint, location)
	if err != nil {
		logger.Warn("unparseable session URL, keeping it verbatim", zap.String("location", location), zap.Error(err))
		locator = location
	}
	sess.Locator = locator
	logger.Info("session established", zap.String("sessionURL", locator))
	return sess, nil
}

func (c *Client) checkOfferSize(offer string) error {
	if len(offer) > c.maxSDPSize {
		return newError(opEstablish, KindEngine, nil, "offer of %d bytes exceeds the %d-byte SDP bound", len(offer), c.maxSDPSize)
	}
	return nil
}

// mediaSections counts m= lines, or -1 when the text is not parseable SDP.
func mediaSections(text string) int {
	var desc sdp.SessionDescription
	if err := desc.Unmarshal([]byte(text)); err != nil {
		return -1
	}
	return len(desc.MediaDescriptions)
}

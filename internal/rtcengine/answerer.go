package rtcengine

import (
	"context"
	"io"
	"time"

	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"

	"github.com/RenatoCabral2022/whipwhep/internal/metrics"
)

// Answerer turns remote offers into gathered answers, one peer connection
// per offer.
type Answerer struct {
	api           *webrtc.API
	iceServers    []string
	gatherTimeout time.Duration
	logger        *zap.Logger
}

// NewAnswerer creates an Answerer on api.
func NewAnswerer(api *webrtc.API, iceServers []string, gatherTimeout time.Duration, logger *zap.Logger) *Answerer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Answerer{
		api:           api,
		iceServers:    iceServers,
		gatherTimeout: gatherTimeout,
		logger:        logger,
	}
}

// Answer creates a peer connection for offer. The returned closer releases
// it; on error nothing needs closing.
func (a *Answerer) Answer(ctx context.Context, offer string) (string, io.Closer, error) {
	p, err := NewPeer(a.api, PeerConfig{
		ICEServers:    a.iceServers,
		GatherTimeout: a.gatherTimeout,
		Packets:       metrics.ServerRTPPacketsTotal,
		Logger:        a.logger,
	})
	if err != nil {
		return "", nil, err
	}
	answer, err := p.Accept(ctx, offer)
	if err != nil {
		p.Close()
		return "", nil, err
	}
	return answer, p, nil
}

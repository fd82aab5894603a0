package rtcengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/RenatoCabral2022/whipwhep/internal/whep"
)

// DefaultGatherTimeout bounds ICE gathering during a local commit.
const DefaultGatherTimeout = 10 * time.Second

var errNoPendingOffer = errors.New("no offer has been created")

// PeerConfig configures a Peer.
type PeerConfig struct {
	ICEServers    []string
	GatherTimeout time.Duration
	// Direction of the audio and video transceivers added up front: recvonly
	// for WHEP playback, sendonly for WHIP ingest. Leave it unset on the
	// answering side, where transceivers come from the remote offer.
	Direction webrtc.RTPTransceiverDirection
	// Packets counts RTP packets drained from remote tracks. Optional.
	Packets prometheus.Counter
	Logger  *zap.Logger
}

// Peer is a pion PeerConnection shaped as a whep.Peer. It waits for ICE
// gathering during the local commit, so the offer sent over HTTP carries
// every candidate.
type Peer struct {
	pc            *webrtc.PeerConnection
	logger        *zap.Logger
	gatherTimeout time.Duration
	packets       prometheus.Counter

	mu      sync.Mutex
	pending *webrtc.SessionDescription
	// closed stops new drain goroutines once Close has started.
	closed bool

	drains sync.WaitGroup
}

var (
	_ whep.Peer           = (*Peer)(nil)
	_ whep.LocalDescriber = (*Peer)(nil)
)

// NewPeer creates a peer connection on api.
func NewPeer(api *webrtc.API, cfg PeerConfig) (*Peer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherTimeout := cfg.GatherTimeout
	if gatherTimeout <= 0 {
		gatherTimeout = DefaultGatherTimeout
	}

	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers: ICEServers(cfg.ICEServers),
	})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	p := &Peer{
		pc:            pc,
		logger:        logger,
		gatherTimeout: gatherTimeout,
		packets:       cfg.Packets,
	}

	if cfg.Direction != webrtc.RTPTransceiverDirectionUnknown {
		for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
			if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{Direction: cfg.Direction}); err != nil {
				pc.Close()
				return nil, fmt.Errorf("add %s transceiver: %w", kind, err)
			}
		}
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		logger.Info("inbound track",
			zap.String("kind", track.Kind().String()),
			zap.String("codec", track.Codec().MimeType),
			zap.Uint8("pt", uint8(track.PayloadType())),
		)
		if !p.trackDrain() {
			return
		}
		go p.drain(track)
	})
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logger.Info("connection state", zap.String("state", state.String()))
	})

	return p, nil
}

// CreateOffer implements whep.Peer.
func (p *Peer) CreateOffer(ctx context.Context) (string, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	p.pending = &offer
	p.mu.Unlock()
	return offer.SDP, nil
}

// SetLocalDescription implements whep.Peer. Only offers are committed here;
// the answering side goes through Accept.
func (p *Peer) SetLocalDescription(ctx context.Context, t whep.SDPType) error {
	if t != whep.SDPTypeOffer {
		return fmt.Errorf("unsupported local description type %q", t)
	}
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()
	if pending == nil {
		return errNoPendingOffer
	}
	return p.commitLocal(ctx, *pending)
}

// LocalDescription implements whep.LocalDescriber.
func (p *Peer) LocalDescription() string {
	if ld := p.pc.LocalDescription(); ld != nil {
		return ld.SDP
	}
	return ""
}

// SetRemoteDescription implements whep.Peer.
func (p *Peer) SetRemoteDescription(ctx context.Context, sdp string, t whep.SDPType) error {
	return p.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.NewSDPType(string(t)),
		SDP:  sdp,
	})
}

// Accept applies a remote offer and returns the gathered answer.
func (p *Peer) Accept(ctx context.Context, offer string) (string, error) {
	if err := p.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offer,
	}); err != nil {
		return "", fmt.Errorf("set remote description: %w", err)
	}
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("create answer: %w", err)
	}
	if err := p.commitLocal(ctx, answer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}
	return p.LocalDescription(), nil
}

// Close tears down the peer connection and waits for track readers to exit.
func (p *Peer) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	err := p.pc.Close()
	p.drains.Wait()
	return err
}

func (p *Peer) commitLocal(ctx context.Context, desc webrtc.SessionDescription) error {
	gatherDone := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(desc); err != nil {
		return err
	}
	select {
	case <-gatherDone:
	case <-time.After(p.gatherTimeout):
		p.logger.Warn("ICE gathering timed out, proceeding with partial candidates")
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// trackDrain registers a drain goroutine unless the peer is closing.
func (p *Peer) trackDrain() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.drains.Add(1)
	return true
}

// drain reads and discards RTP so the receiver's buffers never stall.
func (p *Peer) drain(track *webrtc.TrackRemote) {
	defer p.drains.Done()
	for {
		if _, _, err := track.ReadRTP(); err != nil {
			p.logger.Info("inbound track ended", zap.String("kind", track.Kind().String()), zap.Error(err))
			return
		}
		if p.packets != nil {
			p.packets.Inc()
		}
	}
}

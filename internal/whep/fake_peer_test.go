package whep

import (
	"context"
	"errors"
)

// fakePeer records every call made by the client.
type fakePeer struct {
	offer     string
	gathered  string
	offerErr  error
	localErr  error
	remoteErr error

	calls      []string
	remoteSDP  string
	remoteType SDPType
	localType  SDPType
}

func (p *fakePeer) CreateOffer(ctx context.Context) (string, error) {
	p.calls = append(p.calls, "createOffer")
	if p.offerErr != nil {
		return "", p.offerErr
	}
	return p.offer, nil
}

func (p *fakePeer) SetLocalDescription(ctx context.Context, t SDPType) error {
	p.calls = append(p.calls, "setLocal")
	p.localType = t
	return p.localErr
}

func (p *fakePeer) SetRemoteDescription(ctx context.Context, sdp string, t SDPType) error {
	p.calls = append(p.calls, "setRemote")
	p.remoteSDP = sdp
	p.remoteType = t
	return p.remoteErr
}

// gatheringPeer adds the LocalDescriber upgrade.
type gatheringPeer struct {
	*fakePeer
}

func (p gatheringPeer) LocalDescription() string { return p.gathered }

var errEngine = errors.New("engine not ready")

const (
	testOffer  = "v=0\r\no=- 1 1 IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\nm=video 9 UDP/TLS/RTP/SAVPF 96\r\nc=IN IP4 0.0.0.0\r\na=recvonly\r\n"
	testAnswer = "v=0\r\no=- 2 1 IN IP4 127.0.0.1\r\ns=answer\r\nt=0 0\r\nm=video 9 UDP/TLS/RTP/SAVPF 96\r\nc=IN IP4 0.0.0.0\r\na=sendonly\r\n"
)

package whep

import (
	"encoding/hex"
	"io"
	"strings"
)

// DefaultMaxSDPSize bounds an offer or answer in bytes, per direction.
const DefaultMaxSDPSize = 4096

// SDPType is the description kind committed on a Peer.
type SDPType string

const (
	SDPTypeOffer  SDPType = "offer"
	SDPTypeAnswer SDPType = "answer"
)

// EncodeOffer hex-encodes raw SDP text for the request body, upper case.
func EncodeOffer(sdp string) string {
	return strings.ToUpper(hex.EncodeToString([]byte(sdp)))
}

// DecodeOffer reverses EncodeOffer. Either case is accepted.
func DecodeOffer(payload string) (string, error) {
	b, err := hex.DecodeString(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readBlob reads at most max bytes of SDP text from r. truncated reports
// whether r held more than max bytes; the extra bytes are dropped.
func readBlob(r io.Reader, max int) (text string, truncated bool, err error) {
	buf, err := io.ReadAll(io.LimitReader(r, int64(max)+1))
	if err != nil {
		return "", false, err
	}
	if len(buf) > max {
		return string(buf[:max]), true, nil
	}
	return string(buf), false, nil
}

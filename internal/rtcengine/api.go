package rtcengine

import (
	"fmt"

	"github.com/pion/interceptor"
	"github.com/pion/interceptor/pkg/intervalpli"
	"github.com/pion/interceptor/pkg/nack"
	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"
)

// NewAPI builds a pion API with the default codecs, NACK and periodic PLI
// interceptors, and engine logs bridged into logger. The default video codecs
// already advertise nack and nack pli feedback.
func NewAPI(logger *zap.Logger) (*webrtc.API, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register default codecs: %w", err)
	}

	ir := &interceptor.Registry{}
	responder, err := nack.NewResponderInterceptor()
	if err != nil {
		return nil, fmt.Errorf("create nack responder: %w", err)
	}
	ir.Add(responder)
	generator, err := nack.NewGeneratorInterceptor()
	if err != nil {
		return nil, fmt.Errorf("create nack generator: %w", err)
	}
	ir.Add(generator)
	pli, err := intervalpli.NewReceiverInterceptor()
	if err != nil {
		return nil, fmt.Errorf("create pli interceptor: %w", err)
	}
	ir.Add(pli)

	se := webrtc.SettingEngine{
		LoggerFactory: NewLoggerFactory(logger),
	}

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(ir),
		webrtc.WithSettingEngine(se),
	), nil
}

// ICEServers turns STUN/TURN URLs into a pion configuration entry.
func ICEServers(urls []string) []webrtc.ICEServer {
	if len(urls) == 0 {
		return nil
	}
	out := make([]string, len(urls))
	copy(out, urls)
	return []webrtc.ICEServer{{URLs: out}}
}

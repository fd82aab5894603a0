package whep

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// endpoint is a scripted WHEP server that records what it received.
type endpoint struct {
	status   int
	answer   string
	location string

	hits atomic.Int32

	mu          sync.Mutex
	method      string
	path        string
	contentType string
	auth        []string
	body        string
}

func (e *endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.hits.Add(1)
	b, _ := io.ReadAll(r.Body)
	e.mu.Lock()
	e.method = r.Method
	e.path = r.URL.Path
	e.contentType = r.Header.Get("Content-Type")
	e.auth = r.Header.Values("Authorization")
	e.body = string(b)
	e.mu.Unlock()

	if e.location != "" {
		w.Header().Set("Location", e.location)
	}
	w.Header().Set("Content-Type", "application/sdp")
	status := e.status
	if status == 0 {
		status = http.StatusCreated
	}
	w.WriteHeader(status)
	io.WriteString(w, e.answer)
}

func newTestClient(opts ...Option) *Client {
	return NewClient(NewHTTPTransport(0), opts...)
}

// whepURL turns an httptest URL into its whep:// spelling.
func whepURL(srv *httptest.Server, path string) string {
	return "whep://" + strings.TrimPrefix(srv.URL, "http://") + path
}

func TestEstablishEndToEnd(t *testing.T) {
	ep := &endpoint{status: http.StatusOK, answer: testAnswer}
	srv := httptest.NewServer(ep)
	defer srv.Close()
	ep.location = srv.URL + "/endpoint/sessions/42"

	pc := &fakePeer{offer: testOffer}
	sess, err := newTestClient().Establish(context.Background(), pc, whepURL(srv, "/endpoint"), "")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/endpoint", sess.Endpoint)
	assert.Equal(t, srv.URL+"/endpoint/sessions/42", sess.Locator)
	assert.True(t, sess.HasLocator())

	ep.mu.Lock()
	defer ep.mu.Unlock()
	assert.Equal(t, http.MethodPost, ep.method)
	assert.Equal(t, "/endpoint", ep.path)
	assert.Equal(t, "application/sdp", ep.contentType)
	assert.Empty(t, ep.auth)
	decoded, err := DecodeOffer(ep.body)
	require.NoError(t, err)
	assert.Equal(t, testOffer, decoded)

	assert.Equal(t, []string{"createOffer", "setLocal", "setRemote"}, pc.calls)
	assert.Equal(t, SDPTypeOffer, pc.localType)
	assert.Equal(t, SDPTypeAnswer, pc.remoteType)
	assert.Equal(t, testAnswer, pc.remoteSDP)
}

func TestEstablishWithoutLocator(t *testing.T) {
	ep := &endpoint{status: http.StatusOK, answer: testAnswer}
	srv := httptest.NewServer(ep)
	defer srv.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	client := newTestClient(WithLogger(zap.New(core)))

	pc := &fakePeer{offer: testOffer}
	sess, err := client.Establish(context.Background(), pc, whepURL(srv, "/endpoint"), "")
	require.NoError(t, err)
	assert.Empty(t, sess.Locator)
	assert.False(t, sess.HasLocator())
	assert.Equal(t, testAnswer, pc.remoteSDP)
	assert.Equal(t, 1, logs.FilterMessageSnippet("session URL").Len())

	hits := ep.hits.Load()
	err = client.Terminate(context.Background(), sess.Locator, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, hits, ep.hits.Load())
}

func TestEstablishRequireLocator(t *testing.T) {
	ep := &endpoint{answer: testAnswer}
	srv := httptest.NewServer(ep)
	defer srv.Close()

	pc := &fakePeer{offer: testOffer}
	_, err := newTestClient(WithRequireLocator(true)).Establish(context.Background(), pc, srv.URL, "")
	assert.ErrorIs(t, err, ErrMissingLocator)
	// The remote description was already committed; the failure comes after.
	assert.Equal(t, []string{"createOffer", "setLocal", "setRemote"}, pc.calls)
}

func TestEstablishRelativeLocator(t *testing.T) {
	ep := &endpoint{answer: testAnswer, location: "/whep/live/sessions/abc"}
	srv := httptest.NewServer(ep)
	defer srv.Close()

	sess, err := newTestClient().Establish(context.Background(), &fakePeer{offer: testOffer}, srv.URL+"/whep/live", "")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/whep/live/sessions/abc", sess.Locator)
}

func TestEstablishSendsSingleBearerHeader(t *testing.T) {
	ep := &endpoint{answer: testAnswer, location: "/s/1"}
	srv := httptest.NewServer(ep)
	defer srv.Close()

	_, err := newTestClient().Establish(context.Background(), &fakePeer{offer: testOffer}, srv.URL, "tok-123")
	require.NoError(t, err)
	ep.mu.Lock()
	defer ep.mu.Unlock()
	assert.Equal(t, []string{"Bearer tok-123"}, ep.auth)
}

func TestEstablishUnsupportedSchemeMakesNoCalls(t *testing.T) {
	ep := &endpoint{answer: testAnswer}
	srv := httptest.NewServer(ep)
	defer srv.Close()

	pc := &fakePeer{offer: testOffer}
	_, err := newTestClient().Establish(context.Background(), pc, "rtmp://"+strings.TrimPrefix(srv.URL, "http://"), "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, pc.calls)
	assert.Zero(t, ep.hits.Load())
}

func TestEstablishEmptyResponse(t *testing.T) {
	ep := &endpoint{status: http.StatusOK, location: "/s/1"}
	srv := httptest.NewServer(ep)
	defer srv.Close()

	pc := &fakePeer{offer: testOffer}
	_, err := newTestClient().Establish(context.Background(), pc, srv.URL, "")
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, []string{"createOffer", "setLocal"}, pc.calls)
}

func TestEstablishNon2xxIsTransportError(t *testing.T) {
	ep := &endpoint{status: http.StatusUnauthorized, answer: "missing token"}
	srv := httptest.NewServer(ep)
	defer srv.Close()

	pc := &fakePeer{offer: testOffer}
	_, err := newTestClient().Establish(context.Background(), pc, srv.URL, "")
	require.ErrorIs(t, err, ErrTransport)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusUnauthorized, e.StatusCode)
	assert.Contains(t, e.Msg, "missing token")
	assert.NotContains(t, pc.calls, "setRemote")
}

func TestEstablishConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	pc := &fakePeer{offer: testOffer}
	_, err := newTestClient().Establish(context.Background(), pc, url, "")
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, []string{"createOffer", "setLocal"}, pc.calls)
}

func TestEstablishEngineFailures(t *testing.T) {
	ep := &endpoint{answer: testAnswer}
	srv := httptest.NewServer(ep)
	defer srv.Close()

	t.Run("create offer", func(t *testing.T) {
		pc := &fakePeer{offerErr: errEngine}
		_, err := newTestClient().Establish(context.Background(), pc, srv.URL, "")
		assert.ErrorIs(t, err, ErrEngine)
		assert.ErrorIs(t, err, errEngine)
	})

	t.Run("set local", func(t *testing.T) {
		before := ep.hits.Load()
		pc := &fakePeer{offer: testOffer, localErr: errEngine}
		_, err := newTestClient().Establish(context.Background(), pc, srv.URL, "")
		assert.ErrorIs(t, err, ErrEngine)
		assert.Equal(t, before, ep.hits.Load(), "offer must not be sent before the local commit succeeds")
	})

	t.Run("set remote", func(t *testing.T) {
		pc := &fakePeer{offer: testOffer, remoteErr: errEngine}
		_, err := newTestClient().Establish(context.Background(), pc, srv.URL, "")
		require.ErrorIs(t, err, ErrEngine)
		assert.Contains(t, err.Error(), testAnswer)
	})
}

func TestEstablishOfferOverBound(t *testing.T) {
	ep := &endpoint{answer: testAnswer}
	srv := httptest.NewServer(ep)
	defer srv.Close()

	pc := &fakePeer{offer: strings.Repeat("a", 65)}
	_, err := newTestClient(WithMaxSDPSize(64)).Establish(context.Background(), pc, srv.URL, "")
	assert.ErrorIs(t, err, ErrEngine)
	assert.Zero(t, ep.hits.Load())
}

func TestEstablishAnswerTruncatedToBound(t *testing.T) {
	long := testAnswer + strings.Repeat("a=pad\r\n", 100)
	ep := &endpoint{answer: long, location: "/s/1"}
	srv := httptest.NewServer(ep)
	defer srv.Close()

	pc := &fakePeer{offer: testOffer}
	_, err := newTestClient(WithMaxSDPSize(256)).Establish(context.Background(), pc, srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, long[:256], pc.remoteSDP)
}

func TestEstablishNonPositiveBound(t *testing.T) {
	pc := &fakePeer{offer: testOffer}
	_, err := newTestClient(WithMaxSDPSize(0)).Establish(context.Background(), pc, "http://127.0.0.1:1/x", "")
	assert.ErrorIs(t, err, ErrAllocation)
	assert.Empty(t, pc.calls)
}

func TestEstablishSendsGatheredOffer(t *testing.T) {
	ep := &endpoint{answer: testAnswer, location: "/s/1"}
	srv := httptest.NewServer(ep)
	defer srv.Close()

	gathered := testOffer + "a=candidate:1 1 udp 2130706431 10.0.0.1 50000 typ host\r\n"
	pc := gatheringPeer{&fakePeer{offer: testOffer, gathered: gathered}}
	_, err := newTestClient().Establish(context.Background(), pc, srv.URL, "")
	require.NoError(t, err)

	ep.mu.Lock()
	defer ep.mu.Unlock()
	decoded, err := DecodeOffer(ep.body)
	require.NoError(t, err)
	assert.Equal(t, gathered, decoded)
}

func TestMediaSections(t *testing.T) {
	assert.Equal(t, 1, mediaSections(testAnswer))
	assert.Equal(t, -1, mediaSections("not sdp"))
}

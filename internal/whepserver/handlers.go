package whepserver

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pion/sdp/v3"
	"go.uber.org/zap"

	"github.com/RenatoCabral2022/whipwhep/internal/metrics"
	"github.com/RenatoCabral2022/whipwhep/internal/whep"
)

const contentTypeSDP = "application/sdp"

// CreateSession handles POST {base}/{stream}.
// The body is an SDP offer, hex-encoded or raw. The answer is returned with
// the session resource URL in the Location header.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	stream := chi.URLParam(r, "stream")
	log := s.logger.With(zap.String("stream", stream))

	// Hex doubles the size of the offer on the wire.
	r.Body = http.MaxBytesReader(w, r.Body, int64(2*s.cfg.MaxSDPBytes))
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(w, "too_large", `{"error":"offer too large"}`, http.StatusRequestEntityTooLarge)
			return
		}
		s.reject(w, "bad_request", `{"error":"failed to read body"}`, http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		s.reject(w, "bad_request", `{"error":"empty offer"}`, http.StatusBadRequest)
		return
	}

	offer := decodeOffer(body)
	if len(offer) > s.cfg.MaxSDPBytes {
		s.reject(w, "too_large", `{"error":"offer too large"}`, http.StatusRequestEntityTooLarge)
		return
	}
	var desc sdp.SessionDescription
	if err := desc.Unmarshal([]byte(offer)); err != nil {
		log.Debug("invalid offer", zap.Error(err))
		s.reject(w, "bad_request", `{"error":"invalid SDP offer"}`, http.StatusBadRequest)
		return
	}

	if s.SessionCount() >= s.cfg.MaxSessions {
		s.reject(w, "capacity", `{"error":"session limit reached"}`, http.StatusServiceUnavailable)
		return
	}

	answer, peer, err := s.answerer.Answer(r.Context(), offer)
	if err != nil {
		log.Error("answer offer", zap.Error(err))
		s.reject(w, "answer", `{"error":"failed to answer offer"}`, http.StatusInternalServerError)
		return
	}

	sess := newSession(uuid.New().String(), stream, peer)
	if !s.add(sess) {
		if err := sess.Stop(); err != nil {
			log.Warn("close rejected session", zap.Error(err))
		}
		s.reject(w, "capacity", `{"error":"session limit reached"}`, http.StatusServiceUnavailable)
		return
	}
	log.Info("session created",
		zap.String("session", sess.ID),
		zap.Int("mediaSections", len(desc.MediaDescriptions)),
	)

	w.Header().Set("Content-Type", contentTypeSDP)
	w.Header().Set("Location", s.locationFor(sess))
	w.WriteHeader(http.StatusCreated)
	io.WriteString(w, answer)
}

// DeleteSession handles DELETE {base}/{stream}/sessions/{sessionId}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	stream := chi.URLParam(r, "stream")
	sessionID := chi.URLParam(r, "sessionId")

	sess, ok := s.remove(stream, sessionID)
	if !ok {
		http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
		return
	}
	if err := sess.Stop(); err != nil {
		s.logger.Warn("close session", zap.String("session", sessionID), zap.Error(err))
	}
	s.logger.Info("session deleted",
		zap.String("stream", stream),
		zap.String("session", sessionID),
	)
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) reject(w http.ResponseWriter, reason, body string, status int) {
	metrics.SessionsRejectedTotal.WithLabelValues(reason).Inc()
	http.Error(w, body, status)
}

// decodeOffer accepts the hex encoding clients send and falls back to raw
// SDP for browsers and other standard clients.
func decodeOffer(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if decoded, err := whep.DecodeOffer(trimmed); err == nil && decoded != "" {
		return decoded
	}
	return string(body)
}

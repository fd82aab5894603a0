package whepserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/RenatoCabral2022/whipwhep/internal/config"
	"github.com/RenatoCabral2022/whipwhep/internal/metrics"
)

// Answerer produces an SDP answer for a remote offer. The closer releases
// the peer connection behind it.
type Answerer interface {
	Answer(ctx context.Context, offer string) (string, io.Closer, error)
}

// Server is a WHIP/WHEP endpoint: it answers offers and tracks the session
// resources it hands out until they are deleted.
type Server struct {
	cfg      *config.Server
	answerer Answerer
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// New creates a Server.
func New(cfg *config.Server, answerer Answerer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		answerer: answerer,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// SessionCount returns the current number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Handler returns the HTTP routes:
//
//	POST   {base}/{stream}                    offer in, answer out
//	DELETE {base}/{stream}/sessions/{id}      release a session
//	GET    /healthz
//	GET    /metrics
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route(s.cfg.BasePath, func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Post("/{stream}", s.CreateSession)
		r.Delete("/{stream}/sessions/{sessionId}", s.DeleteSession)
	})
	return r
}

// Shutdown stops every session.
func (s *Server) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		if err := sess.Stop(); err != nil {
			s.logger.Warn("close session", zap.String("session", sess.ID), zap.Error(err))
		}
		metrics.SessionsDeletedTotal.Inc()
	}
	metrics.ActiveSessions.Set(0)
	s.logger.Info("server shutdown complete", zap.Int("sessions", len(sessions)))
}

func (s *Server) locationFor(sess *session) string {
	return fmt.Sprintf("%s/%s/sessions/%s", s.cfg.BasePath, sess.Stream, sess.ID)
}

// add registers sess unless the cap has been reached in the meantime.
func (s *Server) add(sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		return false
	}
	s.sessions[sess.ID] = sess
	metrics.SessionsCreatedTotal.Inc()
	metrics.ActiveSessions.Inc()
	return true
}

func (s *Server) remove(stream, id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.Stream != stream {
		return nil, false
	}
	delete(s.sessions, id)
	metrics.ActiveSessions.Dec()
	metrics.SessionsDeletedTotal.Inc()
	return sess, true
}

// logRequests logs one line per request with the chi request id.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("requestId", chimw.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

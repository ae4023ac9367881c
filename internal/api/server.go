// Package api exposes the simulator over HTTP: server-sent event streams of
// records and wire frames, single samples, the latest cached frames and a
// websocket feed.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/saviobatista/sensor-sim/internal/ais"
	"github.com/saviobatista/sensor-sim/internal/random"
	"github.com/saviobatista/sensor-sim/internal/redis"
	"github.com/saviobatista/sensor-sim/internal/sensor"
	"github.com/saviobatista/sensor-sim/internal/types"
)

// FrameCache reads frames cached by the publisher.
type FrameCache interface {
	GetLatest(ctx context.Context, dt types.DataType) (*types.Frame, error)
	GetRecent(ctx context.Context, dt types.DataType, n int) ([]*types.Frame, error)
	Ping(ctx context.Context) error
}

// IntervalFunc returns the emission interval for a data type.
type IntervalFunc func(types.DataType) time.Duration

// DefaultRecent is the number of frames /recent returns without a limit.
const DefaultRecent = 10

type Server struct {
	server   *http.Server
	router   *mux.Router
	src      *random.Source
	interval IntervalFunc
	cache    FrameCache
	logger   *zap.Logger

	// cancel ends every open stream on Shutdown.
	cancel context.CancelFunc
}

// NewServer builds the router. cache may be nil, in which case the cache routes
// answer 503.
func NewServer(addr string, src *random.Source, interval IntervalFunc, cache FrameCache, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := mux.NewRouter()
	baseCtx, cancel := context.WithCancel(context.Background())

	s := &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return baseCtx },
		},
		cancel:   cancel,
		router:   router,
		src:      src,
		interval: interval,
		cache:    cache,
		logger:   logger,
	}

	router.Use(s.metricsMiddleware)
	router.Use(s.loggingMiddleware)

	router.HandleFunc("/health", s.healthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/dummy-data").Subrouter()
	api.HandleFunc("/ais/type/{n}", s.streamAisType).Methods("GET")
	api.HandleFunc("/latest/{type}", s.getLatest).Methods("GET")
	api.HandleFunc("/recent/{type}", s.getRecent).Methods("GET")
	api.HandleFunc("/ws/{type}", s.streamWebsocket).Methods("GET")
	api.HandleFunc("/{type:[a-zA-Z]+}-raw/sample", s.getRawSample).Methods("GET")
	api.HandleFunc("/{type:[a-zA-Z]+}/sample", s.getSample).Methods("GET")
	api.HandleFunc("/{type:[a-zA-Z]+}-raw", s.streamRaw).Methods("GET")
	api.HandleFunc("/{type:[a-zA-Z]+}", s.streamRecords).Methods("GET")

	return s
}

// Handler returns the routed handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	s.cancel()
	return s.server.Shutdown(ctx)
}

// dataType resolves the {type} route variable, writing 404 when it is unknown.
func (s *Server) dataType(w http.ResponseWriter, r *http.Request) (types.DataType, bool) {
	dt, err := sensor.ParseDataType(mux.Vars(r)["type"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return "", false
	}
	return dt, true
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if s.cache != nil {
		if err := s.cache.Ping(r.Context()); err != nil {
			s.logger.Error("Health check failed", zap.Error(err))
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	s.writeJSON(w, map[string]string{"status": "healthy"})
}

func (s *Server) getSample(w http.ResponseWriter, r *http.Request) {
	dt, ok := s.dataType(w, r)
	if !ok {
		return
	}
	value, err := s.record(dt)
	if err != nil {
		s.logger.Error("Failed to generate sample", zap.String("data_type", string(dt)), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, value)
}

func (s *Server) getRawSample(w http.ResponseWriter, r *http.Request) {
	dt, ok := s.dataType(w, r)
	if !ok {
		return
	}
	frame, err := sensor.Frame(s.src, dt)
	if err != nil {
		s.logger.Error("Failed to generate raw sample", zap.String("data_type", string(dt)), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(frame.Raw))
}

func (s *Server) getLatest(w http.ResponseWriter, r *http.Request) {
	dt, ok := s.dataType(w, r)
	if !ok {
		return
	}
	if s.cache == nil {
		http.Error(w, "cache not configured", http.StatusServiceUnavailable)
		return
	}

	frame, err := s.cache.GetLatest(r.Context(), dt)
	if errors.Is(err, redis.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Failed to get latest frame", zap.String("data_type", string(dt)), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, frame)
}

func (s *Server) getRecent(w http.ResponseWriter, r *http.Request) {
	dt, ok := s.dataType(w, r)
	if !ok {
		return
	}
	if s.cache == nil {
		http.Error(w, "cache not configured", http.StatusServiceUnavailable)
		return
	}

	limit := DefaultRecent
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	frames, err := s.cache.GetRecent(r.Context(), dt, limit)
	if err != nil {
		s.logger.Error("Failed to get recent frames", zap.String("data_type", string(dt)), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if frames == nil {
		frames = []*types.Frame{}
	}
	s.writeJSON(w, frames)
}

// record generates one record of dt and returns its variant for encoding.
func (s *Server) record(dt types.DataType) (any, error) {
	rec, err := sensor.Generate(s.src, dt)
	if err != nil {
		return nil, err
	}
	return rec.Value()
}

// parseAisType reads the {n} route variable as an AIS message type.
func parseAisType(r *http.Request) (int, error) {
	n, err := strconv.Atoi(mux.Vars(r)["n"])
	if err != nil || n < 1 || n > 27 {
		return 0, ais.ErrInvalidMessageType
	}
	return n, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

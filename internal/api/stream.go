package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/saviobatista/sensor-sim/internal/ais"
	"github.com/saviobatista/sensor-sim/internal/metrics"
	"github.com/saviobatista/sensor-sim/internal/sensor"
	"github.com/saviobatista/sensor-sim/internal/types"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// event is one server-sent event. Every entry of data becomes its own data line.
type event struct {
	id   string
	data []string
}

// streamSSE writes one event per tick until the client goes away. Each call owns
// its ticker.
func (s *Server) streamSSE(w http.ResponseWriter, r *http.Request, every time.Duration, next func() (event, error)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.ActiveStreams.WithLabelValues("sse").Inc()
	defer metrics.ActiveStreams.WithLabelValues("sse").Dec()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			ev, err := next()
			if err != nil {
				s.logger.Error("Failed to produce event", zap.String("path", r.URL.Path), zap.Error(err))
				return
			}
			if err := writeEvent(w, ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, ev event) error {
	if ev.id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.id); err != nil {
			return err
		}
	}
	for _, line := range ev.data {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}

func jsonEvent(value any) (event, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return event{}, err
	}
	return event{data: []string{string(b)}}, nil
}

func (s *Server) streamRecords(w http.ResponseWriter, r *http.Request) {
	dt, ok := s.dataType(w, r)
	if !ok {
		return
	}
	s.streamSSE(w, r, s.interval(dt), func() (event, error) {
		value, err := s.record(dt)
		if err != nil {
			return event{}, err
		}
		return jsonEvent(value)
	})
}

func (s *Server) streamRaw(w http.ResponseWriter, r *http.Request) {
	dt, ok := s.dataType(w, r)
	if !ok {
		return
	}
	s.streamSSE(w, r, s.interval(dt), func() (event, error) {
		frame, err := sensor.Frame(s.src, dt)
		if err != nil {
			return event{}, err
		}
		return event{id: frame.ID.String(), data: frame.Lines()}, nil
	})
}

func (s *Server) streamAisType(w http.ResponseWriter, r *http.Request) {
	n, err := parseAisType(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.streamSSE(w, r, s.interval(types.DataTypeAIS), func() (event, error) {
		rec, err := ais.GenerateOfType(s.src, n)
		if err != nil {
			return event{}, err
		}
		return jsonEvent(rec)
	})
}

// streamWebsocket sends each wire frame as one text message.
func (s *Server) streamWebsocket(w http.ResponseWriter, r *http.Request) {
	dt, ok := s.dataType(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Debug("Failed to close websocket", zap.Error(err))
		}
	}()

	metrics.ActiveStreams.WithLabelValues("websocket").Inc()
	defer metrics.ActiveStreams.WithLabelValues("websocket").Dec()

	// Reads are only drained to process control frames and notice the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval(dt))
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			frame, err := sensor.Frame(s.src, dt)
			if err != nil {
				s.logger.Error("Failed to generate frame", zap.String("data_type", string(dt)), zap.Error(err))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame.Raw)); err != nil {
				return
			}
		}
	}
}

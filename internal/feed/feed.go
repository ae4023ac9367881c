// Package feed serves simulated NMEA traffic to plain TCP clients and serial
// devices, the way chart plotters and AIS receivers expect it.
package feed

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saviobatista/sensor-sim/internal/metrics"
	"github.com/saviobatista/sensor-sim/internal/random"
	"github.com/saviobatista/sensor-sim/internal/sensor"
	"github.com/saviobatista/sensor-sim/internal/types"
)

// DefaultAddr is the customary NMEA-over-TCP port.
const DefaultAddr = ":10110"

// ErrUnsupportedType is returned for data types that have no NMEA form.
var ErrUnsupportedType = errors.New("data type has no NMEA sentences")

// IntervalFunc returns the emission interval for a data type.
type IntervalFunc func(types.DataType) time.Duration

// Server streams GPS and AIS sentences to every connected TCP client. Each
// connection runs its own tickers, so clients never share frames.
type Server struct {
	addr      string
	src       *random.Source
	dataTypes []types.DataType
	interval  IntervalFunc
	logger    *zap.Logger

	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	stopChan chan struct{}
	mu       sync.Mutex
}

// New creates a feed server. Only GPS and AIS are accepted.
func New(addr string, src *random.Source, dataTypes []types.DataType, interval IntervalFunc, logger *zap.Logger) (*Server, error) {
	if err := checkTypes(dataTypes); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:      addr,
		src:       src,
		dataTypes: dataTypes,
		interval:  interval,
		logger:    logger,
		conns:     make(map[net.Conn]struct{}),
		stopChan:  make(chan struct{}),
	}, nil
}

func checkTypes(dataTypes []types.DataType) error {
	if len(dataTypes) == 0 {
		return fmt.Errorf("no data types configured")
	}
	for _, dt := range dataTypes {
		if dt != types.DataTypeGPS && dt != types.DataTypeAIS {
			return fmt.Errorf("%w: %s", ErrUnsupportedType, dt)
		}
	}
	return nil
}

// Start binds the listener and begins accepting clients.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.logger.Info("NMEA feed listening", zap.String("addr", ln.Addr().String()))

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every client, then waits for all goroutines.
func (s *Server) Stop() {
	close(s.stopChan)
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("Accept failed", zap.Error(err))
			continue
		}

		configureTCP(conn, s.logger)

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// configureTCP enables keepalive and disables Nagle so sentences leave as soon
// as they are written.
func configureTCP(conn net.Conn, logger *zap.Logger) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	if err := tcpConn.SetKeepAlive(true); err != nil {
		logger.Warn("Failed to set keepalive", zap.Error(err))
	}
	if err := tcpConn.SetKeepAlivePeriod(2 * time.Second); err != nil {
		logger.Warn("Failed to set keepalive period", zap.Error(err))
	}
	if err := tcpConn.SetNoDelay(true); err != nil {
		logger.Warn("Failed to set no delay", zap.Error(err))
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	remote := conn.RemoteAddr().String()
	s.logger.Info("Feed client connected", zap.String("remote", remote))
	metrics.ActiveStreams.WithLabelValues("tcp").Inc()

	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		metrics.ActiveStreams.WithLabelValues("tcp").Dec()
		s.logger.Info("Feed client disconnected", zap.String("remote", remote))
	}()

	done := make(chan struct{})
	var once sync.Once
	closeDone := func() { once.Do(func() { close(done) }) }

	var writeMu sync.Mutex
	var tickers sync.WaitGroup
	for _, dt := range s.dataTypes {
		tickers.Add(1)
		go func(dt types.DataType) {
			defer tickers.Done()
			ticker := time.NewTicker(s.interval(dt))
			defer ticker.Stop()

			for {
				select {
				case <-s.stopChan:
					closeDone()
					return
				case <-done:
					return
				case <-ticker.C:
					frame, err := sensor.Frame(s.src, dt)
					if err != nil {
						s.logger.Error("Failed to generate frame", zap.String("data_type", string(dt)), zap.Error(err))
						continue
					}
					writeMu.Lock()
					err = WriteFrame(conn, frame)
					writeMu.Unlock()
					if err != nil {
						s.logger.Debug("Feed write failed", zap.String("remote", remote), zap.Error(err))
						closeDone()
						return
					}
				}
			}
		}(dt)
	}

	// A client that hangs up is noticed on read even when no write is due yet.
	go func() {
		io.Copy(io.Discard, conn)
		closeDone()
	}()

	tickers.Wait()
}

// WriteFrame writes each sentence of frame terminated by CRLF.
func WriteFrame(w io.Writer, frame *types.Frame) error {
	var b strings.Builder
	for _, line := range frame.Lines() {
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

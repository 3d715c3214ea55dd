package websocket

import (
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"webterm/metrics"
)

const (
	DefaultTimeout = time.Minute
	timeoutCheck   = 10 * time.Second
)

// Server routes the messages of one connection to its services and closes
// the connection once active services have been idle for Timeout.
type Server struct {
	*Conn
	// written only before Start
	services       map[string]Service
	activeServices []string

	lastActive atomic.Int64
	timeout    time.Duration
	log        *zap.SugaredLogger
}

func NewServer(w http.ResponseWriter, r *http.Request, timeout time.Duration, log *zap.SugaredLogger) (*Server, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	conn, err := NewConn(w, r, log)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	server := &Server{
		Conn:     conn,
		services: make(map[string]Service),
		timeout:  timeout,
		log:      log,
	}
	server.touch()
	return server, nil
}

func (s *Server) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Server) idle() time.Duration {
	return time.Since(time.Unix(0, s.lastActive.Load()))
}

func (s *Server) checkTimeout(done <-chan struct{}) {
	ticker := time.NewTicker(timeoutCheck)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if s.idle() > s.timeout {
				s.log.Infof("closing connection idle for %s", s.idle().Round(time.Second))
				s.Close()
				return
			}
		}
	}
}

// Register adds a service whose messages count as activity.
func (s *Server) Register(service Service) {
	s.RegisterPassive(service)
	s.activeServices = append(s.activeServices, service.Name())
}

// RegisterPassive adds a service whose messages do not keep the connection
// alive, such as heartbeats.
func (s *Server) RegisterPassive(service Service) {
	if _, exists := s.services[service.Name()]; exists {
		s.log.Warnf("service %s already registered", service.Name())
		return
	}

	service.Register(s.Conn)
	s.services[service.Name()] = service
}

// Start serves the connection and returns once it is closed.
func (s *Server) Start() {
	metrics.ConnectionOpened()
	defer metrics.ConnectionClosed()

	done := make(chan struct{})
	go s.checkTimeout(done)

	handled := make(chan struct{})
	go func() {
		defer close(handled)
		for msg := range s.TextMessage {
			if slices.Contains(s.activeServices, msg.Service) {
				s.touch()
			}
			if svc, exists := s.services[msg.Service]; exists {
				svc.HandleTextMessage(msg.Id, msg.Action, msg.Data)
			} else {
				s.log.Debugf("message for unknown service %q", msg.Service)
			}
		}
	}()

	err := s.StartDispatch()
	close(done)
	<-handled
	s.log.Debugf("connection closed: %v", err)
	for _, svc := range s.services {
		svc.Cleanup(err)
	}
	s.Close()
}

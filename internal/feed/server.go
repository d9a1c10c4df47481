package feed

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// Server accepts TCP subscribers that receive events as JSON lines.
type Server struct {
	Addr string
	Hub  *Hub

	mu     sync.Mutex
	ln     net.Listener
	closed bool
	logger zerolog.Logger
}

func NewServer(addr string, hub *Hub, logger zerolog.Logger) *Server {
	return &Server{
		Addr:   addr,
		Hub:    hub,
		logger: logger.With().Str("component", "tcp-feed").Logger(),
	}
}

// Run listens and serves until Close is called. It returns nil at once if
// Close already happened.
func (s *Server) Run() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("tcp feed listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn().Err(err).Msg("accept failed")
			continue
		}

		_, _ = conn.Write(welcomeMessage("tcp", s.Hub.Stats().TCPClients+1))
		s.Hub.Add(conn)
		s.logger.Debug().Str("remote", conn.RemoteAddr().String()).Msg("client connected")

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				s.logger.Debug().Str("remote", c.RemoteAddr().String()).Msg("client disconnected")
			}()
			// Subscribers do not talk back; drain until they hang up.
			_, _ = io.Copy(io.Discard, bufio.NewReader(c))
		}(conn)
	}
}

// ListenAddr is the bound address once Run has started listening.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close stops Run, including a Run that has not bound its listener yet.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

// Package observer streams simulation frames to debug viewers over
// WebSocket.
package observer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/swarm/telemetry"
)

// ProtocolVersion is checked in the SUBSCRIBE handshake.
const ProtocolVersion = 1

// SubscribeMsg is the first message a viewer must send.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion int    `json:"protocol_version"`
	IncludeBelt     bool   `json:"include_belt"`
}

// Status is served by the bootstrap endpoint.
type Status struct {
	ProtocolVersion int    `json:"protocol_version"`
	RunID           string `json:"run_id"`
	Tick            int32  `json:"tick"`
	Agents          int    `json:"agents"`
	BeltBodies      int    `json:"belt_bodies"`
	Viewers         int    `json:"viewers"`
}

type session struct {
	includeBelt bool
	out         chan []byte
}

// Server fans published frames out to connected viewers. Slow viewers drop
// frames rather than stall the publisher.
type Server struct {
	log      *slog.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu       sync.Mutex
	sessions map[uint64]*session
	status   Status
}

// NewServer creates a server with no viewers.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[uint64]*session),
		status:   Status{ProtocolVersion: ProtocolVersion},
	}
}

// Viewers returns the number of connected viewers.
func (s *Server) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Publish sends frame to every viewer. The frame is encoded once per
// variant; the belt is only encoded when a viewer asked for it.
func (s *Server) Publish(frame *telemetry.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.RunID = frame.RunID
	s.status.Tick = frame.Tick
	s.status.Agents = len(frame.Agents)
	s.status.BeltBodies = len(frame.Belt)

	if len(s.sessions) == 0 {
		return nil
	}

	var full, bare []byte
	for _, sess := range s.sessions {
		var b []byte
		if sess.includeBelt {
			if full == nil {
				var err error
				if full, err = json.Marshal(frame); err != nil {
					return err
				}
			}
			b = full
		} else {
			if bare == nil {
				stripped := *frame
				stripped.Belt = nil
				var err error
				if bare, err = json.Marshal(&stripped); err != nil {
					return err
				}
			}
			b = bare
		}
		select {
		case sess.out <- b:
		default:
		}
	}
	return nil
}

// Handler returns the HTTP routes: /bootstrap and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/ws", s.WSHandler())
	return mux
}

// BootstrapHandler serves the current Status as JSON.
func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		s.mu.Lock()
		resp := s.status
		resp.Viewers = len(s.sessions)
		s.mu.Unlock()

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

// WSHandler upgrades a viewer connection and streams frames to it.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil || sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != ProtocolVersion {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		id := s.nextID.Add(1)
		sess := &session{includeBelt: sub.IncludeBelt, out: make(chan []byte, 8)}
		s.mu.Lock()
		s.sessions[id] = sess
		s.mu.Unlock()
		s.log.Info("viewer joined", "id", id, "include_belt", sub.IncludeBelt)

		defer func() {
			s.mu.Lock()
			delete(s.sessions, id)
			s.mu.Unlock()
			s.log.Info("viewer left", "id", id)
		}()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var upd SubscribeMsg
			if err := json.Unmarshal(msg, &upd); err != nil || upd.Type != "SUBSCRIBE" {
				continue
			}
			s.mu.Lock()
			sess.includeBelt = upd.IncludeBelt
			s.mu.Unlock()
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("observer listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

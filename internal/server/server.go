// Package server hosts the simulation for browser renderers over a
// websocket. It implements the scene graph, asset loader, key source and
// camera sink the components talk to, and streams one frame of node deltas
// per tick to every client.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/zeusync/zoowalk/internal/core/events/bus"
	"github.com/zeusync/zoowalk/internal/core/observability/log"
	"github.com/zeusync/zoowalk/internal/core/system"
)

var _ system.FrameObserver = (*Server)(nil)

// Config holds server configuration
type Config struct {
	Addr         string
	AssetRoot    string
	WriteTimeout time.Duration
	ReadLimit    int64
	// ShutdownTimeout bounds the graceful drain in Run.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		WriteTimeout:    5 * time.Second,
		ReadLimit:       4096,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Server is the websocket host.
type Server struct {
	config Config
	logger log.Log
	events bus.Bus
	sub    bus.Subscription

	scene  *SceneTable
	assets *Catalog
	keys   *KeyBuffer
	hub    *hub

	ticks   atomic.Uint64
	running atomic.Bool
	closed  atomic.Bool
}

// New creates a server. When events is non-nil every bus event is forwarded
// to clients.
func New(config Config, logger log.Log, events bus.Bus) (*Server, error) {
	if config.WriteTimeout <= 0 || config.ReadLimit <= 0 {
		return nil, ErrInvalidConfig
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Server{
		config: config,
		logger: logger.Named("server"),
		events: events,
		scene:  NewSceneTable(),
		assets: NewCatalog(config.AssetRoot),
		keys:   NewKeyBuffer(),
		hub:    newHub(),
	}

	if events != nil {
		sub, err := events.Subscribe(bus.Wildcard, s.forward)
		if err != nil {
			return nil, err
		}
		s.sub = sub
	}
	return s, nil
}

func (s *Server) Scene() *SceneTable { return s.scene }
func (s *Server) Assets() *Catalog   { return s.assets }
func (s *Server) Keys() *KeyBuffer   { return s.keys }

// Ticks returns the number of frames flushed so far.
func (s *Server) Ticks() uint64 { return s.ticks.Load() }

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int { return s.hub.len() }

// OnFrame flushes the scene deltas and camera of one frame to every client.
func (s *Server) OnFrame(f system.Frame) {
	s.ticks.Store(f.Tick)
	s.scene.Frame(f.Tick, f.Time, s.broadcast)
}

// Run serves HTTP on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.closed.Load() {
		_ = ln.Close()
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		_ = ln.Close()
		return ErrServerAlreadyRunning
	}
	defer s.running.Store(false)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("server listening", log.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("stopping server")
	s.hub.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Close stops forwarding events and disconnects every client.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	if s.sub != nil {
		err = s.events.Unsubscribe(s.sub)
	}
	s.hub.closeAll()
	return err
}

func (s *Server) forward(ev bus.Event) error {
	s.broadcast(Outbound{
		Type: MessageEvent,
		Tick: s.ticks.Load(),
		Event: &Event{
			Type:      ev.Type(),
			Source:    ev.Source(),
			Timestamp: ev.Timestamp(),
			Data:      ev.Data(),
		},
	})
	return nil
}

func (s *Server) broadcast(msg Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("encode message", log.String("type", string(msg.Type)), log.Error(err))
		return
	}
	s.hub.broadcast(data)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultShutdownTimeout bounds graceful shutdown of a Farm.
const DefaultShutdownTimeout = 30 * time.Second

// Farm serves several named listeners together. When one fails or the
// context ends, all of them shut down.
type Farm struct {
	ShutdownTimeout time.Duration

	logger  zerolog.Logger
	members []member
}

type member struct {
	name string
	ln   net.Listener
	srv  *http.Server
}

// NewFarm creates an empty farm.
func NewFarm(logger zerolog.Logger) *Farm {
	return &Farm{ShutdownTimeout: DefaultShutdownTimeout, logger: logger}
}

// Listen binds addr and serves h on it under name.
func (f *Farm) Listen(name, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s on %s: %w", name, addr, err)
	}
	f.Add(name, ln, h)
	return nil
}

// Add serves h on an already bound listener.
func (f *Farm) Add(name string, ln net.Listener, h http.Handler) {
	f.members = append(f.members, member{
		name: name,
		ln:   ln,
		srv: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
	})
}

// Addr returns the bound address of the named listener, or nil.
func (f *Farm) Addr(name string) net.Addr {
	for _, m := range f.members {
		if m.name == name {
			return m.ln.Addr()
		}
	}
	return nil
}

// Serve blocks until ctx is done or a listener fails, then shuts every
// listener down gracefully. It returns the first serve error, if any.
func (f *Farm) Serve(ctx context.Context) error {
	if len(f.members) == 0 {
		return errors.New("server farm has no listeners")
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range f.members {
		m := m
		g.Go(func() error {
			f.logger.Info().
				Str("listener", m.name).
				Str("addr", m.ln.Addr().String()).
				Msg("starting http server")
			if err := m.srv.Serve(m.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s server: %w", m.name, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		f.shutdown()
		return nil
	})
	return g.Wait()
}

func (f *Farm) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), f.ShutdownTimeout)
	defer cancel()
	for _, m := range f.members {
		if err := m.srv.Shutdown(ctx); err != nil {
			f.logger.Error().Err(err).Str("listener", m.name).Msg("http server shutdown error")
		}
	}
	f.logger.Info().Msg("server farm stopped")
}

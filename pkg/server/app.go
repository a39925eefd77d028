package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	applogger "github.com/lian220/quintiq-backend/pkg/logger"
)

// Component is a long-running part of the process: the Kafka consumer,
// the Redis queue, the scheduler or the HTTP server.
type Component interface {
	Start() error
	Stop(ctx context.Context) error
}

type namedComponent struct {
	name string
	c    Component
}

type namedCloser struct {
	name string
	fn   func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	log             *applogger.Logger
	shutdownTimeout time.Duration
	components      []namedComponent
	closers         []namedCloser
	started         []namedComponent
}

func New(l *applogger.Logger, shutdownTimeout time.Duration) *App {
	if l == nil {
		l = applogger.Nop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &App{log: l, shutdownTimeout: shutdownTimeout}
}

// Add registers a component. Components start in order and stop in reverse.
func (a *App) Add(name string, c Component) *App {
	if c != nil {
		a.components = append(a.components, namedComponent{name: name, c: c})
	}
	return a
}

// OnClose registers a resource released after every component stopped.
func (a *App) OnClose(name string, fn func() error) *App {
	if fn != nil {
		a.closers = append(a.closers, namedCloser{name: name, fn: fn})
	}
	return a
}

// Start starts every component. On failure the already started ones are stopped.
func (a *App) Start() error {
	for _, nc := range a.components {
		if err := nc.c.Start(); err != nil {
			a.log.Error("component start failed", applogger.String("component", nc.name), applogger.Error(err))
			ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
			a.Shutdown(ctx)
			cancel()
			return fmt.Errorf("start %s: %w", nc.name, err)
		}
		a.started = append(a.started, nc)
		a.log.Info("component started", applogger.String("component", nc.name))
	}
	return nil
}

// Run starts the application and blocks until ctx is done or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.log.Info("shutdown signal received", applogger.String("signal", sig.String()))
	case <-ctx.Done():
		a.log.Info("context done, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	a.Shutdown(shutdownCtx)
	return nil
}

// Shutdown stops started components in reverse order, then runs closers.
// Errors are logged; shutdown always runs to the end.
func (a *App) Shutdown(ctx context.Context) {
	a.log.Info("shutting down...")
	for i := len(a.started) - 1; i >= 0; i-- {
		nc := a.started[i]
		if err := nc.c.Stop(ctx); err != nil {
			a.log.Warn("component stop error", applogger.String("component", nc.name), applogger.Error(err))
		}
	}
	a.started = nil

	for i := len(a.closers) - 1; i >= 0; i-- {
		cl := a.closers[i]
		if err := cl.fn(); err != nil {
			a.log.Warn("close error", applogger.String("resource", cl.name), applogger.Error(err))
		}
	}
	a.closers = nil
	a.log.Info("shutdown complete")
}

// Package bootstrap wires signal handling around the long-lived components.
package bootstrap

import (
	"context"
	"market_quoter/internal/core"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// Runner is an interface for components that can be run and stopped gracefully.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a plain function to the Runner interface
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// App orchestrates the application lifecycle
type App struct {
	logger core.ILogger
}

// NewApp creates a new App instance
func NewApp(logger core.ILogger) *App {
	return &App{logger: logger}
}

// Run starts all runners and blocks until they finish or a termination
// signal arrives. A ctx-cancelled exit is a clean shutdown, anything else
// is a failure.
func (a *App) Run(runners ...Runner) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	a.logger.Info("Starting application")

	for _, runner := range runners {
		r := runner
		g.Go(func() error {
			return r.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		a.logger.Error("Application stopped with error", "error", err.Error())
		return err
	}

	a.logger.Info("Application shut down gracefully")
	return nil
}

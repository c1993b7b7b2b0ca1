package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// shutdownSignals are the signals that request a graceful shutdown.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// exit is replaced in tests.
var exit = os.Exit

// SetupSignalHandler returns a context that is cancelled on the first
// SIGINT or SIGTERM. A second signal exits the process immediately with
// status 1. Call stop to release the signal handler.
func SetupSignalHandler() (context.Context, context.CancelFunc) {
	return setupSignalHandler(make(chan os.Signal, 2), true)
}

// setupSignalHandler drives cancellation from sigChan. When notify is set
// the channel is registered for shutdownSignals.
func setupSignalHandler(sigChan chan os.Signal, notify bool) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	if notify {
		signal.Notify(sigChan, shutdownSignals...)
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-done:
			return
		}
		select {
		case <-sigChan:
			exit(1)
		case <-done:
		}
	}()

	stop := func() {
		if notify {
			signal.Stop(sigChan)
		}
		select {
		case <-done:
		default:
			close(done)
		}
		cancel()
	}
	return ctx, stop
}

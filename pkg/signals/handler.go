package signals

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mudler/xlog"
)

var (
	handlers   []func()
	handlersMu sync.Mutex
)

// OnTermination registers fn to run when the process receives SIGINT or
// SIGTERM. Handlers run in registration order, then the process exits.
func OnTermination(fn func()) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers = append(handlers, fn)
}

func init() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-c
		xlog.Info("termination signal received, shutting down", "signal", sig.String())

		handlersMu.Lock()
		defer handlersMu.Unlock()
		for _, fn := range handlers {
			fn()
		}
		os.Exit(0)
	}()
}

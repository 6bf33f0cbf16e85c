package signalhandler

import (
	"context"
	"os/signal"
	"syscall"
)

// WithInterrupt returns a context cancelled on the first SIGINT or SIGTERM.
// Commands check it between images so the catalog's Mats are only released
// once no recognition is using them. After the first signal the default
// behavior is restored, so a second one terminates the process immediately.
func WithInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}

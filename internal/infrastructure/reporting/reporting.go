package reporting

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const flushTimeout = 2 * time.Second

// Options configures fault reporting
type Options struct {
	DSN         string
	Environment string
	Release     string
	// BeforeSend lets callers filter or inspect events
	BeforeSend func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event
}

// Reporter forwards errors and recovered panics to Sentry.
// A zero Reporter, or one built without a DSN, only logs.
type Reporter struct {
	hub    *sentry.Hub
	logger *zap.Logger
}

// New creates a reporter; without a DSN events are dropped
func New(opts Options, logger *zap.Logger) (*Reporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reporter{logger: logger.Named("reporting")}
	if opts.DSN == "" && opts.BeforeSend == nil {
		return r, nil
	}

	environment := opts.Environment
	if environment == "" {
		environment = "production"
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         opts.DSN,
		Environment: environment,
		Release:     opts.Release,
		BeforeSend:  opts.BeforeSend,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	r.hub = sentry.NewHub(client, sentry.NewScope())
	return r, nil
}

// Enabled reports whether events reach Sentry
func (r *Reporter) Enabled() bool {
	return r != nil && r.hub != nil
}

// CaptureError reports err tagged with the component it came from
func (r *Reporter) CaptureError(component string, err error) {
	if err == nil || !r.Enabled() {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		r.hub.CaptureException(err)
	})
}

// Recover reports a value recovered from a panic
func (r *Reporter) Recover(recovered any) {
	if recovered == nil || !r.Enabled() {
		return
	}
	r.logger.Debug("reporting recovered panic", zap.Any("panic", recovered))
	r.hub.Recover(recovered)
}

// Flush waits for pending events to be delivered
func (r *Reporter) Flush() {
	if r.Enabled() {
		r.hub.Flush(flushTimeout)
	}
}

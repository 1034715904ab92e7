package server

import (
	"context"
	"sync"

	"github.com/mailbridge/fastmail-mcp/internal/caldav"
	"github.com/mailbridge/fastmail-mcp/internal/config"
	"github.com/mailbridge/fastmail-mcp/internal/contacts"
	"github.com/mailbridge/fastmail-mcp/internal/instrumentation"
	"github.com/mailbridge/fastmail-mcp/internal/jmap"
)

// ServerContext holds the context for the MCP server. Backend clients are
// created at most once, on first use, so missing credentials only surface
// when a tool actually needs that backend.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	resolver *config.Resolver
	metrics  *instrumentation.Metrics

	mu             sync.Mutex
	mailClient     *jmap.Client
	contactsClient *contacts.Client
	calendarClient *caldav.Client
	shutdown       bool
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, resolver *config.Resolver) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		resolver: resolver,
		metrics:  &instrumentation.Metrics{},
	}
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// SetMetrics attaches a metrics recorder. Must be called before serving.
func (sc *ServerContext) SetMetrics(metrics *instrumentation.Metrics) {
	if metrics != nil {
		sc.metrics = metrics
	}
}

// Metrics returns the metrics recorder. It is never nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// MailClient returns the memoized JMAP client, creating it on first use.
// The API token is required; the base URL override is optional, but a
// placeholder value in either is fatal.
func (sc *ServerContext) MailClient() (*jmap.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.mailClient != nil {
		return sc.mailClient, nil
	}

	token, err := sc.resolver.Resolve(config.MailTokenKeys...)
	if err != nil {
		return nil, err
	}
	baseURL, err := sc.resolver.ResolveOptional(config.BaseURLKeys...)
	if err != nil {
		return nil, err
	}

	sc.mailClient = jmap.NewClient(token, baseURL)
	return sc.mailClient, nil
}

// ContactsClient returns the memoized contacts client. It shares the mail
// client's session and credentials.
func (sc *ServerContext) ContactsClient() (*contacts.Client, error) {
	mail, err := sc.MailClient()
	if err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.contactsClient == nil {
		sc.contactsClient = contacts.NewClient(mail)
	}
	return sc.contactsClient, nil
}

// CalendarClient returns the memoized CalDAV client. Username and app
// password are resolved independently so each missing credential names its
// own variables; mail credentials are never consulted.
func (sc *ServerContext) CalendarClient() (*caldav.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.calendarClient != nil {
		return sc.calendarClient, nil
	}

	username, err := sc.resolver.Resolve(config.CalendarUserKeys...)
	if err != nil {
		return nil, err
	}
	password, err := sc.resolver.Resolve(config.CalendarPasswordKeys...)
	if err != nil {
		return nil, err
	}

	sc.calendarClient = caldav.NewClient(username, password)
	return sc.calendarClient, nil
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return nil
}

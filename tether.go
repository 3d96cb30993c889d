// Package tether is a declarative layer for building HTTP API clients.
//
// An App holds the shared configuration for one remote API: domain, default
// headers, the transport client, and an optional authenticator. Routes are
// registered once against the App with a URL template, the set of allowed
// methods, and a response handler; each call on a Route builds an ephemeral
// Request that validates its arguments, runs the authenticator, dispatches
// over the transport, and feeds the raw response to the handler.
//
// Conventions:
// - Construction uses functional options; zero-config New is usable.
// - All dispatching methods accept context.Context as the first parameter.
// - Errors wrap the sentinel kinds in errors.go.
package tether

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/okian/tether/artifact"
	"github.com/okian/tether/internal/urltemplate"
	"github.com/okian/tether/pkg/logger"
	"github.com/okian/tether/pkg/metrics"
)

// Default app configuration constants.
const (
	defaultDomain  = "http://localhost:8080"
	defaultTimeout = 30 * time.Second
)

// Doer executes a single HTTP exchange. *http.Client satisfies it; tests
// substitute fakes.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// App is the top-level client for one remote API. The route registry is
// append-only: routes are registered during setup and immutable afterward,
// so concurrent calls need no locking beyond registration itself.
type App struct {
	name              string
	domain            string
	headers           http.Header
	timeout           time.Duration
	client            Doer
	auth              Authenticator
	log               logger.Logger
	rec               *metrics.Recorder
	disableValidation bool

	mu     sync.RWMutex
	routes map[string]*Route

	artifactsOnce sync.Once
	artifacts     *artifact.Store
	artifactsErr  error
}

// New creates an App. The name doubles as the User-Agent header.
func New(name string, opts ...Option) *App {
	a := &App{
		name:    name,
		domain:  defaultDomain,
		headers: make(http.Header),
		timeout: defaultTimeout,
		log:     logger.Nop(),
		routes:  make(map[string]*Route),
	}
	a.headers.Set("User-Agent", name)
	for _, opt := range opts {
		opt(a)
	}
	if a.client == nil {
		a.client = &http.Client{Timeout: a.timeout}
	}
	return a
}

// Name returns the app name.
func (a *App) Name() string { return a.name }

// Domain returns the configured base URL for all routes.
func (a *App) Domain() string { return a.domain }

// Route registers a URL template with its allowed methods. Registration is
// rejected for duplicate templates, malformed templates, and unsupported
// method names.
func (a *App) Route(path string, methods []string, opts ...RouteOption) (*Route, error) {
	tpl, err := urltemplate.Parse(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Reason: err.Error()}
	}
	if len(methods) == 0 {
		return nil, &ConfigurationError{Path: path, Reason: "no methods given"}
	}
	allowed, err := methodSet(methods)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Reason: err.Error()}
	}

	r := &Route{
		app:      a,
		path:     path,
		template: tpl,
		methods:  allowed,
		headers:  make(http.Header),
	}
	for _, opt := range opts {
		opt(r)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, dup := a.routes[path]; dup {
		return nil, &ConfigurationError{Path: path, Reason: "already registered"}
	}
	a.routes[path] = r
	a.log.Debug(context.Background(), "route registered",
		logger.String("path", path), logger.Any("methods", r.Methods()))
	return r, nil
}

// MustRoute is Route, panicking on registration error. Intended for
// package-level route declarations.
func (a *App) MustRoute(path string, methods []string, opts ...RouteOption) *Route {
	r, err := a.Route(path, methods, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the route registered for the given template, or
// ErrUnknownRoute.
func (a *App) Lookup(path string) (*Route, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.routes[path]
	if !ok {
		return nil, ErrUnknownRoute
	}
	return r, nil
}

// Routes returns all registered routes in no particular order.
func (a *App) Routes() []*Route {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*Route, 0, len(a.routes))
	for _, r := range a.routes {
		out = append(out, r)
	}
	return out
}

// SetAuthenticator installs or replaces the authenticator hook invoked before
// each request. A nil authenticator disables authentication.
func (a *App) SetAuthenticator(auth Authenticator) { a.auth = auth }

// Artifacts returns the app's artifact store, creating
// ~/.tether/<sanitized app name>/ on first use. Authenticators use it to
// persist tokens between runs.
func (a *App) Artifacts() (*artifact.Store, error) {
	a.artifactsOnce.Do(func() {
		a.artifacts, a.artifactsErr = artifact.NewStore(a.name)
	})
	return a.artifacts, a.artifactsErr
}

// Option applies a configuration option to the App.
type Option func(*App)

// WithDomain sets the base URL prepended to every route template.
func WithDomain(domain string) Option {
	return func(a *App) {
		if domain != "" {
			a.domain = domain
		}
	}
}

// WithDomainFromEnv resolves the base URL from the named environment
// variable at construction time. An unset variable leaves the domain as is.
func WithDomainFromEnv(key string) Option {
	return func(a *App) {
		if v := os.Getenv(key); v != "" {
			a.domain = v
		}
	}
}

// WithHTTPClient substitutes the transport. The default is an *http.Client
// with the configured timeout.
func WithHTTPClient(client Doer) Option {
	return func(a *App) {
		if client != nil {
			a.client = client
		}
	}
}

// WithTimeout sets the transport timeout used by the default client.
func WithTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithHeaders merges headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(a *App) {
		for k, v := range headers {
			a.headers.Set(k, v)
		}
	}
}

// WithAuthenticator installs the authenticator hook.
func WithAuthenticator(auth Authenticator) Option {
	return func(a *App) {
		a.auth = auth
	}
}

// WithLogger installs a logger. The default discards everything.
func WithLogger(log logger.Logger) Option {
	return func(a *App) {
		if log != nil {
			a.log = log
		}
	}
}

// WithMetrics installs a metrics recorder for request instrumentation.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(a *App) {
		a.rec = rec
	}
}

// WithoutValidation disables method, URL-arg, and query-param validation.
// Testing escape hatch; requests go out exactly as built.
func WithoutValidation() Option {
	return func(a *App) {
		a.disableValidation = true
	}
}

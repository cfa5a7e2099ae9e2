package server

import (
	"time"

	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/store"
)

// Options defines configuration options for the API server.
type Options struct {
	// HTTPAddr is the address to listen on for HTTP connections.
	HTTPAddr string

	// TLSCertFile is the path to the TLS certificate file.
	TLSCertFile string

	// TLSKeyFile is the path to the TLS key file.
	TLSKeyFile string

	// EnableTLS indicates whether to enable TLS.
	EnableTLS bool

	// APIKeys is a list of valid API keys. Empty disables authentication.
	APIKeys []string

	// RequestTimeout bounds each request's context.
	RequestTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// GCSchedule is the cron spec for store garbage collection. Empty disables it.
	GCSchedule string

	// Store is the state store to use.
	Store store.Store

	// Logger is the logger to use.
	Logger log.Logger
}

// DefaultOptions returns the default options for the API server.
func DefaultOptions() *Options {
	return &Options{
		HTTPAddr:        ":8470",
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		GCSchedule:      "@every 10m",
		Logger:          log.GetDefaultLogger(),
	}
}

// Option is a function that configures the API server options.
type Option func(*Options)

// WithHTTPAddr sets the HTTP address.
func WithHTTPAddr(addr string) Option {
	return func(o *Options) {
		o.HTTPAddr = addr
	}
}

// WithTLS enables TLS with the given certificate and key files.
func WithTLS(certFile, keyFile string) Option {
	return func(o *Options) {
		o.TLSCertFile = certFile
		o.TLSKeyFile = keyFile
		o.EnableTLS = true
	}
}

// WithAuth enables authentication with the given API keys.
func WithAuth(apiKeys []string) Option {
	return func(o *Options) {
		o.APIKeys = apiKeys
	}
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.RequestTimeout = d
	}
}

// WithGCSchedule sets the store GC cron spec.
func WithGCSchedule(spec string) Option {
	return func(o *Options) {
		o.GCSchedule = spec
	}
}

// WithStore sets the state store.
func WithStore(store store.Store) Option {
	return func(o *Options) {
		o.Store = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

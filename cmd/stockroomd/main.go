package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rzbill/stockroom/internal/config"
	"github.com/rzbill/stockroom/pkg/api/server"
	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/store"
	"github.com/rzbill/stockroom/pkg/version"
)

// flags holds command-line values. Only flags that were set override config.
type flags struct {
	configFile string
	httpAddr   string
	dataDir    string
	logLevel   string
	logFormat  string
	apiKeys    string
	inMemory   bool
	debug      bool
	showVer    bool
	catalogs   stringList
	set        map[string]bool
}

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string     { return fmt.Sprint(*s) }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func parseFlags(args []string, out io.Writer) (*flags, error) {
	f := &flags{set: map[string]bool{}}
	fs := flag.NewFlagSet("stockroomd", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&f.configFile, "config", "", "Configuration file path")
	fs.StringVar(&f.httpAddr, "http-addr", "", "HTTP server address")
	fs.StringVar(&f.dataDir, "data-dir", "", "Data directory")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	fs.StringVar(&f.apiKeys, "api-keys", "", "Comma-separated list of API keys (empty to disable auth)")
	fs.BoolVar(&f.inMemory, "in-memory", false, "Keep all data in memory")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug mode (shorthand for --log-level=debug)")
	fs.BoolVar(&f.showVer, "version", false, "Show version")
	fs.Var(&f.catalogs, "catalog", "Catalog file to apply at startup (repeatable)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	return f, nil
}

// loadConfig reads config and applies flag overrides. Precedence is
// flags > env > config file > defaults.
func loadConfig(f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}
	if f.set["http-addr"] {
		cfg.Server.HTTPAddr = f.httpAddr
	}
	if f.set["data-dir"] {
		cfg.DataDir = f.dataDir
	}
	if f.set["log-level"] {
		cfg.Log.Level = f.logLevel
	}
	if f.debug {
		cfg.Log.Level = "debug"
	}
	if f.set["log-format"] {
		cfg.Log.Format = f.logFormat
	}
	if f.set["api-keys"] {
		cfg.Auth.APIKeys = f.apiKeys
	}
	if f.set["in-memory"] {
		cfg.Store.InMemory = f.inMemory
	}
	cfg.Bootstrap.CatalogFiles = append(cfg.Bootstrap.CatalogFiles, f.catalogs...)
	return cfg, cfg.Validate()
}

func openStore(cfg *config.Config, logger log.Logger) (*store.BadgerStore, error) {
	opts := store.DefaultStoreOptions()
	opts.InMemory = cfg.Store.InMemory
	opts.KeepHistory = cfg.Store.KeepHistory
	opts.GCDiscardRatio = cfg.Store.GCDiscardRatio

	storeDir := filepath.Join(cfg.DataDir, "store")
	if !opts.InMemory {
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", storeDir, err)
		}
	}

	logger.Info("Initializing state store", log.Str("path", storeDir), log.Bool("in_memory", opts.InMemory))
	st := store.NewBadgerStoreWithOptions(logger, opts)
	if err := st.Open(storeDir); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return st, nil
}

// newServer wires the store, catalog bootstrap and API server.
func newServer(cfg *config.Config, st store.Store, logger log.Logger) (*server.APIServer, error) {
	opts := []server.Option{
		server.WithHTTPAddr(cfg.Server.HTTPAddr),
		server.WithStore(st),
		server.WithLogger(logger),
		server.WithRequestTimeout(cfg.Server.RequestTimeout),
		server.WithGCSchedule(cfg.Store.GCSchedule),
	}
	if keys := cfg.APIKeyList(); len(keys) > 0 {
		logger.Info("Authentication enabled", log.Int("numKeys", len(keys)))
		opts = append(opts, server.WithAuth(keys))
	} else {
		logger.Warn("Authentication disabled")
	}
	if cfg.Server.TLS.Enabled {
		opts = append(opts, server.WithTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile))
	}

	srv, err := server.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API server: %w", err)
	}
	if err := bootstrapCatalogs(context.Background(), srv.Catalog(), cfg.Bootstrap.CatalogFiles, logger); err != nil {
		return nil, err
	}
	return srv, nil
}

func run(ctx context.Context, args []string) error {
	f, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if f.showVer {
		fmt.Println(version.Info())
		return nil
	}

	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	logger, err := log.ApplyConfig(&log.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	log.SetDefaultLogger(logger)
	logger.Info("Starting stockroom server", log.Str("version", version.Version))

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := newServer(cfg, st, logger)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	<-ctx.Done()

	if err := srv.Stop(); err != nil {
		logger.Error("Failed to stop API server", log.Err(err))
	}
	logger.Info("stockroom server stopped")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

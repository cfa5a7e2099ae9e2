package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rzbill/stockroom/internal/config"
	"github.com/rzbill/stockroom/pkg/catalog"
	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/store"
	"github.com/rzbill/stockroom/pkg/version"
	"github.com/spf13/cobra"
)

// Option configures the root command.
type Option func(*cliEnv)

// WithStore makes every command use st instead of opening the data directory.
func WithStore(st store.Store) Option {
	return func(e *cliEnv) { e.store = st }
}

// WithLogger overrides the logger built from config.
func WithLogger(logger log.Logger) Option {
	return func(e *cliEnv) { e.logger = logger }
}

// cliEnv holds global flags and the lazily opened catalog.
type cliEnv struct {
	cfgFile string
	dataDir string
	output  string
	verbose bool

	store  store.Store
	logger log.Logger
	svc    *catalog.Service
	closer func() error
}

// NewRootCmd builds the stockroom command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	env := &cliEnv{}
	for _, opt := range opts {
		opt(env)
	}

	rootCmd := &cobra.Command{
		Use:   "stockroom",
		Short: "Stockroom - typed custom fields for inventory records",
		Long: `Stockroom manages asset, application and certificate types, the
ordered custom fields each type declares, templates that pre-fill new
records, and the records themselves.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return env.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&env.cfgFile, "config", "", "config file (default is ./stockroom.yaml or /etc/stockroom/stockroom.yaml)")
	rootCmd.PersistentFlags().StringVar(&env.dataDir, "data-dir", "", "data directory (overrides data_dir from config)")
	rootCmd.PersistentFlags().StringVarP(&env.output, "output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newTypesCmd(env))
	rootCmd.AddCommand(newFieldsCmd(env))
	rootCmd.AddCommand(newTemplatesCmd(env))
	rootCmd.AddCommand(newInstancesCmd(env))
	rootCmd.AddCommand(newApplyCmd(env))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// catalog opens the store on first use and returns the catalog service.
func (e *cliEnv) catalog() (*catalog.Service, error) {
	if e.svc != nil {
		return e.svc, nil
	}

	cfg, err := config.Load(e.cfgFile)
	if err != nil {
		return nil, err
	}
	if e.dataDir != "" {
		cfg.DataDir = e.dataDir
	}

	if e.logger == nil {
		level := "warn"
		if e.verbose {
			level = "debug"
		}
		logger, err := log.ApplyConfig(&log.Config{Level: level, Format: "text", Output: "stderr"})
		if err != nil {
			return nil, err
		}
		e.logger = logger
	}

	if e.store == nil {
		st, err := openStore(cfg, e.logger)
		if err != nil {
			return nil, err
		}
		e.store = st
		e.closer = st.Close
	}

	e.svc = catalog.NewService(e.store, e.logger)
	return e.svc, nil
}

func (e *cliEnv) close() error {
	if e.closer == nil {
		return nil
	}
	err := e.closer()
	e.closer = nil
	e.svc = nil
	e.store = nil
	return err
}

func openStore(cfg *config.Config, logger log.Logger) (*store.BadgerStore, error) {
	opts := store.DefaultStoreOptions()
	opts.InMemory = cfg.Store.InMemory
	opts.KeepHistory = cfg.Store.KeepHistory
	opts.GCDiscardRatio = cfg.Store.GCDiscardRatio

	dir := filepath.Join(cfg.DataDir, "store")
	if !opts.InMemory {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	st := store.NewBadgerStoreWithOptions(logger, opts)
	if err := st.Open(dir); err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", dir, err)
	}
	return st, nil
}

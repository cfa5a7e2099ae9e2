package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rzbill/stockroom/pkg/catalog"
	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/types"
)

// bootstrapCatalogs applies catalog files before the server accepts traffic.
// File paths are env-expanded. Applying is idempotent, so the same files can
// be listed on every start.
func bootstrapCatalogs(ctx context.Context, svc *catalog.Service, files []string, logger log.Logger) error {
	for _, file := range files {
		path := os.ExpandEnv(file)
		cf, err := types.ParseCatalogFile(path)
		if err != nil {
			return fmt.Errorf("bootstrap catalog %s: %w", path, err)
		}
		res, err := svc.ApplyCatalog(ctx, cf)
		if err != nil {
			logger.Error("Failed to apply bootstrap catalog", log.Str("file", path), log.Err(err))
			return fmt.Errorf("bootstrap catalog %s: %w", path, err)
		}
		logger.Info("Applied bootstrap catalog",
			log.Str("file", path),
			log.Int("types", len(res.TypesCreated)+len(res.TypesUpdated)),
			log.Int("templates", len(res.TemplatesCreated)+len(res.TemplatesUpdated)))
	}
	return nil
}

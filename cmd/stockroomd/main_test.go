package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/store"
	"github.com/rzbill/stockroom/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bootstrapCatalog = `types:
  - name: Laptop
    kind: asset
    fields:
      - name: Colour
        type: SingleSelect
        options: [Red, Blue]
templates:
  - name: Standard
    kind: asset
    type: Laptop
    values:
      Colour: Blue
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestFlagsOverrideConfig(t *testing.T) {
	cfgPath := writeFile(t, "stockroom.yaml", `
server:
  http_address: ":9000"
log:
  level: info
auth:
  api_keys: from-file
`)
	f, err := parseFlags([]string{
		"--config", cfgPath,
		"--http-addr", "127.0.0.1:0",
		"--debug",
		"--in-memory",
		"--catalog", "a.yaml",
		"--catalog", "b.yaml",
	}, io.Discard)
	require.NoError(t, err)

	cfg, err := loadConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", cfg.Server.HTTPAddr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Store.InMemory)
	assert.Equal(t, []string{"from-file"}, cfg.APIKeyList())
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, cfg.Bootstrap.CatalogFiles)
}

func TestUnsetFlagsKeepConfig(t *testing.T) {
	cfgPath := writeFile(t, "stockroom.yaml", "server:\n  http_address: \":9000\"\n")
	f, err := parseFlags([]string{"--config", cfgPath}, io.Discard)
	require.NoError(t, err)

	cfg, err := loadConfig(f)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.HTTPAddr)
}

func TestParseFlagsRejectsUnknown(t *testing.T) {
	_, err := parseFlags([]string{"--grpc-addr", ":1"}, io.Discard)
	assert.Error(t, err)
}

func TestBootstrapCatalogs(t *testing.T) {
	path := writeFile(t, "catalog.yaml", bootstrapCatalog)
	t.Setenv("CATALOG_DIR", filepath.Dir(path))

	f, err := parseFlags([]string{"--in-memory", "--http-addr", "127.0.0.1:0", "--catalog", "$CATALOG_DIR/catalog.yaml"}, io.Discard)
	require.NoError(t, err)
	cfg, err := loadConfig(f)
	require.NoError(t, err)

	logger := log.NewTestLogger()
	srv, err := newServer(cfg, store.NewMemoryStore(), logger)
	require.NoError(t, err)

	ctx := context.Background()
	lt, err := srv.Catalog().GetTypeByName(ctx, types.EntityKindAsset, "Laptop")
	require.NoError(t, err)
	tpls, err := srv.Catalog().ListTemplates(ctx, lt.ID)
	require.NoError(t, err)
	assert.Len(t, tpls, 1)

	// a second bootstrap over the same store updates in place
	_, err = newServer(cfg, srv.GetStore(), logger)
	require.NoError(t, err)
	all, err := srv.Catalog().ListTypes(ctx, types.EntityKindAsset)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBootstrapMissingCatalog(t *testing.T) {
	f, err := parseFlags([]string{"--in-memory", "--catalog", "/does/not/exist.yaml"}, io.Discard)
	require.NoError(t, err)
	cfg, err := loadConfig(f)
	require.NoError(t, err)

	_, err = newServer(cfg, store.NewMemoryStore(), log.NewTestLogger())
	assert.Error(t, err)
}

func TestRunServesUntilCancelled(t *testing.T) {
	dataDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	addr := freeAddr(t)
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"--data-dir", dataDir, "--http-addr", addr, "--log-level", "error"})
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.DirExists(t, filepath.Join(dataDir, "store"))
}

func freeAddr(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())
	return addr
}

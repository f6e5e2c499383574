package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PROFIT_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "Purchases", cfg.Workbook.PurchasesSheet)
	assert.Equal(t, "Sales", cfg.Workbook.SalesSheet)
	assert.Equal(t, []string{"FG", "TR"}, cfg.Workbook.IncludeCategories)
	assert.Equal(t, ShareSplit{SZ: 50, GZ: 50}, cfg.Shares.Default)
	assert.Equal(t, ShareSplit{SZ: 67, GZ: 33}, cfg.Shares.ForSegment("PCD"))
	assert.Equal(t, ShareSplit{SZ: 50, GZ: 50}, cfg.Shares.ForSegment("unknown"))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PROFIT_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PROFIT_SERVER_PORT", "9090")
	t.Setenv("PROFIT_WORKBOOK_PATH", "other/book.xlsx")
	t.Setenv("PROFIT_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "other/book.xlsx", cfg.Workbook.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.ListenAddr())
}

func TestLoad_FileConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7070
workbook:
  path: books/fy26.xlsx
  purchases_sheet: PUR
shares:
  default:
    sz: 60
    gz: 40
  segments:
    EXPORT:
      sz: 90
      gz: 10
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	t.Setenv("PROFIT_CONFIG_FILE", configPath)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "books/fy26.xlsx", cfg.Workbook.Path)
	assert.Equal(t, "PUR", cfg.Workbook.PurchasesSheet)
	assert.Equal(t, ShareSplit{SZ: 60, GZ: 40}, cfg.Shares.Default)
	assert.Equal(t, ShareSplit{SZ: 90, GZ: 10}, cfg.Shares.ForSegment("EXPORT"))
	// Segments absent from the file fall back to the file default.
	assert.Equal(t, ShareSplit{SZ: 60, GZ: 40}, cfg.Shares.ForSegment("PCD"))
}

func TestValidate_ShareSplitMustSumTo100(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
shares:
  default:
    sz: 70
    gz: 40
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	t.Setenv("PROFIT_CONFIG_FILE", configPath)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sums to 110%")
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Setenv("PROFIT_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PROFIT_LOGGING_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"verso/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("VERSO_CONFIG", "")
	t.Setenv("VERSO_MONGODB_URL", "")
	t.Setenv("MONGODB_URL", "")
	t.Setenv("VERSO_STORE", "")
	t.Setenv("VERSO_MODEL_STRIP_HTML", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, ":8000", cfg.Addr)
	require.Equal(t, config.StoreSQLite, cfg.Store)
	require.Equal(t, filepath.Join("data", "verso.db"), cfg.DBPath)
	require.Equal(t, "en", cfg.DefaultTargetLanguage)
	require.Equal(t, "seq2seq", cfg.Model.Provider)
	require.Equal(t, "Helsinki-NLP/opus-mt-en-de", cfg.Model.Name)
	require.Equal(t, "file:./mlflow_logs", cfg.Tracking.URI)
	require.False(t, cfg.Model.StripHTML)
	require.False(t, cfg.Production())
}

func TestLoad_MongoURLSelectsMongo(t *testing.T) {
	t.Setenv("VERSO_CONFIG", "")
	t.Setenv("VERSO_STORE", "")
	t.Setenv("VERSO_MONGODB_URL", "")
	t.Setenv("MONGODB_URL", "mongodb://localhost:27017/verso")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.StoreMongo, cfg.Store)
	require.Equal(t, "mongodb://localhost:27017/verso", cfg.MongoURL)
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verso.yaml")
	content := `
addr: ":9000"
env: production
store: sqlite
default_target_language: de
model:
  provider: openai
  name: gpt-4o-mini
  qps: 3
  timeout: 5s
tracking:
  uri: ""
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("VERSO_CONFIG", path)
	t.Setenv("VERSO_MONGODB_URL", "")
	t.Setenv("MONGODB_URL", "")
	t.Setenv("VERSO_STORE", "")
	t.Setenv("VERSO_MODEL_QPS", "7")
	t.Setenv("VERSO_MODEL_STRIP_HTML", "true")
	t.Setenv("VERSO_ADDR", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "", cfg.Addr, "explicit empty env overrides file")
	require.True(t, cfg.Production())
	require.Equal(t, "de", cfg.DefaultTargetLanguage)
	require.Equal(t, "openai", cfg.Model.Provider)
	require.Equal(t, 7, cfg.Model.QPS)
	require.Equal(t, 5*time.Second, cfg.Model.Timeout)
	require.True(t, cfg.Model.StripHTML)
	require.Equal(t, "", cfg.Tracking.URI)
	require.Equal(t, "translation_service", cfg.Tracking.Experiment, "unset keys keep defaults")
}

func TestLoad_BadFile(t *testing.T) {
	t.Setenv("VERSO_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := config.Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Store = config.StoreMongo
	require.Error(t, cfg.Validate(), "mongo without url")

	cfg.MongoURL = "mongodb://localhost"
	require.NoError(t, cfg.Validate())

	cfg.Store = "postgres"
	require.Error(t, cfg.Validate())

	cfg.Store = config.StoreSQLite
	cfg.SnowflakeNode = 5000
	require.Error(t, cfg.Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "sqlite3", cfg.DB.Driver)
	assert.Equal(t, 30, cfg.DB.MaxPoolSize)
	assert.Equal(t, "wikidb.queue", cfg.Queue)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout.Std())
	assert.Empty(t, cfg.DB.QueriesFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "wikidb.yaml", `
db:
  url: /var/lib/wiki/wiki.db
  max_pool_size: 5
  queries_file: /etc/wiki/queries.properties
queue: wiki.custom
request_timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.DB.Driver, "unset fields keep defaults")
	assert.Equal(t, "/var/lib/wiki/wiki.db", cfg.DB.URL)
	assert.Equal(t, 5, cfg.DB.MaxPoolSize)
	assert.Equal(t, "/etc/wiki/queries.properties", cfg.DB.QueriesFile)
	assert.Equal(t, "wiki.custom", cfg.Queue)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout.Std())
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "wikidb.toml", `
queue = "wiki.toml"
request_timeout = "2s"

[db]
max_pool_size = 3

[http]
addr = "127.0.0.1:9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wiki.toml", cfg.Queue)
	assert.Equal(t, 3, cfg.DB.MaxPoolSize)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout.Std())
	assert.Equal(t, Default().DB.URL, cfg.DB.URL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "zero pool", file: "a.yaml", content: "db:\n  max_pool_size: 0\n"},
		{name: "empty queue", file: "b.yaml", content: "queue: \"\"\n"},
		{name: "bad duration", file: "c.yaml", content: "request_timeout: soon\n"},
		{name: "bad yaml", file: "d.yaml", content: "db: [\n"},
		{name: "bad toml", file: "e.toml", content: "queue = \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db.driver")
	assert.Contains(t, err.Error(), "db.url")
	assert.Contains(t, err.Error(), "max_pool_size")
	assert.Contains(t, err.Error(), "queue")
}

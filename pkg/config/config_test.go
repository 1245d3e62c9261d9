package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.True(t, cfg.Search.ScoringEnabled)
	assert.Equal(t, []string{"title", "body"}, cfg.Search.DefaultFields)
	assert.Equal(t, 60*time.Second, cfg.Redis.CacheTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"title", "body"}, cfg.Index.Fields)
	assert.Empty(t, cfg.Index.RawFields)
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
search:
  defaultLimit: 5
  maxResults: 50
  explainOffsets: true
  defaultFields: [title]
redis:
  cacheTTL: 5s
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("QC_SEARCH_SEGMENT_PARALLELISM", "2")
	t.Setenv("QC_REDIS_ADDR", "cache:6379")
	t.Setenv("QC_INDEX_RAW_FIELDS", "year,lang")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.True(t, cfg.Search.ExplainOffsets)
	assert.Equal(t, []string{"title"}, cfg.Search.DefaultFields)
	assert.Equal(t, 2, cfg.Search.SegmentParallelism)
	assert.Equal(t, 5*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"year", "lang"}, cfg.Index.RawFields)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  defaultLimit: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defaultLimit")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500*time.Millisecond, cfg.Scheduler.FlushDelay())
	assert.Equal(t, 1500*time.Millisecond, cfg.Scheduler.RequestInterval())
}

func TestValidateRejectsBadLanguage(t *testing.T) {
	cfg := Default()
	cfg.SourceLang = "not a language"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := Default()
	cfg.Match.FuzzyThreshold = 1.5
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownActiveEngine(t *testing.T) {
	cfg := Default()
	cfg.ActiveEngine = "nope"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsDisabledActiveEngine(t *testing.T) {
	cfg := Default()
	cfg.ActiveEngine = "openai"
	assert.Error(t, cfg.Validate(), "openai is present but disabled by default")
}

func TestEngineLookup(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg.Engine("raw"))
	assert.Nil(t, cfg.Engine("missing"))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
source_lang: ja
target_lang: en
active_engine: raw
bilingual: true
scheduler:
  max_batch_blocks: 4
  flush_delay_ms: 100
match:
  fuzzy_threshold: 0.8
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ja", cfg.SourceLang)
	assert.True(t, cfg.Bilingual)
	assert.Equal(t, 4, cfg.Scheduler.MaxBatchBlocks)
	assert.Equal(t, 100*time.Millisecond, cfg.Scheduler.FlushDelay())
	assert.InDelta(t, 0.8, cfg.Match.FuzzyThreshold, 1e-9)
	// 文件里没写的字段保持默认值
	assert.Equal(t, 4000, cfg.Scheduler.MaxBatchChars)
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().SourceLang, cfg.SourceLang)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source_lang: '???bad'"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

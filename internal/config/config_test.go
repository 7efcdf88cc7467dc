package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Load_MissingFile_ReturnsDefaults(t *testing.T) {
	assert := assert.New(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
	if !assert.NoError(err) {
		return
	}
	assert.Equal(DefaultMaxErrors, cfg.MaxErrors)
	assert.Equal(LogLevelInfo, cfg.LogLevel)
	assert.Equal("lelwel-cache.sqlite", cfg.Cache.Path)
	assert.NoError(cfg.Validate())
}

func Test_Load_EmptyPath_ReturnsDefaults(t *testing.T) {
	assert := assert.New(t)
	cfg, err := Load("")
	if !assert.NoError(err) {
		return
	}
	assert.Equal(DefaultMaxErrors, cfg.MaxErrors)
}

func Test_Load_ParsesTOML(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "lelwel.toml")
	content := `
max_errors = 25
log_level = "debug"

[cache]
enabled = true
path = "custom.sqlite"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(25, cfg.MaxErrors)
	assert.Equal(LogLevelDebug, cfg.LogLevel)
	assert.True(cfg.Cache.Enabled)
	assert.Equal("custom.sqlite", cfg.Cache.Path)
	assert.NoError(cfg.Validate())
}

func Test_Load_MalformedTOML_ReturnsError(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("max_errors = [this is not valid"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	assert.Error(err)
}

func Test_Validate_RejectsBadLogLevel(t *testing.T) {
	assert := assert.New(t)
	cfg := Config{MaxErrors: 10, LogLevel: "verbose"}
	assert.Error(cfg.Validate())
}

func Test_Validate_RejectsZeroMaxErrors(t *testing.T) {
	assert := assert.New(t)
	cfg := Config{MaxErrors: 0, LogLevel: LogLevelInfo}
	assert.Error(cfg.Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsAbortAbort(t *testing.T) {
	cfg := Default()
	assert.Equal(t, PolicyAbort, cfg.OnParseErr)
	assert.Equal(t, PolicyAbort, cfg.OnStateErr)
	assert.Equal(t, DefaultFallbackName, cfg.FallbackName())
	assert.Equal(t, DefaultFallbackEmail, cfg.FallbackEmail())
}

func TestUnmarshalOverridesIdentity(t *testing.T) {
	cfg, err := Unmarshal([]byte("commit_user: Jane Migrator\ncommit_email: jane@example.com\n"))
	assert.NoError(t, err)
	assert.Equal(t, "Jane Migrator", cfg.FallbackName())
	assert.Equal(t, "jane@example.com", cfg.FallbackEmail())
}

func TestUnmarshalSkipPolicy(t *testing.T) {
	cfg, err := Unmarshal([]byte("on_parse_error: skip\non_state_mismatch: skip\n"))
	assert.NoError(t, err)
	assert.Equal(t, PolicySkip, cfg.OnParseErr)
	assert.Equal(t, PolicySkip, cfg.OnStateErr)
}

func TestUnmarshalRejectsBadPolicy(t *testing.T) {
	_, err := Unmarshal([]byte("on_parse_error: retry\n"))
	assert.Error(t, err)
}

func TestUnmarshalRejectsPartialIdentity(t *testing.T) {
	_, err := Unmarshal([]byte("commit_user: Jane\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c9rev2git.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("commit_user: Bot\ncommit_email: bot@example.com\n"), 0644))

	cfg, err := LoadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "Bot", cfg.FallbackName())
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("/no/such/file.yaml")
	assert.Error(t, err)
}

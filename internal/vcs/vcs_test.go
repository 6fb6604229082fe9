package vcs

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func TestInitCreatesRootCommit(t *testing.T) {
	requireGit(t)
	dir := filepath.Join(t.TempDir(), "repo")

	r, err := Init(dir, "Test Bot", "bot@example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, r.Head())
	assert.Len(t, r.Chain, 1)
	assert.Equal(t, "Initial commit", r.Chain[0].Message)
	assert.Empty(t, r.Chain[0].Parent)
}

func TestInitFailsIfDirExists(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	_, err := Init(dir, "Test Bot", "bot@example.com")
	assert.ErrorIs(t, err, ErrIO)
}

func TestCommitChainsOffPreviousHead(t *testing.T) {
	requireGit(t)
	dir := filepath.Join(t.TempDir(), "repo")
	r, err := Init(dir, "Test Bot", "bot@example.com")
	assert.NoError(t, err)
	root := r.Head()

	assert.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("Hello"), 0644))
	assert.NoError(t, r.Commit("hello.txt", 1))
	assert.NotEqual(t, root, r.Head())
	assert.Len(t, r.Chain, 2)
	assert.Equal(t, root, r.Chain[1].Parent)
	assert.Equal(t, "./hello.txt [rev: 1]", r.Chain[1].Message)

	assert.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("Hello there"), 0644))
	assert.NoError(t, r.Commit("hello.txt", 2))
	assert.Len(t, r.Chain, 3)
	assert.Equal(t, r.Chain[1].SHA, r.Chain[2].Parent)
}

func TestCommitOfMissingFileFails(t *testing.T) {
	requireGit(t)
	dir := filepath.Join(t.TempDir(), "repo")
	r, err := Init(dir, "Test Bot", "bot@example.com")
	assert.NoError(t, err)
	err = r.Commit("does-not-exist.txt", 1)
	assert.ErrorIs(t, err, ErrCommitFailed)
}

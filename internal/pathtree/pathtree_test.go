package pathtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummaryCountsFilesAndDirs(t *testing.T) {
	var tr Tree
	tr.AddFile("hello.txt")
	tr.AddFile("a/b/c.txt")
	tr.AddFile("a/d.txt")

	s := tr.Summary()
	assert.Equal(t, 3, s.Files)
	assert.Equal(t, 2, s.Dirs) // "a" and "a/b"
}

func TestSummaryDeduplicatesSharedDirectories(t *testing.T) {
	var tr Tree
	tr.AddFile("a/one.txt")
	tr.AddFile("a/two.txt")

	s := tr.Summary()
	assert.Equal(t, 2, s.Files)
	assert.Equal(t, 1, s.Dirs)
}

func TestEmptyTree(t *testing.T) {
	var tr Tree
	s := tr.Summary()
	assert.Equal(t, 0, s.Files)
	assert.Equal(t, 0, s.Dirs)
}

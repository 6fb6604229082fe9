// Package graph renders the replay's linear commit chain as a Graphviz
// DOT file (and, optionally, a PNG).
package graph

import (
	"fmt"
	"os"

	"github.com/emicklei/dot"
	graphviz "github.com/goccy/go-graphviz"
	"github.com/sirupsen/logrus"

	"github.com/bolt-blue/c9rev2git/internal/vcs"
)

// Build renders chain (the ordered commit history) as a directed
// Graphviz graph: one node per commit labelled with its short SHA and
// commit message, and an edge from each commit's parent to that commit,
// forming a straight path from root to HEAD.
func Build(chain []vcs.Commit) *dot.Graph {
	g := dot.NewGraph(dot.Directed)
	nodes := make([]dot.Node, len(chain))
	for i, c := range chain {
		label := c.Message
		if len(c.SHA) >= 7 {
			label = fmt.Sprintf("%s\n%s", c.SHA[:7], c.Message)
		}
		nodes[i] = g.Node(label)
	}
	for i := 1; i < len(chain); i++ {
		g.Edge(nodes[i-1], nodes[i])
	}
	return g
}

// WriteDOT writes the DOT-format source for chain to path.
func WriteDOT(chain []vcs.Commit, path string) error {
	g := Build(chain)
	return os.WriteFile(path, []byte(g.String()), 0644)
}

// WritePNG rasterises chain's DOT graph to a PNG at path using
// github.com/goccy/go-graphviz. Rendering is a diagnostic extra, not core
// functionality: failures (e.g. the local layout engine being
// unavailable) are logged as a warning rather than returned as an error.
func WritePNG(chain []vcs.Commit, path string, logger *logrus.Logger) {
	g := Build(chain)
	gv := graphviz.New()
	parsed, err := graphviz.ParseBytes([]byte(g.String()))
	if err != nil {
		logger.Warnf("graph: failed to parse DOT source for PNG rendering: %v", err)
		return
	}
	defer parsed.Close()
	defer gv.Close()
	if err := gv.RenderFilename(parsed, graphviz.PNG, path); err != nil {
		logger.Warnf("graph: failed to render PNG: %v", err)
	}
}

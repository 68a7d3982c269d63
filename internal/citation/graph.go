// Package citation searches the citation graph of an exported corpus.
package citation

import (
	"errors"
	"fmt"

	"github.com/jiekaitao/litmap/internal/export"
)

// ErrUnknownArticle is returned when a traversal starts from an article the
// graph does not contain.
var ErrUnknownArticle = errors.New("article not in citation graph")

// Graph is a directed graph from each article to the articles it references.
// Neighbour order follows the reference order of the export, so traversals
// are deterministic.
type Graph struct {
	adj   map[string][]string
	nodes []string // Insertion order
}

// NewGraph builds the citation graph of records. Referenced articles that are
// not themselves in records become nodes without outgoing edges.
func NewGraph(records []export.Record) *Graph {
	g := &Graph{adj: make(map[string][]string, len(records))}
	for _, r := range records {
		g.addNode(r.ID)
	}
	for _, r := range records {
		seen := make(map[string]bool, len(r.References))
		for _, ref := range r.References {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			g.addNode(ref)
			g.adj[r.ID] = append(g.adj[r.ID], ref)
		}
	}
	return g
}

func (g *Graph) addNode(id string) {
	if _, ok := g.adj[id]; ok {
		return
	}
	g.adj[id] = nil
	g.nodes = append(g.nodes, id)
}

// Has reports whether id is a node.
func (g *Graph) Has(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Edges returns the number of citation edges.
func (g *Graph) Edges() int {
	n := 0
	for _, out := range g.adj {
		n += len(out)
	}
	return n
}

// References returns the articles id cites.
func (g *Graph) References(id string) []string {
	return g.adj[id]
}

func (g *Graph) checkEndpoints(src, dst string) error {
	if !g.Has(src) {
		return fmt.Errorf("%w: %s", ErrUnknownArticle, src)
	}
	if !g.Has(dst) {
		return fmt.Errorf("%w: %s", ErrUnknownArticle, dst)
	}
	return nil
}

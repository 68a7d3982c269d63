package citation

// Step records the discovery of a node during a traversal. Parent is empty
// for the start node.
type Step struct {
	Node   string `json:"node"`
	Parent string `json:"parent,omitempty"`
}

// TraversalResult is the outcome of a search from one article to another.
type TraversalResult struct {
	Distance int      `json:"distance"` // Edges on Path, -1 if unreachable
	Path     []string `json:"path"`     // Empty if unreachable
	Visited  []string `json:"visited"`  // Nodes in visit order
	Steps    []Step   `json:"steps"`    // Discovery tree edges in order
}

// Found reports whether a path exists.
func (r *TraversalResult) Found() bool {
	return r.Distance >= 0
}

// BFS finds a shortest citation path from src to dst.
func (g *Graph) BFS(src, dst string) (*TraversalResult, error) {
	if err := g.checkEndpoints(src, dst); err != nil {
		return nil, err
	}

	res := &TraversalResult{
		Distance: -1,
		Path:     []string{},
		Visited:  []string{src},
		Steps:    []Step{{Node: src}},
	}
	if src == dst {
		res.Distance = 0
		res.Path = []string{src}
		return res, nil
	}

	visited := map[string]bool{src: true}
	dist := map[string]int{src: 0}
	parent := map[string]string{}
	queue := []string{src}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, v := range g.References(u) {
			// The target is accepted on first sight, before it is marked visited.
			if v == dst {
				res.Distance = dist[u] + 1
				res.Path = pathTo(parent, src, u, dst)
				return res, nil
			}
			if visited[v] {
				continue
			}
			visited[v] = true
			dist[v] = dist[u] + 1
			parent[v] = u
			queue = append(queue, v)
			res.Visited = append(res.Visited, v)
			res.Steps = append(res.Steps, Step{Node: v, Parent: u})
		}
	}
	return res, nil
}

// pathTo walks parent links back from u and appends dst.
func pathTo(parent map[string]string, src, u, dst string) []string {
	var rev []string
	for cur := u; cur != src; cur = parent[cur] {
		rev = append(rev, cur)
	}
	path := make([]string, 0, len(rev)+2)
	path = append(path, src)
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}
	return append(path, dst)
}

// DFS returns the first citation path from src to dst found depth-first.
// The path is not necessarily the shortest.
func (g *Graph) DFS(src, dst string) (*TraversalResult, error) {
	if err := g.checkEndpoints(src, dst); err != nil {
		return nil, err
	}

	d := &dfsState{
		g:       g,
		dst:     dst,
		visited: map[string]bool{},
		res: &TraversalResult{
			Distance: -1,
			Path:     []string{},
			Steps:    []Step{{Node: src}},
		},
	}
	d.visit(src, "", 0)

	if !d.found {
		d.res.Path = []string{}
	}
	return d.res, nil
}

type dfsState struct {
	g       *Graph
	dst     string
	visited map[string]bool
	found   bool
	res     *TraversalResult
}

func (d *dfsState) visit(node, parent string, depth int) {
	if d.found || d.visited[node] {
		return
	}
	d.visited[node] = true
	d.res.Visited = append(d.res.Visited, node)
	d.res.Path = append(d.res.Path, node)
	if parent != "" {
		d.res.Steps = append(d.res.Steps, Step{Node: node, Parent: parent})
	}

	if node == d.dst {
		d.found = true
		d.res.Distance = depth
		return
	}

	for _, next := range d.g.References(node) {
		if d.visited[next] {
			continue
		}
		d.visit(next, node, depth+1)
		if d.found {
			return
		}
	}

	d.res.Path = d.res.Path[:len(d.res.Path)-1]
}

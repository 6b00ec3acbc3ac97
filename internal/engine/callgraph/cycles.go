package callgraph

// adjacency is the successor list of every vertex over graph edges and
// back-references. Recursion only shows up through the latter.
func (cg *CallGraph) adjacency() [][]int {
	g := cg.Graph
	adj := make([][]int, g.NodeCount())
	for i := range adj {
		adj[i] = append([]int(nil), g.out[i]...)
	}
	for _, ref := range cg.Registry.backRefs {
		from, ok := cg.Registry.Lookup(ref.From)
		if !ok {
			continue
		}
		if to, ok := cg.Registry.Lookup(ref.To); ok {
			adj[from] = append(adj[from], to)
		}
	}
	return adj
}

// DetectCycles returns recursive call chains. Each chain lists the keys on the
// cycle starting from the vertex first reached by the search.
func (cg *CallGraph) DetectCycles() [][]NodeKey {
	g := cg.Graph
	adj := cg.adjacency()
	var cycles [][]NodeKey
	visited := make([]bool, g.NodeCount())
	onStack := make([]bool, g.NodeCount())

	for idx := 0; idx < g.NodeCount(); idx++ {
		if !visited[idx] {
			findCycles(g, adj, idx, visited, onStack, nil, &cycles)
		}
	}
	return cycles
}

func findCycles(g *Graph, adj [][]int, curr int, visited, onStack []bool, path []int, cycles *[][]NodeKey) {
	visited[curr] = true
	onStack[curr] = true
	path = append(path, curr)

	seen := make(map[int]bool)
	for _, next := range adj[curr] {
		if seen[next] {
			continue
		}
		seen[next] = true
		if onStack[next] {
			for i, idx := range path {
				if idx == next {
					cycle := make([]NodeKey, 0, len(path)-i)
					for _, c := range path[i:] {
						cycle = append(cycle, g.nodes[c])
					}
					*cycles = append(*cycles, cycle)
					break
				}
			}
		} else if !visited[next] {
			findCycles(g, adj, next, visited, onStack, path, cycles)
		}
	}

	onStack[curr] = false
}

// FindCallChain returns the shortest caller->callee chain from one key to
// another. Ties are broken by call-site order.
func (cg *CallGraph) FindCallChain(from, to NodeKey) ([]NodeKey, bool) {
	src, ok := cg.Registry.Lookup(from)
	if !ok {
		return nil, false
	}
	dst, ok := cg.Registry.Lookup(to)
	if !ok {
		return nil, false
	}
	if src == dst {
		return []NodeKey{from}, true
	}

	g := cg.Graph
	adj := cg.adjacency()
	prev := make(map[int]int)
	visited := map[int]bool{src: true}
	queue := []int{src}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, next := range adj[curr] {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr
			if next == dst {
				chain := []NodeKey{g.nodes[dst]}
				for n := dst; n != src; {
					n = prev[n]
					chain = append(chain, g.nodes[n])
				}
				for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
					chain[i], chain[j] = chain[j], chain[i]
				}
				return chain, true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

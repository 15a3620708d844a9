package graphir

import "sort"

// LayoutOptions controls node placement.
type LayoutOptions struct {
	OriginX, OriginY float64
	LayerSpacing     float64
	NodeSpacing      float64
	// Sweeps is the number of down/up barycenter passes.
	Sweeps int
}

// DefaultLayoutOptions returns the spacing used by the generator.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{LayerSpacing: 400, NodeSpacing: 200, Sweeps: 4}
}

// LayoutResult summarizes a layout run.
type LayoutResult struct {
	Layers    [][]string
	Crossings int
}

// Layout assigns Layer, Order, X and Y to every node of g. Nodes that carry a
// declared position keep it. Layout reads the edge list but never changes it.
func Layout(g *Graph, opts LayoutOptions) LayoutResult {
	if opts.LayerSpacing == 0 && opts.NodeSpacing == 0 {
		def := DefaultLayoutOptions()
		def.OriginX, def.OriginY = opts.OriginX, opts.OriginY
		opts = def
	}

	succ, pred := adjacency(g)
	layerOf := assignLayers(g, succ, pred)

	depth := 0
	for _, l := range layerOf {
		if l+1 > depth {
			depth = l + 1
		}
	}
	layers := make([][]string, depth)
	for _, id := range g.Order {
		l := layerOf[id]
		layers[l] = append(layers[l], id)
	}

	best := cloneLayers(layers)
	bestCrossings := countCrossings(layers, succ)
	for i := 0; i < opts.Sweeps && bestCrossings > 0; i++ {
		sweep(layers, pred, true)
		sweep(layers, succ, false)
		if c := countCrossings(layers, succ); c < bestCrossings {
			best, bestCrossings = cloneLayers(layers), c
		}
	}

	for l, ids := range best {
		for o, id := range ids {
			n := g.Nodes[id]
			n.Layer, n.Order = l, o
			if n.Declared.HasPosition {
				n.X, n.Y = n.Declared.X, n.Declared.Y
				continue
			}
			n.X = opts.OriginX + float64(l)*opts.LayerSpacing
			n.Y = opts.OriginY + float64(o)*opts.NodeSpacing
		}
	}
	return LayoutResult{Layers: best, Crossings: bestCrossings}
}

// adjacency builds deduplicated successor and predecessor lists in edge
// declaration order. Self loops are ignored.
func adjacency(g *Graph) (succ, pred map[string][]string) {
	succ = make(map[string][]string)
	pred = make(map[string][]string)
	seen := make(map[[2]string]bool)
	for _, e := range g.Edges {
		key := [2]string{e.From.NodeID, e.To.NodeID}
		if key[0] == key[1] || seen[key] {
			continue
		}
		seen[key] = true
		succ[key[0]] = append(succ[key[0]], key[1])
		pred[key[1]] = append(pred[key[1]], key[0])
	}
	return succ, pred
}

// assignLayers gives every node its longest-path distance from a root. What
// is left in a cycle is layered again after dropping the back edges found by
// a depth-first walk in declaration order, so nodes downstream of a cycle
// still sit past it.
func assignLayers(g *Graph, succ, pred map[string][]string) map[string]int {
	layer := make(map[string]int, len(g.Order))
	indeg := make(map[string]int, len(g.Order))
	for _, id := range g.Order {
		indeg[id] = len(pred[id])
	}

	var queue []string
	for _, id := range g.Order {
		if indeg[id] == 0 {
			queue = append(queue, id)
			layer[id] = 0
		}
	}
	placed := make(map[string]bool)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		placed[id] = true
		for _, next := range succ[id] {
			if layer[id]+1 > layer[next] {
				layer[next] = layer[id] + 1
			}
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if len(placed) == len(g.Order) {
		return layer
	}

	back := backEdges(g.Order, succ, placed)
	rest := make(map[string]bool)
	for _, id := range g.Order {
		if placed[id] {
			continue
		}
		rest[id] = true
		indeg[id] = 0
		l := 0
		for _, p := range pred[id] {
			if placed[p] && layer[p]+1 > l {
				l = layer[p] + 1
			}
		}
		layer[id] = l
	}
	for id := range rest {
		for _, p := range pred[id] {
			if rest[p] && !back[[2]string{p, id}] {
				indeg[id]++
			}
		}
	}

	queue = queue[:0]
	for _, id := range g.Order {
		if rest[id] && indeg[id] == 0 {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range succ[id] {
			if !rest[next] || back[[2]string{id, next}] {
				continue
			}
			if layer[id]+1 > layer[next] {
				layer[next] = layer[id] + 1
			}
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	return layer
}

// backEdges returns the edges that close a cycle among the nodes not in
// skip, walking roots in order.
func backEdges(order []string, succ map[string][]string, skip map[string]bool) map[[2]string]bool {
	const (
		open = 1
		done = 2
	)
	back := make(map[[2]string]bool)
	state := make(map[string]int)
	var visit func(id string)
	visit = func(id string) {
		state[id] = open
		for _, next := range succ[id] {
			if skip[next] {
				continue
			}
			switch state[next] {
			case 0:
				visit(next)
			case open:
				back[[2]string{id, next}] = true
			}
		}
		state[id] = done
	}
	for _, id := range order {
		if !skip[id] && state[id] == 0 {
			visit(id)
		}
	}
	return back
}

// sweep reorders each layer by the barycenter of its neighbours' positions.
// With down set, layers are visited top to bottom using predecessors;
// otherwise bottom to top using successors.
func sweep(layers [][]string, neighbours map[string][]string, down bool) {
	pos := positions(layers)
	visit := func(l int) {
		ids := layers[l]
		bary := make(map[string]float64, len(ids))
		for i, id := range ids {
			ns := neighbours[id]
			if len(ns) == 0 {
				bary[id] = float64(i)
				continue
			}
			sum := 0.0
			for _, n := range ns {
				sum += float64(pos[n])
			}
			bary[id] = sum / float64(len(ns))
		}
		sort.SliceStable(ids, func(a, b int) bool { return bary[ids[a]] < bary[ids[b]] })
		for i, id := range ids {
			pos[id] = i
		}
	}
	if down {
		for l := 1; l < len(layers); l++ {
			visit(l)
		}
		return
	}
	for l := len(layers) - 2; l >= 0; l-- {
		visit(l)
	}
}

func positions(layers [][]string) map[string]int {
	pos := make(map[string]int)
	for _, ids := range layers {
		for i, id := range ids {
			pos[id] = i
		}
	}
	return pos
}

// countCrossings counts pairwise crossings between edges joining adjacent
// layers. Edges that span more than one layer are not counted.
func countCrossings(layers [][]string, succ map[string][]string) int {
	pos := positions(layers)
	layerOf := make(map[string]int)
	for l, ids := range layers {
		for _, id := range ids {
			layerOf[id] = l
		}
	}

	total := 0
	for l := 0; l+1 < len(layers); l++ {
		var edges [][2]int
		for _, u := range layers[l] {
			for _, v := range succ[u] {
				if layerOf[v] == l+1 {
					edges = append(edges, [2]int{pos[u], pos[v]})
				}
			}
		}
		for i := 0; i < len(edges); i++ {
			for j := i + 1; j < len(edges); j++ {
				a, b := edges[i], edges[j]
				if (a[0] < b[0] && a[1] > b[1]) || (a[0] > b[0] && a[1] < b[1]) {
					total++
				}
			}
		}
	}
	return total
}

func cloneLayers(layers [][]string) [][]string {
	out := make([][]string, len(layers))
	for i, l := range layers {
		out[i] = append([]string(nil), l...)
	}
	return out
}

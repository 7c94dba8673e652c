// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clocksync

import (
	"container/heap"
	"math"

	"github.com/efficios/lttv-go/ttime"
)

// edge is one directed, weighted arc of the synchronisation graph:
// trace From can be re-expressed in terms of To using (Pair.X,
// Pair.D0), at residual cost Pair.E.
type edge struct {
	to     TraceIndex
	weight float64
	pair   *Pair
}

type graph struct {
	nodes []TraceIndex
	adj   map[TraceIndex][]edge
}

func buildGraph(n int, pairs map[[2]TraceIndex]*Pair) *graph {
	g := &graph{adj: make(map[TraceIndex][]edge)}
	for i := 0; i < n; i++ {
		g.nodes = append(g.nodes, TraceIndex(i))
	}
	for key, p := range pairs {
		if math.IsInf(p.E, 1) {
			continue
		}
		j, i := key[0], key[1]
		// p fits t_j in terms of t_i; the edge runs i -> j (i is the
		// "from" node we already know the time of).
		g.adj[i] = append(g.adj[i], edge{to: j, weight: p.E, pair: p})
	}
	return g
}

type pqItem struct {
	node TraceIndex
	dist float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].dist < pq[j].dist }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	it := old[n-1]
	*pq = old[:n-1]
	return it
}

// dijkstra computes, from src, the minimum-cumulative-error distance
// to every reachable node plus the edge used to reach it on the
// shortest path.
func dijkstra(g *graph, src TraceIndex) (dist map[TraceIndex]float64, via map[TraceIndex]edge) {
	dist = map[TraceIndex]float64{src: 0}
	via = map[TraceIndex]edge{}
	visited := map[TraceIndex]bool{}

	pq := &priorityQueue{{src, 0}}
	heap.Init(pq)
	for pq.Len() > 0 {
		top := heap.Pop(pq).(pqItem)
		if visited[top.node] {
			continue
		}
		visited[top.node] = true
		for _, e := range g.adj[top.node] {
			nd := top.dist + e.weight
			if d, ok := dist[e.to]; !ok || nd < d {
				dist[e.to] = nd
				via[e.to] = edge{to: top.node, weight: e.weight, pair: e.pair}
				heap.Push(pq, pqItem{e.to, nd})
			}
		}
	}
	return dist, via
}

// components groups the graph's nodes by weak connectivity (an edge
// in either direction links two nodes into the same component), so
// that each component can be corrected independently.
func components(g *graph) [][]TraceIndex {
	undirected := make(map[TraceIndex][]TraceIndex)
	for from, edges := range g.adj {
		for _, e := range edges {
			undirected[from] = append(undirected[from], e.to)
			undirected[e.to] = append(undirected[e.to], from)
		}
	}

	seen := make(map[TraceIndex]bool)
	var comps [][]TraceIndex
	for _, n := range g.nodes {
		if seen[n] {
			continue
		}
		var comp []TraceIndex
		stack := []TraceIndex{n}
		seen[n] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, cur)
			for _, nb := range undirected[cur] {
				if !seen[nb] {
					seen[nb] = true
					stack = append(stack, nb)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

// chooseReference picks the node in comp with the smallest
// sum-of-distances to every other node in its component.
func chooseReference(g *graph, comp []TraceIndex) TraceIndex {
	best := comp[0]
	bestSum := math.Inf(1)
	for _, n := range comp {
		dist, _ := dijkstra(g, n)
		sum := 0.0
		for _, other := range comp {
			if other == n {
				continue
			}
			if d, ok := dist[other]; ok {
				sum += d
			} else {
				sum = math.Inf(1)
				break
			}
		}
		if sum < bestSum {
			bestSum = sum
			best = n
		}
	}
	return best
}

// factorsForComponent computes every node's Factor relative to ref by
// composing the edge factors along its shortest path to the
// reference.
func factorsForComponent(g *graph, comp []TraceIndex, ref TraceIndex) map[TraceIndex]ttime.Factor {
	_, via := dijkstra(g, ref)

	factors := map[TraceIndex]ttime.Factor{ref: ttime.Identity}

	var resolve func(n TraceIndex) ttime.Factor
	resolve = func(n TraceIndex) ttime.Factor {
		if f, ok := factors[n]; ok {
			return f
		}
		e, ok := via[n]
		if !ok {
			factors[n] = ttime.Identity
			return ttime.Identity
		}
		parent := resolve(e.to)
		f := ttime.Compose(parent, e.pair.X, e.pair.D0)
		factors[n] = f
		return f
	}
	for _, n := range comp {
		resolve(n)
	}
	return factors
}

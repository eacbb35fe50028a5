package transfercore

import "container/heap"

// RouteGraph is the static topology of configured/auto-generated edges.
// It holds no dynamic weights: those are computed on demand per departure
// epoch by calling the Planner.
type RouteGraph struct {
	reg       *Registry
	adjacency map[string][]Edge
}

// NewRouteGraph builds the adjacency list from the registry's edge set.
// The graph is undirected: each Edge is indexed under both endpoints.
func NewRouteGraph(reg *Registry) *RouteGraph {
	g := &RouteGraph{reg: reg, adjacency: make(map[string][]Edge)}
	for _, e := range reg.Edges() {
		g.adjacency[e.A] = append(g.adjacency[e.A], e)
		g.adjacency[e.B] = append(g.adjacency[e.B], e)
	}
	return g
}

// RouteLeg is one hop of a composed route: the edge traversed and its
// Leg solution evaluated at the hop's departure epoch.
type RouteLeg struct {
	Edge     Edge
	Solution LegSolution
}

// pqItem is one entry in the Dijkstra priority queue.
type pqItem struct {
	locID     string
	epochS    float64
	dvSoFarMS float64
	index     int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].dvSoFarMS < pq[j].dvSoFarMS }
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index, pq[j].index = i, j
}
func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// ShortestRoute runs Dijkstra over non-negative Δv weights from fromLoc
// to toLoc, departing at departureS, calling the Planner once per edge
// relaxation. Returns the ordered list of hops. If toLoc is unreachable,
// returns NoFeasibleTransfer.
func ShortestRoute(g *RouteGraph, planner *Planner, fromLoc, toLoc string, departureS float64) ([]RouteLeg, error) {
	if _, err := g.reg.Location(fromLoc); err != nil {
		return nil, err
	}
	if _, err := g.reg.Location(toLoc); err != nil {
		return nil, err
	}

	type visitState struct {
		dvMS    float64
		epochS  float64
		prevLoc string
		prevLeg *RouteLeg
		visited bool
	}
	best := map[string]*visitState{fromLoc: {dvMS: 0, epochS: departureS}}

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{locID: fromLoc, epochS: departureS, dvSoFarMS: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*pqItem)
		state := best[cur.locID]
		if state.visited {
			continue
		}
		if cur.dvSoFarMS > state.dvMS {
			continue
		}
		state.visited = true
		if cur.locID == toLoc {
			break
		}
		for _, e := range g.adjacency[cur.locID] {
			neighbor := e.B
			if e.B == cur.locID {
				neighbor = e.A
			}
			sol, err := planner.SolveLeg(cur.locID, neighbor, cur.epochS, 0)
			if err != nil {
				continue // infeasible edge at this epoch: skip, not fatal to the search
			}
			candDv := cur.dvSoFarMS + sol.DvTotalMS
			candEpoch := cur.epochS + sol.TofS
			next, ok := best[neighbor]
			if !ok || candDv < next.dvMS {
				leg := RouteLeg{Edge: e, Solution: sol}
				best[neighbor] = &visitState{dvMS: candDv, epochS: candEpoch, prevLoc: cur.locID, prevLeg: &leg}
				heap.Push(pq, &pqItem{locID: neighbor, epochS: candEpoch, dvSoFarMS: candDv})
			}
		}
	}

	target, ok := best[toLoc]
	if !ok || !target.visited {
		return nil, &NoFeasibleTransfer{FromLocationID: fromLoc, ToLocationID: toLoc}
	}

	var route []RouteLeg
	for loc := toLoc; loc != fromLoc; {
		state := best[loc]
		if state == nil || state.prevLeg == nil {
			return nil, &NoFeasibleTransfer{FromLocationID: fromLoc, ToLocationID: toLoc}
		}
		route = append([]RouteLeg{*state.prevLeg}, route...)
		loc = state.prevLoc
	}
	return route, nil
}

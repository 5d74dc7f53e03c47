// Package graph wires a set of processing.Node instances into a directed
// acyclic pipeline, validating its shape once at construction time and
// executing it synchronously once per acquired frame without
// parallelizing stages.
package graph

import (
	"fmt"
	"sort"
	"time"

	"github.com/sctg-development/photoacoustic-core/pkg/apperr"
	"github.com/sctg-development/photoacoustic-core/pkg/processing"
)

type edge struct {
	from, to string
}

// NodeStats accumulates per-node processing time across Execute calls.
type NodeStats struct {
	FramesProcessed uint64
	TotalDuration   time.Duration
	FastestDuration time.Duration
	SlowestDuration time.Duration
}

// Average returns TotalDuration / FramesProcessed, or zero if the node
// has never run.
func (s NodeStats) Average() time.Duration {
	if s.FramesProcessed == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.FramesProcessed)
}

func (s *NodeStats) record(d time.Duration) {
	if s.FramesProcessed == 0 || d < s.FastestDuration {
		s.FastestDuration = d
	}
	if d > s.SlowestDuration {
		s.SlowestDuration = d
	}
	s.TotalDuration += d
	s.FramesProcessed++
}

// Statistics is a snapshot of a graph's execution history.
type Statistics struct {
	TotalExecutions  uint64
	FastestExecution time.Duration
	SlowestExecution time.Duration
	ActiveNodeCount  int
	PerNode          map[string]NodeStats
}

// Graph is a directed acyclic pipeline of processing.Node instances. It
// is built with AddNode/Connect/SetInputNode/SetOutputNode, validated
// once with Validate, then driven frame by frame with Execute. A Graph is
// not safe for concurrent Execute calls — the executor that owns it
// drives it from a single goroutine.
type Graph struct {
	nodes        map[string]processing.Node
	order        []string // insertion order, used as the topo-sort tie-break
	edges        []edge
	inputNodeID  string
	outputNodeID string

	topoOrder []string // computed by Validate

	stats            map[string]*NodeStats
	totalExecutions  uint64
	fastestExecution time.Duration
	slowestExecution time.Duration
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]processing.Node),
		stats: make(map[string]*NodeStats),
	}
}

// AddNode registers a node under its own ID. Returns a GraphValidation
// error of kind DuplicateID if the ID is already taken.
func (g *Graph) AddNode(n processing.Node) error {
	id := n.ID()
	if id == "" {
		return &apperr.GraphValidation{Kind: apperr.MissingInput, Detail: "node has an empty id"}
	}
	if _, exists := g.nodes[id]; exists {
		return &apperr.GraphValidation{Kind: apperr.DuplicateID, Detail: id}
	}
	g.nodes[id] = n
	g.order = append(g.order, id)
	g.stats[id] = &NodeStats{}
	return nil
}

// Connect adds a directed edge from one node to another. Both IDs must
// already have been added with AddNode.
func (g *Graph) Connect(from, to string) error {
	if _, ok := g.nodes[from]; !ok {
		return &apperr.GraphValidation{Kind: apperr.UnknownID, Detail: from}
	}
	if _, ok := g.nodes[to]; !ok {
		return &apperr.GraphValidation{Kind: apperr.UnknownID, Detail: to}
	}
	g.edges = append(g.edges, edge{from: from, to: to})
	return nil
}

// SetInputNode designates the node that receives AudioFrameData.
func (g *Graph) SetInputNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return &apperr.GraphValidation{Kind: apperr.UnknownID, Detail: id}
	}
	g.inputNodeID = id
	return nil
}

// SetOutputNode designates the node whose result Execute returns.
func (g *Graph) SetOutputNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return &apperr.GraphValidation{Kind: apperr.UnknownID, Detail: id}
	}
	g.outputNodeID = id
	return nil
}

// Validate checks the graph's shape: every id referenced by an edge
// exists, input/output nodes are designated, every non-input node has
// exactly one incoming edge (the closed set of built-in nodes has no
// fan-in), the graph has no cycle, a path exists from the input node to
// the output node, and every edge connects type-compatible nodes. It
// computes and caches the topological execution order for Execute.
func (g *Graph) Validate() error {
	if g.inputNodeID == "" {
		return &apperr.GraphValidation{Kind: apperr.MissingInput, Detail: "no input node designated"}
	}
	if g.outputNodeID == "" {
		return &apperr.GraphValidation{Kind: apperr.MissingOutput, Detail: "no output node designated"}
	}

	adj := make(map[string][]string, len(g.nodes))
	indegree := make(map[string]int, len(g.nodes))
	incoming := make(map[string][]string, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = 0
	}
	for _, e := range g.edges {
		adj[e.from] = append(adj[e.from], e.to)
		indegree[e.to]++
		incoming[e.to] = append(incoming[e.to], e.from)
	}

	for id := range g.nodes {
		if id == g.inputNodeID {
			continue
		}
		if len(incoming[id]) != 1 {
			return &apperr.GraphValidation{
				Kind:   apperr.MissingInput,
				Detail: fmt.Sprintf("node %q has %d incoming connections, want exactly 1", id, len(incoming[id])),
			}
		}
	}

	for _, e := range g.edges {
		from := g.nodes[e.from]
		to := g.nodes[e.to]
		outKind, fixed := from.OutputType()
		if !fixed {
			continue // passthrough node: accepts whatever it was given, declares nothing new
		}
		if _, ok := to.AcceptsInputTypes()[outKind]; !ok {
			return &apperr.GraphValidation{
				Kind:   apperr.TypeMismatch,
				Detail: fmt.Sprintf("%q produces %q, which %q does not accept", e.from, outKind, e.to),
			}
		}
	}

	order, err := topoSort(g.order, adj, indegree)
	if err != nil {
		return err
	}
	g.topoOrder = order

	if !reachable(adj, g.inputNodeID, g.outputNodeID) {
		return &apperr.GraphValidation{
			Kind:   apperr.NoPathInputToOutput,
			Detail: fmt.Sprintf("no path from %q to %q", g.inputNodeID, g.outputNodeID),
		}
	}
	return nil
}

// topoSort runs Kahn's algorithm, breaking ties by insertion order so
// the same graph definition always executes in the same sequence.
func topoSort(insertionOrder []string, adj map[string][]string, indegree map[string]int) ([]string, error) {
	remaining := make(map[string]int, len(indegree))
	for id, d := range indegree {
		remaining[id] = d
	}

	var ready []string
	for _, id := range insertionOrder {
		if remaining[id] == 0 {
			ready = append(ready, id)
		}
	}

	var order []string
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool {
			return indexOf(insertionOrder, ready[i]) < indexOf(insertionOrder, ready[j])
		})
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, next := range adj[id] {
			remaining[next]--
			if remaining[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(order) != len(indegree) {
		return nil, &apperr.GraphValidation{Kind: apperr.Cycle, Detail: "graph contains a cycle"}
	}
	return order, nil
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func reachable(adj map[string][]string, from, to string) bool {
	if from == to {
		return true
	}
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// Execute runs the graph once against a single AudioFrameData, driving
// every node in topological order, and returns the output node's result.
// Must be called after a successful Validate.
func (g *Graph) Execute(input processing.AudioFrameData) (processing.Data, error) {
	start := time.Now()
	values := make(map[string]processing.Data, len(g.nodes))
	values[g.inputNodeID] = input

	incomingValue := make(map[string]processing.Data, len(g.nodes))
	incomingValue[g.inputNodeID] = input

	for _, id := range g.topoOrder {
		in, ok := incomingValue[id]
		if !ok {
			continue // unreachable from input node; never runs
		}
		node := g.nodes[id]

		nodeStart := time.Now()
		out, err := node.Process(in)
		elapsed := time.Since(nodeStart)
		g.stats[id].record(elapsed)

		if err != nil {
			return nil, &apperr.NodeProcessing{NodeID: id, Cause: err}
		}
		values[id] = out

		for _, e := range g.edges {
			if e.from == id {
				incomingValue[e.to] = out
			}
		}
	}

	result, ok := values[g.outputNodeID]
	if !ok {
		return nil, &apperr.GraphValidation{Kind: apperr.NoPathInputToOutput, Detail: g.outputNodeID}
	}

	elapsed := time.Since(start)
	g.totalExecutions++
	if g.totalExecutions == 1 || elapsed < g.fastestExecution {
		g.fastestExecution = elapsed
	}
	if elapsed > g.slowestExecution {
		g.slowestExecution = elapsed
	}

	return result, nil
}

// Statistics returns a snapshot of the graph's accumulated execution
// history.
func (g *Graph) Statistics() Statistics {
	perNode := make(map[string]NodeStats, len(g.stats))
	for id, s := range g.stats {
		perNode[id] = *s
	}
	return Statistics{
		TotalExecutions:  g.totalExecutions,
		FastestExecution: g.fastestExecution,
		SlowestExecution: g.slowestExecution,
		ActiveNodeCount:  len(g.nodes),
		PerNode:          perNode,
	}
}

// Reset clears every node's internal state (filter memory, record node
// buffers, ...), used on graph teardown.
func (g *Graph) Reset() {
	for _, id := range g.order {
		g.nodes[id].Reset()
	}
}

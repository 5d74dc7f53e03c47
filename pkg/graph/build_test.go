package graph

import (
	"testing"

	"github.com/sctg-development/photoacoustic-core/internal/config"
	"github.com/sctg-development/photoacoustic-core/pkg/computing"
	"github.com/sctg-development/photoacoustic-core/pkg/processing"
)

func TestBuildConstructsAndValidatesGraph(t *testing.T) {
	gc := config.GraphConfig{
		InputNode:  "in",
		OutputNode: "out",
		Nodes: []config.NodeConfig{
			{ID: "in", NodeType: "input"},
			{ID: "diff", NodeType: "differential"},
			{ID: "out", NodeType: "output"},
		},
		Connections: []config.ConnectionConfig{
			{From: "in", To: "diff"},
			{From: "diff", To: "out"},
		},
	}

	g, err := Build(gc, processing.Dependencies{Store: computing.New(16)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(g.nodes))
	}
}

func TestBuildPropagatesUnknownNodeType(t *testing.T) {
	gc := config.GraphConfig{
		InputNode:  "in",
		OutputNode: "out",
		Nodes: []config.NodeConfig{
			{ID: "in", NodeType: "input"},
			{ID: "out", NodeType: "nonsense"},
		},
		Connections: []config.ConnectionConfig{{From: "in", To: "out"}},
	}
	if _, err := Build(gc, processing.Dependencies{}); err == nil {
		t.Fatal("expected error for unknown node type")
	}
}

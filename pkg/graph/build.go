package graph

import (
	"github.com/sctg-development/photoacoustic-core/internal/config"
	"github.com/sctg-development/photoacoustic-core/pkg/processing"
)

// Build constructs and validates a Graph from its config surface: one
// processing.NewBuiltin call per node, one Connect call per edge, then
// Validate.
func Build(gc config.GraphConfig, deps processing.Dependencies) (*Graph, error) {
	g := New()
	for _, nc := range gc.Nodes {
		node, err := processing.NewBuiltin(processing.Config{
			ID:         nc.ID,
			NodeType:   nc.NodeType,
			Parameters: nc.Parameters,
		}, deps)
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}
	for _, c := range gc.Connections {
		if err := g.Connect(c.From, c.To); err != nil {
			return nil, err
		}
	}
	if err := g.SetInputNode(gc.InputNode); err != nil {
		return nil, err
	}
	if err := g.SetOutputNode(gc.OutputNode); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

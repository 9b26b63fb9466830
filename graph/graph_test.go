package graph

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/orcanet/orcanet/types/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphBuild(t *testing.T) {
	g := New("vgg_test")
	in := g.Input("input_0", shapes.Make(dtypes.Float32, 11, 13, 18, 1))
	conv := g.AddNode("body/block_0/conv", "conv3d", shapes.Make(dtypes.Float32, 11, 13, 18, 64), 3*3*3*1*64+64, in)
	act := g.AddNode("body/block_0/activation", "activation:relu", conv.Shape(), 0, conv)

	assert.Equal(t, 3, g.NumNodes())
	assert.Same(t, conv, g.NodeById(conv.Id()))
	assert.Same(t, act, g.NodeByName("body/block_0/activation"))
	assert.Equal(t, []*Node{in}, g.Inputs())
	assert.True(t, in.IsInput())
	assert.False(t, conv.IsInput())
	assert.Equal(t, int64(3*3*3*64+64), g.NumParameters())

	var order []NodeId
	g.EnumerateNodes(func(n *Node) { order = append(order, n.Id()) })
	assert.Equal(t, []NodeId{0, 1, 2}, order)

	g.MarkOutput(act, "n_muon_cat")
	assert.Equal(t, []string{"n_muon_cat"}, g.OutputNames())
	assert.Same(t, act, g.OutputByName("n_muon_cat"))
	assert.Equal(t, "n_muon_cat", act.OutputName())
	assert.Nil(t, g.OutputByName("nope"))

	g2 := New("other")
	assert.NotEqual(t, g.BuildId(), g2.BuildId())
}

func TestGraphPanics(t *testing.T) {
	g := New("broken")
	in := g.Input("input_0", shapes.Make(dtypes.Float32, 4, 1))

	// Duplicate node name.
	require.Panics(t, func() { g.Input("input_0", shapes.Make(dtypes.Float32, 4, 1)) })

	// Node without inputs through AddNode.
	require.Panics(t, func() { g.AddNode("x", "dense", shapes.Make(dtypes.Float32, 4), 0) })

	// Invalid shape.
	require.Panics(t, func() { g.AddNode("x", "dense", shapes.Invalid(), 0, in) })

	// Input node from another graph.
	other := New("other")
	otherIn := other.Input("input_0", shapes.Make(dtypes.Float32, 4, 1))
	require.Panics(t, func() { g.AddNode("x", "dense", shapes.Make(dtypes.Float32, 4), 0, otherIn) })
	require.Panics(t, func() { g.MarkOutput(otherIn, "y") })

	// Duplicate or empty output names.
	dense := g.AddNode("dense", "dense", shapes.Make(dtypes.Float32, 4), 20, in)
	g.MarkOutput(dense, "y")
	require.Panics(t, func() { g.MarkOutput(dense, "y") })
	require.Panics(t, func() { g.MarkOutput(dense, "") })

	require.Panics(t, func() { g.NodeById(NodeId(99)) })
}

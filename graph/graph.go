/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package graph defines Graph, the symbolic DAG of layer nodes produced by
// assembling a model definition.
//
// A Graph only describes the computation: every node carries an op tag, the
// shape of one sample at that point of the model and the number of trainable
// parameters the node will own. Materializing the numeric computation is the
// job of the external deep-learning library that consumes the Graph.
//
// Graphs are built strictly append-only: nodes are added in topological
// order, each referring only to previously added nodes. Once assembly hands a
// Graph to the caller, it is not modified anymore, and concurrent reads are
// safe.
package graph

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"github.com/orcanet/orcanet/types/shapes"
	"k8s.io/klog/v2"
)

// NodeId is a unique identifier of a node within a Graph, densely allocated
// in insertion order.
type NodeId int

// InvalidNodeId represents an invalid (or non-existent) node.
const InvalidNodeId = NodeId(-1)

// Node is one layer operation of a Graph. It is created by Graph.AddNode and
// immutable afterwards, except for being marked as a named output.
type Node struct {
	graph      *Graph
	id         NodeId
	name       string
	opType     string
	shape      shapes.Shape
	inputs     []*Node
	numParams  int64
	outputName string
}

// Graph returns the graph that owns the node.
func (n *Node) Graph() *Graph { return n.graph }

// Id returns the unique id of the node within its graph.
func (n *Node) Id() NodeId { return n.id }

// Name returns the unique name of the node within its graph, e.g. "body/block_2/conv".
func (n *Node) Name() string { return n.name }

// OpType returns the operation tag of the node, e.g. "conv2d" or "dropout".
func (n *Node) OpType() string { return n.opType }

// Shape of one sample at the output of this node.
func (n *Node) Shape() shapes.Shape { return n.shape }

// Inputs are the nodes this node consumes. The returned slice is owned by the
// node, don't modify it.
func (n *Node) Inputs() []*Node { return n.inputs }

// NumParameters returns the number of trainable parameters owned by this node.
func (n *Node) NumParameters() int64 { return n.numParams }

// IsInput reports whether the node is a graph input.
func (n *Node) IsInput() bool { return len(n.inputs) == 0 }

// OutputName returns the name binding this node to a loss/metric entry of the
// compile spec, or "" if the node is not a named output.
func (n *Node) OutputName() string { return n.outputName }

// String implements fmt.Stringer.
func (n *Node) String() string {
	var extra string
	if n.outputName != "" {
		extra = fmt.Sprintf(" output=%q", n.outputName)
	}
	return fmt.Sprintf("#%d %s [%s] %s%s", n.id, n.name, n.opType, n.shape, extra)
}

// Graph is the DAG of layer nodes of one assembled model.
//
// Create it with New, grow it with Input and AddNode, and bind output leaves
// with MarkOutput. The assembler owns the Graph during construction and hands
// it off to the caller once done.
type Graph struct {
	name    string
	buildId string

	nodes       []*Node
	nodesByName map[string]*Node
	inputs      []*Node

	outputNames []string
	outputs     map[string]*Node
}

// New creates an empty Graph with the given model name.
//
// Every graph gets a unique build id, so independently resolved graphs can be
// told apart in logs even when built from the same configuration.
func New(name string) *Graph {
	return &Graph{
		name:        name,
		buildId:     uuid.NewString(),
		nodesByName: make(map[string]*Node),
		outputs:     make(map[string]*Node),
	}
}

// Name of the model this graph describes.
func (g *Graph) Name() string { return g.name }

// BuildId returns the unique id assigned to this graph at creation.
func (g *Graph) BuildId() string { return g.buildId }

// NumNodes returns the number of nodes added so far.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NodeById returns the node with the given id.
func (g *Graph) NodeById(id NodeId) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		exceptions.Panicf("Graph(%q).NodeById(%d): graph has %d nodes", g.name, id, len(g.nodes))
	}
	return g.nodes[id]
}

// NodeByName returns the node with the given name, or nil if there is none.
func (g *Graph) NodeByName(name string) *Node { return g.nodesByName[name] }

// Inputs returns the graph input nodes, in creation order. The returned slice
// is owned by the graph, don't modify it.
func (g *Graph) Inputs() []*Node { return g.inputs }

// EnumerateNodes calls fn for every node, in insertion (topological) order.
func (g *Graph) EnumerateNodes(fn func(n *Node)) {
	for _, n := range g.nodes {
		fn(n)
	}
}

// Input creates an input node with the given name and per-sample shape.
func (g *Graph) Input(name string, shape shapes.Shape) *Node {
	return g.newNode(name, "input", shape, 0, nil)
}

// AddNode appends a layer node to the graph.
//
// name must be unique within the graph, inputs must belong to this graph, and
// shape must be valid. numParams is the number of trainable parameters the
// node owns. It panics on violations: these are assembler bugs, not
// configuration errors.
func (g *Graph) AddNode(name, opType string, shape shapes.Shape, numParams int64, inputs ...*Node) *Node {
	if len(inputs) == 0 {
		exceptions.Panicf("Graph(%q).AddNode(%q): non-input nodes require at least one input", g.name, name)
	}
	return g.newNode(name, opType, shape, numParams, inputs)
}

func (g *Graph) newNode(name, opType string, shape shapes.Shape, numParams int64, inputs []*Node) *Node {
	if !shape.Ok() {
		exceptions.Panicf("Graph(%q).AddNode(%q): invalid shape", g.name, name)
	}
	if _, found := g.nodesByName[name]; found {
		exceptions.Panicf("Graph(%q).AddNode(%q): node name already taken", g.name, name)
	}
	for _, input := range inputs {
		if input.graph != g {
			exceptions.Panicf("Graph(%q).AddNode(%q): input node %q belongs to a different graph", g.name, name, input.name)
		}
	}
	n := &Node{
		graph:     g,
		id:        NodeId(len(g.nodes)),
		name:      name,
		opType:    opType,
		shape:     shape,
		inputs:    inputs,
		numParams: numParams,
	}
	g.nodes = append(g.nodes, n)
	g.nodesByName[name] = n
	if n.IsInput() {
		g.inputs = append(g.inputs, n)
	}
	klog.V(2).Infof("graph %q: added %s", g.name, n)
	return n
}

// MarkOutput binds a node as a named output leaf of the graph, exposed for
// loss attachment. Output names must be unique.
func (g *Graph) MarkOutput(n *Node, outputName string) {
	if n.graph != g {
		exceptions.Panicf("Graph(%q).MarkOutput(%q): node %q belongs to a different graph", g.name, outputName, n.name)
	}
	if outputName == "" {
		exceptions.Panicf("Graph(%q).MarkOutput: empty output name for node %q", g.name, n.name)
	}
	if _, found := g.outputs[outputName]; found {
		exceptions.Panicf("Graph(%q).MarkOutput(%q): output name already taken", g.name, outputName)
	}
	n.outputName = outputName
	g.outputNames = append(g.outputNames, outputName)
	g.outputs[outputName] = n
}

// OutputNames returns the graph output names, in the order they were marked.
// The returned slice is owned by the graph, don't modify it.
func (g *Graph) OutputNames() []string { return g.outputNames }

// OutputByName returns the output node bound to the given name, or nil.
func (g *Graph) OutputByName(name string) *Node { return g.outputs[name] }

// NumParameters returns the total number of trainable parameters of the model.
func (g *Graph) NumParameters() (total int64) {
	for _, n := range g.nodes {
		total += n.numParams
	}
	return
}

// String prints a one-line-per-node description of the graph.
func (g *Graph) String() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "Graph %q: %d nodes, %d parameters\n", g.name, len(g.nodes), g.NumParameters())
	for _, n := range g.nodes {
		_, _ = fmt.Fprintf(&b, "\t%s\n", n)
	}
	return b.String()
}

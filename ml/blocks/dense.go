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

package blocks

import (
	"github.com/orcanet/orcanet/graph"
	"github.com/orcanet/orcanet/types/shapes"
)

func init() {
	Register("dense_block", NewDenseBlock)
}

// denseParams is the declared parameter set of dense_block.
type denseParams struct {
	auxParams `mapstructure:",squash"`

	Units int `mapstructure:"units"`
}

type denseBlock struct {
	spec Resolved
	p    denseParams
}

// NewDenseBlock builds a "dense_block": a fully connected layer with the
// usual auxiliary sub-layers. A rank > 1 shape cursor is flattened first --
// the transition from the convolutional body to a dense head.
//
// Parameters: units (required), batchnorm, activation, dropout.
func NewDenseBlock(spec Resolved) Block {
	var p denseParams
	decodeParams(spec, &p)
	p.validate(spec)
	requirePositive(spec, "units", p.Units)
	return &denseBlock{spec: spec, p: p}
}

func (b *denseBlock) Type() string { return b.spec.Type }

func (b *denseBlock) Apply(g *graph.Graph, scope string, x *graph.Node) *graph.Node {
	x = flattenIfNeeded(g, scope, x)
	numParams := int64(x.Shape().Size())*int64(b.p.Units) + int64(b.p.Units)
	x = g.AddNode(scope+"/dense", "dense", shapes.Make(x.Shape().DType, b.p.Units), numParams, x)
	return b.p.apply(g, scope, x)
}

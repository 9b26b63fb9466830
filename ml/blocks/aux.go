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
	"fmt"

	"github.com/orcanet/orcanet/graph"
	"github.com/orcanet/orcanet/types/shapes"
)

// Auxiliary sub-layers shared by the block implementations. They are
// attached after the primary transform within the same block, in the fixed
// order batch normalization → activation → dropout → pooling; they are not
// separate user-visible blocks.

// knownActivations is the closed set of activation names a block accepts.
// "none" disables the activation sub-layer.
var knownActivations = map[string]bool{
	"none":       true,
	"relu":       true,
	"leaky_relu": true,
	"sigmoid":    true,
	"tanh":       true,
	"selu":       true,
	"swish":      true,
	"silu":       true, // alias of swish
}

// auxParams are the parameters every block accepts for its auxiliary
// sub-layers. Block parameter structs embed it.
type auxParams struct {
	BatchNorm  bool    `mapstructure:"batchnorm"`
	Activation string  `mapstructure:"activation"`
	Dropout    float64 `mapstructure:"dropout"`
}

// validate fills in defaults and checks the auxiliary parameter values.
func (p *auxParams) validate(spec Resolved) {
	if p.Activation == "" {
		p.Activation = "relu"
	}
	if !knownActivations[p.Activation] {
		panic(&InvalidParameterError{
			BlockType:  spec.Type,
			BlockIndex: spec.Index,
			Key:        "activation",
			Reason:     fmt.Sprintf("unknown activation %q", p.Activation),
		})
	}
	requireUnitRange(spec, "dropout", p.Dropout)
}

// apply attaches the batchnorm → activation → dropout chain to x.
// Pooling, when a block supports it, is attached separately since it changes
// the shape cursor.
func (p *auxParams) apply(g *graph.Graph, scope string, x *graph.Node) *graph.Node {
	if p.BatchNorm {
		// Trainable offset and scale, one of each per channel.
		numParams := int64(2 * x.Shape().Channels())
		x = g.AddNode(scope+"/batchnorm", "batchnorm", x.Shape(), numParams, x)
	}
	if p.Activation != "none" {
		x = g.AddNode(scope+"/activation", "activation:"+p.Activation, x.Shape(), 0, x)
	}
	if p.Dropout > 0 {
		x = g.AddNode(scope+"/dropout", fmt.Sprintf("dropout:%g", p.Dropout), x.Shape(), 0, x)
	}
	return x
}

// applyPooling attaches a pooling node reducing the spatial axes by the
// given sizes. poolSize must have one entry per spatial axis of x, each
// no larger than the corresponding dimension.
func applyPooling(spec Resolved, g *graph.Graph, scope string, x *graph.Node, poolSize []int) *graph.Node {
	shape := x.Shape()
	numSpatial := shape.Rank() - 1
	if len(poolSize) != numSpatial {
		panic(&ShapeMismatchError{
			BlockType:  spec.Type,
			BlockIndex: spec.Index,
			Shape:      shape,
			Reason: fmt.Sprintf("pool_size %v has %d axes, but the input has %d spatial dimensions",
				poolSize, len(poolSize), numSpatial),
		})
	}
	dims := make([]int, 0, shape.Rank())
	for axis, size := range poolSize {
		if size <= 0 || size > shape.Dim(axis) {
			panic(&ShapeMismatchError{
				BlockType:  spec.Type,
				BlockIndex: spec.Index,
				Shape:      shape,
				Reason:     fmt.Sprintf("pool_size %v out of range for axis %d", poolSize, axis),
			})
		}
		dims = append(dims, shape.Dim(axis)/size)
	}
	dims = append(dims, shape.Channels())
	pooled := shapes.Make(shape.DType, dims...)
	return g.AddNode(scope+"/pool", fmt.Sprintf("max_pool:%v", poolSize), pooled, 0, x)
}

// flattenIfNeeded collapses a rank > 1 cursor to a flat feature vector, the
// transition from convolutional to dense stages.
func flattenIfNeeded(g *graph.Graph, scope string, x *graph.Node) *graph.Node {
	shape := x.Shape()
	if shape.Rank() <= 1 {
		return x
	}
	flat := shapes.Make(shape.DType, shape.Size())
	return g.AddNode(scope+"/flatten", "flatten", flat, 0, x)
}

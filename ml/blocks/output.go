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
	Register("output_categorical", NewOutputCategoricalBlock)
	Register("output_regression", NewOutputRegressionBlock)
}

// Output blocks are the head leaves of a model: a final dense layer bound to
// a named graph output, which the compile spec later wires to a loss. They
// implement OutputNamer and are rejected outside head sections.

type outputCategoricalParams struct {
	OutputName string `mapstructure:"output_name"`
	Categories int    `mapstructure:"categories"`
}

type outputCategoricalBlock struct {
	spec Resolved
	p    outputCategoricalParams
}

// NewOutputCategoricalBlock builds an "output_categorical" block: a dense
// layer with one unit per category followed by a softmax, marked as the named
// output.
//
// Parameters: output_name (required), categories (required).
func NewOutputCategoricalBlock(spec Resolved) Block {
	var p outputCategoricalParams
	decodeParams(spec, &p)
	requireOutputName(spec, p.OutputName)
	requirePositive(spec, "categories", p.Categories)
	return &outputCategoricalBlock{spec: spec, p: p}
}

func (b *outputCategoricalBlock) Type() string       { return b.spec.Type }
func (b *outputCategoricalBlock) OutputName() string { return b.p.OutputName }

func (b *outputCategoricalBlock) Apply(g *graph.Graph, scope string, x *graph.Node) *graph.Node {
	x = flattenIfNeeded(g, scope, x)
	outShape := shapes.Make(x.Shape().DType, b.p.Categories)
	numParams := int64(x.Shape().Size())*int64(b.p.Categories) + int64(b.p.Categories)
	x = g.AddNode(scope+"/dense", "dense", outShape, numParams, x)
	x = g.AddNode(scope+"/softmax", "activation:softmax", outShape, 0, x)
	g.MarkOutput(x, b.p.OutputName)
	return x
}

type outputRegressionParams struct {
	OutputName string `mapstructure:"output_name"`
	Units      int    `mapstructure:"units"`
}

type outputRegressionBlock struct {
	spec Resolved
	p    outputRegressionParams
}

// NewOutputRegressionBlock builds an "output_regression" block: a linear
// dense layer with the given number of regression targets, marked as the
// named output.
//
// Parameters: output_name (required), units (required).
func NewOutputRegressionBlock(spec Resolved) Block {
	var p outputRegressionParams
	decodeParams(spec, &p)
	requireOutputName(spec, p.OutputName)
	requirePositive(spec, "units", p.Units)
	return &outputRegressionBlock{spec: spec, p: p}
}

func (b *outputRegressionBlock) Type() string       { return b.spec.Type }
func (b *outputRegressionBlock) OutputName() string { return b.p.OutputName }

func (b *outputRegressionBlock) Apply(g *graph.Graph, scope string, x *graph.Node) *graph.Node {
	x = flattenIfNeeded(g, scope, x)
	outShape := shapes.Make(x.Shape().DType, b.p.Units)
	numParams := int64(x.Shape().Size())*int64(b.p.Units) + int64(b.p.Units)
	x = g.AddNode(scope+"/dense", "dense", outShape, numParams, x)
	g.MarkOutput(x, b.p.OutputName)
	return x
}

func requireOutputName(spec Resolved, name string) {
	if name == "" {
		panic(&InvalidParameterError{
			BlockType:  spec.Type,
			BlockIndex: spec.Index,
			Key:        "output_name",
			Reason:     "output blocks require an output_name to bind losses to",
		})
	}
}

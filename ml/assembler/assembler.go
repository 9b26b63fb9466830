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

// Package assembler composes the body and head block sequences of a model
// definition into one Graph.
//
// The assembler maintains a running shape cursor, initialized from the
// external input shape, and processes resolved blocks strictly in file order:
// each block consumes the current shape, produces a new one and appends its
// nodes to the graph with the previous nodes as input.
//
// All configuration errors (unknown block types, rejected parameters, shape
// mismatches) are detected here, before any training work starts, and
// returned as the typed errors of the ml/blocks package.
package assembler

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/orcanet/orcanet/config"
	"github.com/orcanet/orcanet/graph"
	"github.com/orcanet/orcanet/ml/blocks"
	"github.com/orcanet/orcanet/types/shapes"
	"k8s.io/klog/v2"
)

// Assemble builds the model graph described by the body and head sections,
// threading the shape cursor from inputShape through every block.
//
// The returned Graph is owned by the caller; assembly itself never mutates
// shared state and concurrent Assemble calls are safe.
//
// Configuration errors are returned as *blocks.UnknownBlockTypeError,
// *blocks.InvalidParameterError or *blocks.ShapeMismatchError.
func Assemble(name string, inputShape shapes.Shape, body, head config.SectionSpec) (g *graph.Graph, err error) {
	err = exceptions.TryCatch[error](func() {
		g = assemble(name, inputShape, body, head)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// AssembleModel is a shortcut for Assemble on a parsed model definition file.
func AssembleModel(name string, inputShape shapes.Shape, file *config.ModelFile) (*graph.Graph, error) {
	return Assemble(name, inputShape, file.Body, file.Head)
}

func assemble(name string, inputShape shapes.Shape, body, head config.SectionSpec) *graph.Graph {
	g := graph.New(name)
	x := g.Input("input_0", inputShape)
	x = applySection(g, "body", body, x, false)
	applySection(g, "head", head, x, true)
	if len(g.OutputNames()) == 0 {
		klog.Warningf("model %q was assembled without named outputs, no losses can be attached", name)
	}
	klog.V(1).Infof("assembled model %q: %d nodes, %d parameters, outputs %v",
		name, g.NumNodes(), g.NumParameters(), g.OutputNames())
	return g
}

// applySection resolves a section's defaults against its blocks sequence and
// applies the resulting blocks in file order. Named output blocks are only
// permitted when outputsAllowed (head sections).
func applySection(g *graph.Graph, sectionName string, section config.SectionSpec, x *graph.Node, outputsAllowed bool) *graph.Node {
	rawBlocks := make([]blocks.Params, len(section.Blocks))
	for index, raw := range section.Blocks {
		rawBlocks[index] = blocks.Params(raw)
	}
	for _, spec := range blocks.ResolveSection(blocks.Params(section.Defaults), rawBlocks) {
		block := blocks.Build(spec)
		if _, isOutput := block.(blocks.OutputNamer); isOutput && !outputsAllowed {
			panic(&blocks.InvalidParameterError{
				BlockType:  spec.Type,
				BlockIndex: spec.Index,
				Reason:     fmt.Sprintf("named output blocks are only permitted in the head, not in [%s]", sectionName),
			})
		}
		scope := fmt.Sprintf("%s/block_%d", sectionName, spec.Index)
		x = block.Apply(g, scope, x)
		klog.V(1).Infof("%s: applied %q, shape cursor now %s", scope, spec.Type, x.Shape())
	}
	return x
}

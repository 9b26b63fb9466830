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

// Package blocks implements the layer-block vocabulary of model definition
// files: the registry mapping block type tags to constructors, the
// default/override parameter resolution and the individual block
// implementations (conv_block, dense_block, resnet_block and the output
// blocks).
//
// A Block is one named, parameterized layer-group treated as an atomic
// assembly unit. Inside a block the sub-layer order is fixed: primary
// transform → batch normalization (if enabled) → activation → dropout (if
// rate > 0) → pooling (if size given).
//
// Construction is pure: the same (type tag, resolved parameters) always
// yields a structurally identical subgraph. The registry is populated at
// package initialization and read-only afterwards, so concurrent lookups are
// safe without locking.
//
// Errors are thrown as panics with one of the typed errors of this package
// (UnknownBlockTypeError, InvalidParameterError, ShapeMismatchError); callers
// that want them as plain errors should recover them with
// `exceptions.TryCatch[error]`, as done by the assembler.
package blocks

import (
	"slices"

	"github.com/orcanet/orcanet/graph"
	"golang.org/x/exp/maps"
)

// Params is the parameter mapping of one block, keyed by parameter name.
// Values are scalars or lists, as decoded from the configuration file.
type Params map[string]any

// Block is a resolved, parameterized layer-group, ready to be appended to a
// graph.
type Block interface {
	// Type returns the registered block type tag, e.g. "conv_block".
	Type() string

	// Apply appends the block's nodes to g, consuming x as input, and
	// returns the node holding the block's result -- the new shape cursor.
	// scope prefixes the node names, e.g. "body/block_0".
	//
	// It panics with *ShapeMismatchError if x's shape is incompatible with
	// the block's declared sizes.
	Apply(g *graph.Graph, scope string, x *graph.Node) *graph.Node
}

// OutputNamer is implemented by head blocks that produce a named graph
// output leaf, exposed for loss attachment. Blocks implementing it are only
// permitted in head sections.
type OutputNamer interface {
	OutputName() string
}

// Constructor builds a Block from a resolved block spec. It panics with
// *InvalidParameterError if the spec's parameters are not accepted by the
// block.
type Constructor func(spec Resolved) Block

// knownBlocks maps block type tags to their constructors. It is populated by
// Register calls at package initialization only.
var knownBlocks = map[string]Constructor{}

// Register adds a block constructor under the given type tag. It must only
// be called at process initialization (typically from an init function), the
// registry is treated as read-only afterwards. It panics if the tag is
// already taken.
func Register(typeName string, constructor Constructor) {
	if _, found := knownBlocks[typeName]; found {
		panic(&InvalidParameterError{
			BlockType:  typeName,
			BlockIndex: -1,
			Reason:     "block type registered twice",
		})
	}
	knownBlocks[typeName] = constructor
}

// Lookup returns the constructor registered for the given block type tag.
// It panics with *UnknownBlockTypeError if the tag is not registered.
func Lookup(typeName string) Constructor {
	constructor, found := knownBlocks[typeName]
	if !found {
		panic(&UnknownBlockTypeError{TypeName: typeName, Known: KnownTypes()})
	}
	return constructor
}

// KnownTypes returns the sorted list of registered block type tags.
func KnownTypes() []string {
	types := maps.Keys(knownBlocks)
	slices.Sort(types)
	return types
}

// Build constructs the Block described by a resolved spec, looking up its
// constructor in the registry.
func Build(spec Resolved) Block {
	return Lookup(spec.Type)(spec)
}

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

func init() {
	Register("resnet_block", NewResnetBlock)
}

// resnetParams is the declared parameter set of resnet_block.
type resnetParams struct {
	auxParams `mapstructure:",squash"`

	ConvDim    int   `mapstructure:"conv_dim"`
	Filters    int   `mapstructure:"filters"`
	KernelSize []int `mapstructure:"kernel_size"`
	Strides    []int `mapstructure:"strides"`
}

type resnetBlock struct {
	spec Resolved
	p    resnetParams
}

// NewResnetBlock builds a "resnet_block": two stacked same-padded
// convolutions with batch normalization, plus a residual shortcut. The
// shortcut is the identity when shapes line up, and a 1x1 projection
// convolution when the block changes the number of channels or strides its
// input. The activation is applied after the residual addition.
//
// Parameters: conv_dim (default 2), filters (required), kernel_size (default
// 3), strides (default 1, applied on the first convolution), activation,
// dropout. Batch normalization is always on in this block; setting
// batchnorm=false is rejected rather than silently ignored.
func NewResnetBlock(spec Resolved) Block {
	var p resnetParams
	decodeParams(spec, &p)
	p.validate(spec)

	if hasOverride(spec, "batchnorm") && !p.BatchNorm {
		panic(&InvalidParameterError{
			BlockType:  spec.Type,
			BlockIndex: spec.Index,
			Key:        "batchnorm",
			Reason:     "resnet blocks always normalize, batchnorm=false is not supported",
		})
	}
	p.BatchNorm = true

	if p.ConvDim == 0 {
		p.ConvDim = 2
	}
	if p.ConvDim < 1 || p.ConvDim > 3 {
		panic(&InvalidParameterError{
			BlockType:  spec.Type,
			BlockIndex: spec.Index,
			Key:        "conv_dim",
			Reason:     fmt.Sprintf("only 1D, 2D and 3D convolutions are supported, got conv_dim=%d", p.ConvDim),
		})
	}
	requirePositive(spec, "filters", p.Filters)
	p.KernelSize = expandPerAxis(spec, "kernel_size", p.KernelSize, p.ConvDim, 3)
	p.Strides = expandPerAxis(spec, "strides", p.Strides, p.ConvDim, 1)
	return &resnetBlock{spec: spec, p: p}
}

func (b *resnetBlock) Type() string { return b.spec.Type }

func (b *resnetBlock) Apply(g *graph.Graph, scope string, x *graph.Node) *graph.Node {
	shape := x.Shape()
	if shape.Rank() != b.p.ConvDim+1 {
		panic(&ShapeMismatchError{
			BlockType:  b.spec.Type,
			BlockIndex: b.spec.Index,
			Shape:      shape,
			Reason: fmt.Sprintf("conv_dim=%d requires a [<%d spatial dimensions>, channels] input",
				b.p.ConvDim, b.p.ConvDim),
		})
	}
	inChannels := shape.Channels()
	opType := fmt.Sprintf("conv%dd", b.p.ConvDim)

	// First convolution applies the strides, same padding throughout.
	dims := make([]int, 0, shape.Rank())
	strided := false
	for axis, size := range shape.Spatial() {
		dims = append(dims, convOutputDim(size, b.p.KernelSize[axis], b.p.Strides[axis], true))
		strided = strided || b.p.Strides[axis] != 1
	}
	dims = append(dims, b.p.Filters)
	outShape := shapes.Make(shape.DType, dims...)

	conv1 := g.AddNode(scope+"/conv1", opType, outShape,
		convNumParams(b.p.KernelSize, inChannels, b.p.Filters), x)
	bn1 := g.AddNode(scope+"/batchnorm1", "batchnorm", outShape, int64(2*b.p.Filters), conv1)
	act1 := g.AddNode(scope+"/activation1", "activation:"+b.p.Activation, outShape, 0, bn1)

	conv2 := g.AddNode(scope+"/conv2", opType, outShape,
		convNumParams(b.p.KernelSize, b.p.Filters, b.p.Filters), act1)
	bn2 := g.AddNode(scope+"/batchnorm2", "batchnorm", outShape, int64(2*b.p.Filters), conv2)

	shortcut := x
	if strided || b.p.Filters != inChannels {
		ones := make([]int, b.p.ConvDim)
		for axis := range ones {
			ones[axis] = 1
		}
		shortcut = g.AddNode(scope+"/shortcut", opType, outShape,
			convNumParams(ones, inChannels, b.p.Filters), x)
	}
	out := g.AddNode(scope+"/add", "add", outShape, 0, bn2, shortcut)
	out = g.AddNode(scope+"/activation", "activation:"+b.p.Activation, outShape, 0, out)
	if b.p.Dropout > 0 {
		out = g.AddNode(scope+"/dropout", fmt.Sprintf("dropout:%g", b.p.Dropout), outShape, 0, out)
	}
	return out
}

// convNumParams is the parameter count of one biased convolution.
func convNumParams(kernelSize []int, inChannels, filters int) int64 {
	elems := int64(1)
	for _, k := range kernelSize {
		elems *= int64(k)
	}
	return elems*int64(inChannels)*int64(filters) + int64(filters)
}

// hasOverride reports whether the key was given explicitly on the block.
func hasOverride(spec Resolved, key string) bool {
	for _, override := range spec.Overrides {
		if override == key {
			return true
		}
	}
	return false
}

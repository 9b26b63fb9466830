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
	Register("conv_block", NewConvBlock)
}

// convParams is the declared parameter set of conv_block.
type convParams struct {
	auxParams `mapstructure:",squash"`

	ConvDim    int     `mapstructure:"conv_dim"`
	Filters    int     `mapstructure:"filters"`
	KernelSize []int   `mapstructure:"kernel_size"`
	Strides    []int   `mapstructure:"strides"`
	Padding    string  `mapstructure:"padding"`
	PoolSize   []int   `mapstructure:"pool_size"`
	KernelL2   float64 `mapstructure:"kernel_l2"`
}

type convBlock struct {
	spec Resolved
	p    convParams
}

// NewConvBlock builds a "conv_block": an n-dimensional convolution for
// arbitrary number of spatial dimensions (1D, 2D or 3D), with the usual
// auxiliary sub-layers and optional max-pooling.
//
// Parameters: conv_dim (default 2), filters (required), kernel_size (scalar
// or per-axis list, default 3), strides (scalar or list, default 1), padding
// ("same" or "valid", default "same"), pool_size (optional per-axis list),
// kernel_l2 (default 0), batchnorm, activation, dropout.
func NewConvBlock(spec Resolved) Block {
	var p convParams
	decodeParams(spec, &p)
	p.validate(spec)

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
	switch p.Padding {
	case "":
		p.Padding = "same"
	case "same", "valid":
	default:
		panic(&InvalidParameterError{
			BlockType:  spec.Type,
			BlockIndex: spec.Index,
			Key:        "padding",
			Reason:     fmt.Sprintf("padding must be \"same\" or \"valid\", got %q", p.Padding),
		})
	}
	if p.KernelL2 < 0 {
		panic(&InvalidParameterError{
			BlockType:  spec.Type,
			BlockIndex: spec.Index,
			Key:        "kernel_l2",
			Reason:     "regularization strength must be >= 0",
		})
	}
	return &convBlock{spec: spec, p: p}
}

func (b *convBlock) Type() string { return b.spec.Type }

func (b *convBlock) Apply(g *graph.Graph, scope string, x *graph.Node) *graph.Node {
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
	dims := make([]int, 0, shape.Rank())
	for axis, size := range shape.Spatial() {
		out := convOutputDim(size, b.p.KernelSize[axis], b.p.Strides[axis], b.p.Padding == "same")
		if out < 1 {
			panic(&ShapeMismatchError{
				BlockType:  b.spec.Type,
				BlockIndex: b.spec.Index,
				Shape:      shape,
				Reason: fmt.Sprintf("kernel_size %v with padding %q consumes axis %d entirely",
					b.p.KernelSize, b.p.Padding, axis),
			})
		}
		dims = append(dims, out)
	}
	dims = append(dims, b.p.Filters)

	kernelElems := int64(1)
	for _, k := range b.p.KernelSize {
		kernelElems *= int64(k)
	}
	numParams := kernelElems*int64(shape.Channels())*int64(b.p.Filters) + int64(b.p.Filters)
	opType := fmt.Sprintf("conv%dd", b.p.ConvDim)
	x = g.AddNode(scope+"/conv", opType, shapes.Make(shape.DType, dims...), numParams, x)

	x = b.p.apply(g, scope, x)
	if len(b.p.PoolSize) > 0 {
		x = applyPooling(b.spec, g, scope, x, b.p.PoolSize)
	}
	return x
}

// convOutputDim returns the spatial output dimension of a convolution (or
// pooling window) along one axis: `ceil(in/stride)` with "same" padding and
// `floor((in-kernel)/stride)+1` without.
func convOutputDim(in, kernel, stride int, padSame bool) int {
	if padSame {
		return (in + stride - 1) / stride
	}
	if in < kernel {
		return 0
	}
	return (in-kernel)/stride + 1
}

// expandPerAxis normalizes a scalar-or-list size parameter to one entry per
// spatial axis: empty takes the default, a single entry is repeated.
func expandPerAxis(spec Resolved, key string, values []int, numAxes, defaultValue int) []int {
	switch len(values) {
	case 0:
		values = []int{defaultValue}
		fallthrough
	case 1:
		expanded := make([]int, numAxes)
		for axis := range expanded {
			expanded[axis] = values[0]
		}
		values = expanded
	case numAxes:
	default:
		panic(&InvalidParameterError{
			BlockType:  spec.Type,
			BlockIndex: spec.Index,
			Key:        key,
			Reason:     fmt.Sprintf("want a scalar or %d entries (one per axis), got %v", numAxes, values),
		})
	}
	for _, v := range values {
		if v <= 0 {
			panic(&InvalidParameterError{
				BlockType:  spec.Type,
				BlockIndex: spec.Index,
				Key:        key,
				Reason:     fmt.Sprintf("sizes must be positive, got %v", values),
			})
		}
	}
	return values
}

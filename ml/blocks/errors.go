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

	"github.com/orcanet/orcanet/types/shapes"
)

// UnknownBlockTypeError is reported when a block `type` tag is not present in
// the registry.
type UnknownBlockTypeError struct {
	TypeName string
	Known    []string
}

func (e *UnknownBlockTypeError) Error() string {
	return fmt.Sprintf("unknown block type %q, registered types are %v", e.TypeName, e.Known)
}

// InvalidParameterError is reported when a merged block parameter is not
// accepted by the target block constructor: a key the constructor doesn't
// declare, a value of the wrong type, or a value out of range.
//
// BlockIndex is the position of the offending block within its section
// (`blocks` sequence order), or -1 when the error is not tied to one block.
type InvalidParameterError struct {
	BlockType  string
	BlockIndex int
	Key        string
	Reason     string
}

func (e *InvalidParameterError) Error() string {
	msg := fmt.Sprintf("invalid parameter for block #%d (%q)", e.BlockIndex, e.BlockType)
	if e.Key != "" {
		msg += fmt.Sprintf(", key %q", e.Key)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ShapeMismatchError is reported when a block's declared kernel/pool sizes
// are incompatible with the shape cursor it consumes. It is detected at
// assembly time, never silently broadcast.
type ShapeMismatchError struct {
	BlockType  string
	BlockIndex int
	Shape      shapes.Shape
	Reason     string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch at block #%d (%q) with input shape %s: %s",
		e.BlockIndex, e.BlockType, e.Shape, e.Reason)
}

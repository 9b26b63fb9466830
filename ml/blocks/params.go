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
	"slices"

	"github.com/go-viper/mapstructure/v2"
)

// decodeParams decodes the merged parameters of a resolved spec into the
// block's parameter struct (fields tagged with `mapstructure`).
//
// Scalars are weakly coerced to the declared field types (TOML integers into
// ints and float fields, single scalars into one-element lists). Keys the
// struct doesn't declare are silently ignored when they came from the section
// defaults, and rejected with *InvalidParameterError when they were given
// explicitly on the block.
func decodeParams(spec Resolved, target any) {
	var metadata mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         &metadata,
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		// Broken parameter struct, not a configuration error.
		panic(err)
	}
	if err = decoder.Decode(map[string]any(spec.Params)); err != nil {
		panic(&InvalidParameterError{
			BlockType:  spec.Type,
			BlockIndex: spec.Index,
			Reason:     err.Error(),
		})
	}
	for _, unused := range metadata.Unused {
		if slices.Contains(spec.Overrides, unused) {
			panic(&InvalidParameterError{
				BlockType:  spec.Type,
				BlockIndex: spec.Index,
				Key:        unused,
				Reason:     "parameter not accepted by this block type",
			})
		}
	}
}

// requirePositive panics with *InvalidParameterError unless value > 0.
func requirePositive(spec Resolved, key string, value int) {
	if value <= 0 {
		panic(&InvalidParameterError{
			BlockType:  spec.Type,
			BlockIndex: spec.Index,
			Key:        key,
			Reason:     "must be set to a positive value",
		})
	}
}

// requireUnitRange panics with *InvalidParameterError unless 0 <= value < 1.
func requireUnitRange(spec Resolved, key string, value float64) {
	if value < 0 || value >= 1 {
		panic(&InvalidParameterError{
			BlockType:  spec.Type,
			BlockIndex: spec.Index,
			Key:        key,
			Reason:     "must be in the range [0, 1)",
		})
	}
}

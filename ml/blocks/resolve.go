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
	"slices"

	"golang.org/x/exp/maps"
)

// Resolved is one block spec after the section defaults were merged in:
// the raw per-block mapping wins on key collisions, including for the `type`
// tag itself -- overriding the section's default type is allowed on any
// block, not only the last one of a head.
//
// Resolved specs are immutable after resolution and safe to share.
type Resolved struct {
	// Type is the block type tag, always present after resolution --
	// either explicit on the block or inherited from the section default.
	Type string

	// Index is the position of the block within its `blocks` sequence.
	Index int

	// Params is the merged parameter mapping, without the `type` key.
	Params Params

	// Overrides lists (sorted) the keys given explicitly on the block, as
	// opposed to inherited from the section defaults. Defaults that a block
	// type doesn't declare are silently ignored; explicit keys it doesn't
	// declare are an InvalidParameterError.
	Overrides []string
}

// ResolveSection merges the section defaults into each raw per-block mapping
// of a `blocks` sequence, in order. Resolution is deterministic: resolving
// the same inputs twice yields identical results.
//
// It panics with *InvalidParameterError if a block ends up without a `type`
// tag, or with a non-string one.
func ResolveSection(defaults Params, rawBlocks []Params) []Resolved {
	resolved := make([]Resolved, 0, len(rawBlocks))
	for index, raw := range rawBlocks {
		merged := make(Params, len(defaults)+len(raw))
		maps.Copy(merged, defaults)
		maps.Copy(merged, raw)

		typeValue, found := merged["type"]
		if !found {
			panic(&InvalidParameterError{
				BlockIndex: index,
				Key:        "type",
				Reason:     "no block type given, neither on the block nor as a section default",
			})
		}
		typeName, ok := typeValue.(string)
		if !ok {
			panic(&InvalidParameterError{
				BlockIndex: index,
				Key:        "type",
				Reason:     fmt.Sprintf("block type must be a string, got %T", typeValue),
			})
		}
		delete(merged, "type")

		overrides := make([]string, 0, len(raw))
		for key := range raw {
			if key != "type" {
				overrides = append(overrides, key)
			}
		}
		slices.Sort(overrides)

		resolved = append(resolved, Resolved{
			Type:      typeName,
			Index:     index,
			Params:    merged,
			Overrides: overrides,
		})
	}
	return resolved
}

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

package assembler

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
)

// ModelName derives a stable model name from the architecture tag and the
// binning of each input, e.g. "model_VGG_3d_xyz_muon-CC_to_elec-CC".
//
// Each input contributes "<N>d_<axes>" where N counts the non-singleton axes
// of its `(x, y, z, t)` binning. Full 4D inputs are tagged with the channel
// projection instead: swap when given, otherwise "xyz-c" for 31 time bins
// (channel encoding) and "xyz-t" otherwise. ident, when non-empty, is
// appended -- it usually carries the label identifier.
func ModelName(arch string, nBinsPerInput [][]int, swap, ident string) string {
	var b strings.Builder
	b.WriteString("model_")
	b.WriteString(arch)
	for i, nBins := range nBinsPerInput {
		if len(nBins) != 4 {
			exceptions.Panicf("assembler.ModelName: want 4 bin counts (x, y, z, t) per input, got %v", nBins)
		}
		if i > 0 {
			b.WriteString("_and")
		}
		singletons := 0
		for _, bins := range nBins {
			if bins == 1 {
				singletons++
			}
		}
		_, _ = fmt.Fprintf(&b, "_%dd_", 4-singletons)
		if singletons == 0 {
			switch {
			case swap != "":
				b.WriteString(swap)
			case nBins[3] == 31:
				b.WriteString("xyz-c")
			default:
				b.WriteString("xyz-t")
			}
			continue
		}
		for axis, letter := range []string{"x", "y", "z", "t"} {
			if nBins[axis] > 1 {
				b.WriteString(letter)
			}
		}
	}
	if ident != "" {
		b.WriteString("_")
		b.WriteString(ident)
	}
	return b.String()
}

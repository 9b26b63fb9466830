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

package shapes

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// FromBins converts a binning specification `(x, y, z, t)` into the input
// shape of one sample.
//
// A bin count of 1 means the corresponding axis was projected out of the
// data. 2D and 3D projections keep the remaining axes as spatial dimensions
// and get a trailing channels axis of dimension 1 appended. Full 4D data
// keeps `(x, y, z)` as spatial dimensions and uses the time axis as channels.
//
// It panics if nBins doesn't have exactly 4 entries, if any entry is < 1, or
// if fewer than two axes remain after dropping the projected ones.
func FromBins(dtype dtypes.DType, nBins []int) Shape {
	if len(nBins) != 4 {
		exceptions.Panicf("shapes.FromBins: want 4 bin counts (x, y, z, t), got %v", nBins)
	}
	for _, bins := range nBins {
		if bins < 1 {
			exceptions.Panicf("shapes.FromBins: bin counts must be >= 1, got %v", nBins)
		}
	}
	var kept []int
	for _, bins := range nBins {
		if bins > 1 {
			kept = append(kept, bins)
		}
	}
	switch len(kept) {
	case 2, 3:
		// 2D or 3D projection: a channels axis of 1 is appended.
		return Make(dtype, append(kept, 1)...)
	case 4:
		// Full 4D data: time bins act as channels.
		return Make(dtype, kept...)
	default:
		exceptions.Panicf("shapes.FromBins: at least 2 non-singleton axes required, got %v", nBins)
	}
	return Invalid()
}

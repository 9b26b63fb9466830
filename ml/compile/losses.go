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

package compile

import (
	"github.com/gomlx/exceptions"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Loss is the resolved loss wiring for one named model output.
type Loss struct {
	// Function names the loss. If Custom is true it refers to a loss
	// registered with RegisterCustomLoss, otherwise the name is passed
	// through verbatim to the training framework.
	Function string
	Custom   bool

	// Metrics to record for this output, beyond the loss itself.
	Metrics []string

	// Weight scales this output's loss in the total. Defaults to 1.
	Weight float64
}

// customLosses holds loss functions implemented outside the training
// framework. Names not found here are assumed to be framework built-ins
// and are passed through unchanged.
var customLosses = map[string]bool{}

// RegisterCustomLoss marks name as a custom loss implementation so that
// resolved Loss entries can flag it. Registering twice panics.
func RegisterCustomLoss(name string) {
	if customLosses[name] {
		exceptions.Panicf("custom loss %q registered twice", name)
	}
	customLosses[name] = true
}

// IsCustomLoss reports whether name was registered with RegisterCustomLoss.
func IsCustomLoss(name string) bool {
	return customLosses[name]
}

// KnownCustomLosses returns the sorted names of registered custom losses.
func KnownCustomLosses() []string {
	names := maps.Keys(customLosses)
	slices.Sort(names)
	return names
}

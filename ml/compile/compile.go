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

// Package compile resolves the [compile] section of a model file into a
// training plan: an optimizer with fully defaulted kwargs, plus one loss
// entry per named model output, cross-checked against an assembled graph.
package compile

import (
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/orcanet/orcanet/config"
	"github.com/orcanet/orcanet/graph"
)

// Spec is the resolved training plan of a model file's [compile] section.
type Spec struct {
	Optimizer Optimizer

	// Losses maps each model output name to its loss wiring. Every output
	// of the assembled graph has exactly one entry.
	Losses map[string]Loss
}

// Resolve validates the [compile] section against the assembled graph g and
// returns the training plan. Every graph output must have a loss entry, and
// every loss entry must name a graph output. Loss weights default to 1 and
// metric lists to empty.
func Resolve(section config.CompileSection, g *graph.Graph) (spec *Spec, err error) {
	err = exceptions.TryCatch[error](func() {
		spec = resolve(section, g)
	})
	if err != nil {
		spec = nil
	}
	return
}

func resolve(section config.CompileSection, g *graph.Graph) *Spec {
	spec := &Spec{
		Optimizer: ByName(section.Optimizer, section.Kwargs),
		Losses:    make(map[string]Loss, len(section.Losses)),
	}

	outputs := g.OutputNames()
	outputSet := make(map[string]bool, len(outputs))
	for _, name := range outputs {
		outputSet[name] = true
		if _, found := section.Losses[name]; !found {
			panic(&MissingLossError{OutputName: name})
		}
	}
	for name, entry := range section.Losses {
		if !outputSet[name] {
			panic(&DanglingLossReferenceError{OutputName: name, Outputs: outputs})
		}
		loss := Loss{
			Function: entry.Function,
			Custom:   IsCustomLoss(entry.Function),
			Metrics:  entry.Metrics,
			Weight:   1.0,
		}
		if loss.Metrics == nil {
			loss.Metrics = []string{}
		}
		if entry.Weight != nil {
			loss.Weight = *entry.Weight
		}
		spec.Losses[name] = loss
	}

	klog.V(1).Infof("Resolved compile spec: optimizer=%s, %d loss entries", spec.Optimizer.Name, len(spec.Losses))
	return spec
}

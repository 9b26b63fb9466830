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
	"github.com/go-viper/mapstructure/v2"
	"github.com/gomlx/exceptions"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Optimizer is a resolved optimizer plan: the canonical optimizer name plus
// its complete keyword arguments, with defaults filled in for anything the
// file did not override.
type Optimizer struct {
	Name   string
	Kwargs map[string]any
}

// DefaultOptimizer is used when the [compile] section does not set one.
const DefaultOptimizer = "adam"

// adamKwargs holds the keyword arguments of the "adam" optimizer. The
// epsilon default of 0.1 is deliberately large, it stabilizes training of
// deep models on sparse neutrino-telescope data.
type adamKwargs struct {
	Beta1   float64 `mapstructure:"beta_1"`
	Beta2   float64 `mapstructure:"beta_2"`
	Epsilon float64 `mapstructure:"epsilon"`
	Decay   float64 `mapstructure:"decay"`
}

type sgdKwargs struct {
	Momentum float64 `mapstructure:"momentum"`
	Decay    float64 `mapstructure:"decay"`
	Nesterov bool    `mapstructure:"nesterov"`
}

type adamWKwargs struct {
	adamKwargs  `mapstructure:",squash"`
	WeightDecay float64 `mapstructure:"weight_decay"`
}

// KnownOptimizers maps optimizer names to their resolvers. Each resolver
// takes the raw kwargs from the [compile] section and returns the full
// kwarg set, panicking with an error on unknown keys or bad values.
var KnownOptimizers = map[string]func(kwargs map[string]any) Optimizer{
	"adam":  newAdam,
	"sgd":   newSGD,
	"adamw": newAdamW,
}

// ByName resolves the named optimizer with the given raw kwargs.
// It throws (panics with) an error wrapping *UnknownOptimizerError if the
// name is not registered, or *InvalidOptimizerKwargError for bad kwargs.
// An empty name selects DefaultOptimizer.
func ByName(name string, kwargs map[string]any) Optimizer {
	if name == "" {
		name = DefaultOptimizer
	}
	builder, found := KnownOptimizers[name]
	if !found {
		known := maps.Keys(KnownOptimizers)
		slices.Sort(known)
		panic(&UnknownOptimizerError{Name: name, Known: known})
	}
	return builder(kwargs)
}

func newAdam(kwargs map[string]any) Optimizer {
	cfg := adamKwargs{Beta1: 0.9, Beta2: 0.999, Epsilon: 0.1, Decay: 0.0}
	decodeKwargs("adam", kwargs, &cfg)
	return Optimizer{
		Name: "adam",
		Kwargs: map[string]any{
			"beta_1":  cfg.Beta1,
			"beta_2":  cfg.Beta2,
			"epsilon": cfg.Epsilon,
			"decay":   cfg.Decay,
		},
	}
}

func newSGD(kwargs map[string]any) Optimizer {
	cfg := sgdKwargs{Momentum: 0.9, Decay: 0.0, Nesterov: true}
	decodeKwargs("sgd", kwargs, &cfg)
	return Optimizer{
		Name: "sgd",
		Kwargs: map[string]any{
			"momentum": cfg.Momentum,
			"decay":    cfg.Decay,
			"nesterov": cfg.Nesterov,
		},
	}
}

func newAdamW(kwargs map[string]any) Optimizer {
	cfg := adamWKwargs{
		adamKwargs:  adamKwargs{Beta1: 0.9, Beta2: 0.999, Epsilon: 0.1, Decay: 0.0},
		WeightDecay: 0.004,
	}
	decodeKwargs("adamw", kwargs, &cfg)
	return Optimizer{
		Name: "adamw",
		Kwargs: map[string]any{
			"beta_1":       cfg.Beta1,
			"beta_2":       cfg.Beta2,
			"epsilon":      cfg.Epsilon,
			"decay":        cfg.Decay,
			"weight_decay": cfg.WeightDecay,
		},
	}
}

// decodeKwargs fills target from the raw kwargs map. Unlike block defaults,
// every kwarg under [compile] is explicit, so any unused key is fatal.
func decodeKwargs(optimizer string, kwargs map[string]any, target any) {
	var metadata mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         &metadata,
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		exceptions.Panicf("failed to build kwargs decoder for optimizer %q: %v", optimizer, err)
	}
	if err := decoder.Decode(kwargs); err != nil {
		panic(&InvalidOptimizerKwargError{Optimizer: optimizer, Reason: err.Error()})
	}
	if len(metadata.Unused) > 0 {
		slices.Sort(metadata.Unused)
		panic(&InvalidOptimizerKwargError{
			Optimizer: optimizer,
			Key:       metadata.Unused[0],
			Reason:    "not accepted by this optimizer",
		})
	}
}

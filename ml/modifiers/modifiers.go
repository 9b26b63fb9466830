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

// Package modifiers holds the late-bound data modifiers named by the
// [orca_modifiers] section of a model file. Modifiers are registered by name
// at program start, typically by the binary embedding this library, and
// resolved when the model file is loaded.
package modifiers

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/orcanet/orcanet/config"
)

// Sample maps array names to their batch payloads, either as read from disk
// or as fed to the named network inputs.
type Sample map[string]any

// SampleModifier reorganizes the arrays read from one dataset into the
// name->value map fed to the network inputs.
type SampleModifier interface {
	ModifySample(x Sample) (Sample, error)
}

// LabelModifier builds the name->value map of training targets from the
// event info of a batch.
type LabelModifier interface {
	ModifyLabel(info Sample) (Sample, error)
}

// DatasetModifier merges the samples of multiple datasets into the inputs of
// a multi-input network.
type DatasetModifier interface {
	ModifyDataset(datasets map[string]Sample) (Sample, error)
}

// UnknownModifierError is reported when a model file names a modifier that
// was never registered.
type UnknownModifierError struct {
	Kind  string
	Name  string
	Known []string
}

func (e *UnknownModifierError) Error() string {
	return fmt.Sprintf("unknown %s modifier %q, registered modifiers are %v", e.Kind, e.Name, e.Known)
}

type registry[M any] struct {
	kind   string
	byName map[string]M
}

func (r *registry[M]) register(name string, m M) {
	if _, found := r.byName[name]; found {
		exceptions.Panicf("%s modifier %q registered twice", r.kind, name)
	}
	r.byName[name] = m
}

func (r *registry[M]) lookup(name string) M {
	m, found := r.byName[name]
	if !found {
		panic(&UnknownModifierError{Kind: r.kind, Name: name, Known: r.known()})
	}
	return m
}

func (r *registry[M]) known() []string {
	names := maps.Keys(r.byName)
	slices.Sort(names)
	return names
}

var (
	sampleModifiers  = &registry[SampleModifier]{kind: "sample", byName: map[string]SampleModifier{}}
	labelModifiers   = &registry[LabelModifier]{kind: "label", byName: map[string]LabelModifier{}}
	datasetModifiers = &registry[DatasetModifier]{kind: "dataset", byName: map[string]DatasetModifier{}}
)

// RegisterSampleModifier makes m available under name. Registering the same
// name twice panics.
func RegisterSampleModifier(name string, m SampleModifier) { sampleModifiers.register(name, m) }

// RegisterLabelModifier makes m available under name.
func RegisterLabelModifier(name string, m LabelModifier) { labelModifiers.register(name, m) }

// RegisterDatasetModifier makes m available under name.
func RegisterDatasetModifier(name string, m DatasetModifier) { datasetModifiers.register(name, m) }

// KnownSampleModifiers returns the sorted registered sample modifier names.
func KnownSampleModifiers() []string { return sampleModifiers.known() }

// KnownLabelModifiers returns the sorted registered label modifier names.
func KnownLabelModifiers() []string { return labelModifiers.known() }

// KnownDatasetModifiers returns the sorted registered dataset modifier names.
func KnownDatasetModifiers() []string { return datasetModifiers.known() }

// Set holds the modifiers resolved from one model file. Fields are nil when
// the file does not name a modifier of that kind.
type Set struct {
	Sample  SampleModifier
	Label   LabelModifier
	Dataset DatasetModifier
}

// Resolve looks up the modifiers named by the [orca_modifiers] section.
// A name that was never registered is an error wrapping
// *UnknownModifierError.
func Resolve(section config.ModifiersSection) (set *Set, err error) {
	err = exceptions.TryCatch[error](func() {
		set = &Set{}
		if section.SampleModifier != "" {
			set.Sample = sampleModifiers.lookup(section.SampleModifier)
		}
		if section.LabelModifier != "" {
			set.Label = labelModifiers.lookup(section.LabelModifier)
		}
		if section.DatasetModifier != "" {
			set.Dataset = datasetModifiers.lookup(section.DatasetModifier)
		}
	})
	if err != nil {
		set = nil
	}
	return
}

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

// Package config reads the TOML documents driving a training run: the model
// definition file ([body], [head], [compile], [orca_modifiers]), the run
// configuration file ([config]) and the list file naming the train and
// validation data files per input.
//
// This package only parses and shapes the documents; semantic resolution is
// done by ml/assembler, ml/compile and runconfig respectively.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// SectionSpec is one parsed [body] or [head] section: a free-form
// architecture tag consumed by the external dispatcher, the flat default
// parameter keys applied to every block of the section, and the ordered
// `blocks` sequence of raw per-block mappings.
type SectionSpec struct {
	Architecture string
	Defaults     map[string]any
	Blocks       []map[string]any
}

// CompileSection is the parsed [compile] section: the optimizer name, its
// flat kwargs, and the [compile.losses] table keyed by output name.
type CompileSection struct {
	Optimizer string
	Kwargs    map[string]any
	Losses    map[string]LossEntry
}

// LossEntry is one [compile.losses.<output>] table.
type LossEntry struct {
	Function string   `toml:"function"`
	Metrics  []string `toml:"metrics"`
	Weight   *float64 `toml:"weight"`
}

// ModifiersSection is the parsed [orca_modifiers] section: optional external
// hook functions referenced by name, resolved against ml/modifiers.
type ModifiersSection struct {
	SampleModifier  string `toml:"sample_modifier"`
	LabelModifier   string `toml:"label_modifier"`
	DatasetModifier string `toml:"dataset_modifier"`
}

// ModelFile is a parsed model definition document.
type ModelFile struct {
	Body      SectionSpec
	Head      SectionSpec
	Compile   CompileSection
	Modifiers ModifiersSection
}

// rawModelFile matches the TOML layout; the flat default/kwarg keys of
// [body], [head] and [compile] are mixed with the structured ones, so those
// sections are first decoded as primitives and split apart afterwards.
type rawModelFile struct {
	Body      toml.Primitive   `toml:"body"`
	Head      toml.Primitive   `toml:"head"`
	Compile   toml.Primitive   `toml:"compile"`
	Modifiers ModifiersSection `toml:"orca_modifiers"`
}

// LoadModel reads and shapes a model definition file.
func LoadModel(path string) (*ModelFile, error) {
	var raw rawModelFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, errors.Wrapf(err, "reading model file %q", path)
	}
	file := &ModelFile{}
	if file.Body, err = decodeSection(meta, raw.Body); err != nil {
		return nil, errors.Wrapf(err, "model file %q, section [body]", path)
	}
	if file.Head, err = decodeSection(meta, raw.Head); err != nil {
		return nil, errors.Wrapf(err, "model file %q, section [head]", path)
	}
	if file.Compile, err = decodeCompile(meta, raw.Compile); err != nil {
		return nil, errors.Wrapf(err, "model file %q, section [compile]", path)
	}
	file.Modifiers = raw.Modifiers
	klog.V(1).Infof("loaded model file %q: %d body blocks, %d head blocks, optimizer %q",
		path, len(file.Body.Blocks), len(file.Head.Blocks), file.Compile.Optimizer)
	return file, nil
}

func decodeSection(meta toml.MetaData, prim toml.Primitive) (section SectionSpec, err error) {
	var table map[string]any
	if err = meta.PrimitiveDecode(prim, &table); err != nil {
		return
	}
	section.Defaults = make(map[string]any)
	for key, value := range table {
		switch key {
		case "architecture":
			name, ok := value.(string)
			if !ok {
				return section, errors.Errorf("architecture must be a string, got %T", value)
			}
			section.Architecture = name
		case "blocks":
			if section.Blocks, err = asBlockList(value); err != nil {
				return
			}
		default:
			section.Defaults[key] = value
		}
	}
	return
}

func decodeCompile(meta toml.MetaData, prim toml.Primitive) (compile CompileSection, err error) {
	var table map[string]any
	if err = meta.PrimitiveDecode(prim, &table); err != nil {
		return
	}
	compile.Kwargs = make(map[string]any)
	for key, value := range table {
		switch key {
		case "optimizer":
			name, ok := value.(string)
			if !ok {
				return compile, errors.Errorf("optimizer must be a string, got %T", value)
			}
			compile.Optimizer = name
		case "losses":
			if compile.Losses, err = asLossTable(value); err != nil {
				return
			}
		default:
			compile.Kwargs[key] = value
		}
	}
	return
}

// asBlockList accepts the decodings BurntSushi/toml produces for an array of
// tables.
func asBlockList(value any) ([]map[string]any, error) {
	switch typed := value.(type) {
	case []map[string]any:
		return typed, nil
	case []any:
		list := make([]map[string]any, 0, len(typed))
		for _, element := range typed {
			table, ok := element.(map[string]any)
			if !ok {
				return nil, errors.Errorf("blocks entries must be tables, got %T", element)
			}
			list = append(list, table)
		}
		return list, nil
	default:
		return nil, errors.Errorf("blocks must be an array of tables, got %T", value)
	}
}

func asLossTable(value any) (map[string]LossEntry, error) {
	table, ok := value.(map[string]any)
	if !ok {
		return nil, errors.Errorf("losses must be a table keyed by output name, got %T", value)
	}
	losses := make(map[string]LossEntry, len(table))
	for outputName, rawEntry := range table {
		entryTable, ok := rawEntry.(map[string]any)
		if !ok {
			return nil, errors.Errorf("losses.%s must be a table, got %T", outputName, rawEntry)
		}
		var entry LossEntry
		for key, entryValue := range entryTable {
			switch key {
			case "function":
				name, ok := entryValue.(string)
				if !ok {
					return nil, errors.Errorf("losses.%s.function must be a string, got %T", outputName, entryValue)
				}
				entry.Function = name
			case "metrics":
				list, ok := entryValue.([]any)
				if !ok {
					return nil, errors.Errorf("losses.%s.metrics must be an array of strings, got %T", outputName, entryValue)
				}
				for _, metric := range list {
					name, ok := metric.(string)
					if !ok {
						return nil, errors.Errorf("losses.%s.metrics must be an array of strings, got %T entry", outputName, metric)
					}
					entry.Metrics = append(entry.Metrics, name)
				}
			case "weight":
				switch weight := entryValue.(type) {
				case float64:
					entry.Weight = &weight
				case int64:
					w := float64(weight)
					entry.Weight = &w
				default:
					return nil, errors.Errorf("losses.%s.weight must be a number, got %T", outputName, entryValue)
				}
			default:
				return nil, errors.Errorf("losses.%s has unknown key %q", outputName, key)
			}
		}
		if entry.Function == "" {
			return nil, errors.Errorf("losses.%s is missing required key \"function\"", outputName)
		}
		losses[outputName] = entry
	}
	return losses, nil
}

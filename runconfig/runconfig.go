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

// Package runconfig resolves the [config] section of a run file against a
// fixed schema of training options. Unlike model-file block defaults, run
// options have no inheritance layer: every key in the file is explicit, so
// unknown keys and uncoercible values are fatal.
package runconfig

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/gomlx/exceptions"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"k8s.io/klog/v2"
)

// LearningRate is the normalized learning-rate setting. Exactly one form is
// set: a constant initial rate, an initial rate with per-epoch decay, or a
// named schedule implemented by the training framework.
type LearningRate struct {
	Initial  float64
	Decay    float64
	Schedule string
}

// IsSchedule reports whether the learning rate is a named schedule.
func (lr LearningRate) IsSchedule() bool { return lr.Schedule != "" }

// NGPU describes the multi-GPU setting, a device count plus the
// parallelization mode name.
type NGPU struct {
	Count int
	Mode  string
}

// Config holds the resolved run configuration, every field filled in either
// from the run file or from its default.
type Config struct {
	BatchSize          int
	LearningRate       LearningRate
	EpochsToTrain      int
	ZeroCenterFolder   string
	UseScratchSSD      bool
	Shuffle            bool
	NGPU               NGPU
	TrainLoggerDisplay int
	TrainLoggerFlush   int
	ValidateInterval   int
	Verbose            int
}

// Default returns the configuration used when a run file sets nothing.
// EpochsToTrain -1 means train until interrupted, TrainLoggerFlush -1 means
// flush on every display.
func Default() Config {
	return Config{
		BatchSize:          64,
		LearningRate:       LearningRate{Initial: 0.005},
		EpochsToTrain:      -1,
		NGPU:               NGPU{Count: 1, Mode: "avolkov"},
		TrainLoggerDisplay: 100,
		TrainLoggerFlush:   -1,
		ValidateInterval:   1,
		Verbose:            2,
	}
}

// schema maps each accepted configuration key to its setter. Setters coerce
// weakly typed values and panic with *ConfigTypeError when coercion fails.
var schema = map[string]func(c *Config, value any){
	"batchsize":            func(c *Config, v any) { c.BatchSize = weakInt("batchsize", v) },
	"learning_rate":        func(c *Config, v any) { c.LearningRate = decodeLearningRate(v) },
	"epochs_to_train":      func(c *Config, v any) { c.EpochsToTrain = weakInt("epochs_to_train", v) },
	"zero_center_folder":   func(c *Config, v any) { c.ZeroCenterFolder = weakString("zero_center_folder", v) },
	"use_scratch_ssd":      func(c *Config, v any) { c.UseScratchSSD = weakBool("use_scratch_ssd", v) },
	"shuffle":              func(c *Config, v any) { c.Shuffle = weakBool("shuffle", v) },
	"n_gpu":                func(c *Config, v any) { c.NGPU = decodeNGPU(v) },
	"train_logger_display": func(c *Config, v any) { c.TrainLoggerDisplay = weakInt("train_logger_display", v) },
	"train_logger_flush":   func(c *Config, v any) { c.TrainLoggerFlush = weakInt("train_logger_flush", v) },
	"validate_interval":    func(c *Config, v any) { c.ValidateInterval = weakInt("validate_interval", v) },
	"verbose":              func(c *Config, v any) { c.Verbose = weakInt("verbose", v) },
}

// KnownOptions returns the sorted list of accepted configuration keys.
func KnownOptions() []string {
	keys := maps.Keys(schema)
	slices.Sort(keys)
	return keys
}

// Resolve fills the schema defaults, applies the raw key/value pairs from
// the run file and validates the result. Resolution has no side effects:
// resolving the same map twice yields identical configurations.
func Resolve(raw map[string]any) (cfg *Config, err error) {
	err = exceptions.TryCatch[error](func() {
		cfg = resolve(raw)
	})
	if err != nil {
		cfg = nil
	}
	return
}

func resolve(raw map[string]any) *Config {
	cfg := Default()

	keys := maps.Keys(raw)
	slices.Sort(keys)
	for _, key := range keys {
		setter, found := schema[key]
		if !found {
			panic(&UnknownConfigOptionError{Key: key, Known: KnownOptions()})
		}
		setter(&cfg, raw[key])
	}

	validate(&cfg)
	klog.V(1).Infof("Resolved run configuration: %d keys set, batchsize=%d", len(raw), cfg.BatchSize)
	return &cfg
}

func validate(c *Config) {
	if c.BatchSize <= 0 {
		panic(&ConfigTypeError{Key: "batchsize", Reason: "must be > 0"})
	}
	if !c.LearningRate.IsSchedule() {
		if c.LearningRate.Initial <= 0 {
			panic(&ConfigTypeError{Key: "learning_rate", Reason: "initial rate must be > 0"})
		}
		if c.LearningRate.Decay < 0 {
			panic(&ConfigTypeError{Key: "learning_rate", Reason: "decay must be >= 0"})
		}
	}
	if c.NGPU.Count < 1 {
		panic(&ConfigTypeError{Key: "n_gpu", Reason: "device count must be >= 1"})
	}
	if c.NGPU.Mode != "avolkov" {
		panic(&ConfigTypeError{Key: "n_gpu", Reason: "the only supported parallelization mode is \"avolkov\""})
	}
	if c.ValidateInterval < 1 {
		panic(&ConfigTypeError{Key: "validate_interval", Reason: "must be >= 1"})
	}
}

// decodeLearningRate accepts a bare number (constant rate), a two-element
// [initial, decay] list, or a schedule name string.
func decodeLearningRate(value any) LearningRate {
	var rate float64
	if err := mapstructure.WeakDecode(value, &rate); err == nil {
		return LearningRate{Initial: rate}
	}
	if name, ok := value.(string); ok {
		return LearningRate{Schedule: name}
	}
	var pair []float64
	if err := mapstructure.WeakDecode(value, &pair); err != nil || len(pair) != 2 {
		panic(&ConfigTypeError{
			Key:    "learning_rate",
			Reason: "expected a rate, an [initial, decay] pair or a schedule name",
		})
	}
	return LearningRate{Initial: pair[0], Decay: pair[1]}
}

// decodeNGPU accepts a [count, mode] pair, or a bare count which keeps the
// default mode.
func decodeNGPU(value any) NGPU {
	gpu := NGPU{Count: 1, Mode: "avolkov"}
	if err := mapstructure.WeakDecode(value, &gpu.Count); err == nil {
		return gpu
	}
	list, ok := value.([]any)
	if !ok || len(list) != 2 {
		panic(&ConfigTypeError{Key: "n_gpu", Reason: "expected a count or a [count, mode] pair"})
	}
	gpu.Count = weakInt("n_gpu", list[0])
	gpu.Mode = weakString("n_gpu", list[1])
	return gpu
}

func weakInt(key string, value any) (result int) {
	if err := mapstructure.WeakDecode(value, &result); err != nil {
		panic(&ConfigTypeError{Key: key, Reason: err.Error()})
	}
	return
}

func weakBool(key string, value any) (result bool) {
	if err := mapstructure.WeakDecode(value, &result); err != nil {
		panic(&ConfigTypeError{Key: key, Reason: err.Error()})
	}
	return
}

func weakString(key string, value any) (result string) {
	if err := mapstructure.WeakDecode(value, &result); err != nil {
		panic(&ConfigTypeError{Key: key, Reason: err.Error()})
	}
	return
}

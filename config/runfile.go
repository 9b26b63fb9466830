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

package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// LoadRun reads the flat key → value mapping of the [config] section of a
// run configuration file. Values are returned as parsed -- validation,
// coercion and defaulting are the job of the runconfig package.
func LoadRun(path string) (map[string]any, error) {
	var document struct {
		Config map[string]any `toml:"config"`
	}
	if _, err := toml.DecodeFile(path, &document); err != nil {
		return nil, errors.Wrapf(err, "reading run configuration file %q", path)
	}
	if document.Config == nil {
		return nil, errors.Errorf("run configuration file %q has no [config] section", path)
	}
	klog.V(1).Infof("loaded run configuration %q with %d options", path, len(document.Config))
	return document.Config, nil
}

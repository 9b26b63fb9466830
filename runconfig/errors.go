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

package runconfig

import "fmt"

// UnknownConfigOptionError is reported when the run configuration sets a key
// outside the fixed schema. The run file has no defaults layer, so every key
// is explicit and typos are fatal.
type UnknownConfigOptionError struct {
	Key   string
	Known []string
}

func (e *UnknownConfigOptionError) Error() string {
	return fmt.Sprintf("unknown configuration option %q, valid options are %v", e.Key, e.Known)
}

// ConfigTypeError is reported when a run configuration value cannot be
// coerced to the declared type of its key.
type ConfigTypeError struct {
	Key    string
	Reason string
}

func (e *ConfigTypeError) Error() string {
	return fmt.Sprintf("configuration option %q: %s", e.Key, e.Reason)
}

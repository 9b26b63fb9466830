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

import "fmt"

// UnknownOptimizerError is reported when the [compile] section names an
// optimizer that is not registered.
type UnknownOptimizerError struct {
	Name  string
	Known []string
}

func (e *UnknownOptimizerError) Error() string {
	return fmt.Sprintf("unknown optimizer %q, valid values are %v", e.Name, e.Known)
}

// InvalidOptimizerKwargError is reported when an optimizer kwarg is not
// accepted by the named optimizer, or has a value of the wrong type.
type InvalidOptimizerKwargError struct {
	Optimizer string
	Key       string
	Reason    string
}

func (e *InvalidOptimizerKwargError) Error() string {
	msg := fmt.Sprintf("invalid kwarg for optimizer %q", e.Optimizer)
	if e.Key != "" {
		msg += fmt.Sprintf(", key %q", e.Key)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// MissingLossError is reported when an assembled model output has no
// matching entry in the [compile.losses] table.
type MissingLossError struct {
	OutputName string
}

func (e *MissingLossError) Error() string {
	return fmt.Sprintf("model output %q has no loss entry in [compile.losses]", e.OutputName)
}

// DanglingLossReferenceError is reported when a [compile.losses] entry names
// an output the assembled model does not produce.
type DanglingLossReferenceError struct {
	OutputName string
	Outputs    []string
}

func (e *DanglingLossReferenceError) Error() string {
	return fmt.Sprintf("loss entry %q does not match any model output, the model produces %v",
		e.OutputName, e.Outputs)
}

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

package modifiers

// asIs passes batches through unchanged, for models whose inputs match the
// dataset arrays one to one.
type asIs struct{}

func (asIs) ModifySample(x Sample) (Sample, error)   { return x, nil }
func (asIs) ModifyLabel(info Sample) (Sample, error) { return info, nil }

func init() {
	RegisterSampleModifier("as_is", asIs{})
	RegisterLabelModifier("as_is", asIs{})
}

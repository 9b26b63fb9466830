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
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

// ListFile names the train and validation data files for every model input.
// Every input must declare the same number of train files, and the same
// number of validation files: the training driver walks the inputs in
// lockstep, file by file.
type ListFile struct {
	// TrainFiles and ValidationFiles are keyed by input name.
	TrainFiles      map[string][]string
	ValidationFiles map[string][]string
}

type listFileEntry struct {
	TrainFiles      []string `toml:"train_files"`
	ValidationFiles []string `toml:"validation_files"`
}

// LoadList reads a list file: one TOML table per input, each with
// `train_files` and `validation_files` arrays.
func LoadList(path string) (*ListFile, error) {
	var document map[string]listFileEntry
	if _, err := toml.DecodeFile(path, &document); err != nil {
		return nil, errors.Wrapf(err, "reading list file %q", path)
	}
	if len(document) == 0 {
		return nil, errors.Errorf("list file %q declares no inputs", path)
	}
	list := &ListFile{
		TrainFiles:      make(map[string][]string, len(document)),
		ValidationFiles: make(map[string][]string, len(document)),
	}
	for inputName, entry := range document {
		list.TrainFiles[inputName] = entry.TrainFiles
		list.ValidationFiles[inputName] = entry.ValidationFiles
	}
	if err := sameCount(list.TrainFiles, "train"); err != nil {
		return nil, errors.Wrapf(err, "list file %q", path)
	}
	if err := sameCount(list.ValidationFiles, "validation"); err != nil {
		return nil, errors.Wrapf(err, "list file %q", path)
	}
	return list, nil
}

// Inputs returns the sorted input names.
func (l *ListFile) Inputs() []string {
	inputs := maps.Keys(l.TrainFiles)
	slices.Sort(inputs)
	return inputs
}

// NumTrainFiles returns how many train files each input declares.
func (l *ListFile) NumTrainFiles() int {
	for _, files := range l.TrainFiles {
		return len(files)
	}
	return 0
}

// NumValidationFiles returns how many validation files each input declares.
func (l *ListFile) NumValidationFiles() int {
	for _, files := range l.ValidationFiles {
		return len(files)
	}
	return 0
}

func sameCount(filesPerInput map[string][]string, kind string) error {
	count := -1
	for _, inputName := range sortedKeys(filesPerInput) {
		n := len(filesPerInput[inputName])
		if count == -1 {
			count = n
			continue
		}
		if n != count {
			return errors.Errorf("the specified inputs do not all have the same number of %s files", kind)
		}
	}
	return nil
}

func sortedKeys(m map[string][]string) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadModel(t *testing.T) {
	file, err := LoadModel("testdata/model.toml")
	require.NoError(t, err)

	assert.Equal(t, "single", file.Body.Architecture)
	assert.Equal(t, map[string]any{
		"type":        "conv_block",
		"conv_dim":    int64(3),
		"kernel_size": int64(3),
		"batchnorm":   true,
	}, file.Body.Defaults)
	require.Len(t, file.Body.Blocks, 3)
	assert.Equal(t, map[string]any{"filters": int64(64)}, file.Body.Blocks[0])
	assert.Contains(t, file.Body.Blocks[1], "pool_size")

	assert.Equal(t, "categorical", file.Head.Architecture)
	require.Len(t, file.Head.Blocks, 2)
	assert.Empty(t, file.Head.Blocks[0])
	assert.Equal(t, "output_categorical", file.Head.Blocks[1]["type"])

	assert.Equal(t, "adam", file.Compile.Optimizer)
	assert.Equal(t, map[string]any{"epsilon": 0.1}, file.Compile.Kwargs)
	require.Contains(t, file.Compile.Losses, "n_muon_cat")
	entry := file.Compile.Losses["n_muon_cat"]
	assert.Equal(t, "categorical_crossentropy", entry.Function)
	assert.Equal(t, []string{"acc"}, entry.Metrics)
	assert.Nil(t, entry.Weight, "weight stays unset until compile resolution defaults it")

	assert.Equal(t, "zero_center", file.Modifiers.SampleModifier)
	assert.Empty(t, file.Modifiers.LabelModifier)
}

func TestLoadModelMissing(t *testing.T) {
	_, err := LoadModel("testdata/no_such_file.toml")
	require.Error(t, err)
}

func TestLoadRun(t *testing.T) {
	options, err := LoadRun("testdata/run.toml")
	require.NoError(t, err)
	assert.Equal(t, int64(32), options["batchsize"])
	assert.Equal(t, []any{0.005, 0.07}, options["learning_rate"])
	assert.Equal(t, "/scratch/zero_center", options["zero_center_folder"])
	assert.Equal(t, []any{int64(1), "avolkov"}, options["n_gpu"])

	_, err = LoadRun("testdata/list.toml") // no [config] section
	require.Error(t, err)
}

func TestLoadList(t *testing.T) {
	list, err := LoadList("testdata/list.toml")
	require.NoError(t, err)
	assert.Equal(t, []string{"input_A", "input_B"}, list.Inputs())
	assert.Equal(t, 2, list.NumTrainFiles())
	assert.Equal(t, 1, list.NumValidationFiles())
	assert.Equal(t, []string{"b_train_1.h5", "b_train_2.h5"}, list.TrainFiles["input_B"])

	_, err = LoadList("testdata/list_unbalanced.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same number of train files")
}

package runconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	cfg, err := Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.BatchSize)
	assert.Equal(t, LearningRate{Initial: 0.005}, cfg.LearningRate)
	assert.Equal(t, -1, cfg.EpochsToTrain)
	assert.Equal(t, "", cfg.ZeroCenterFolder)
	assert.False(t, cfg.UseScratchSSD)
	assert.False(t, cfg.Shuffle)
	assert.Equal(t, NGPU{Count: 1, Mode: "avolkov"}, cfg.NGPU)
	assert.Equal(t, 100, cfg.TrainLoggerDisplay)
	assert.Equal(t, -1, cfg.TrainLoggerFlush)
	assert.Equal(t, 1, cfg.ValidateInterval)
	assert.Equal(t, 2, cfg.Verbose)
}

func TestResolveOverrides(t *testing.T) {
	cfg, err := Resolve(map[string]any{
		"batchsize":          int64(32), // TOML integers arrive as int64
		"epochs_to_train":    int64(40),
		"zero_center_folder": "/data/zero_center/",
		"use_scratch_ssd":    true,
		"shuffle":            true,
		"n_gpu":              []any{int64(4), "avolkov"},
		"validate_interval":  int64(2),
		"verbose":            int64(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, 40, cfg.EpochsToTrain)
	assert.Equal(t, "/data/zero_center/", cfg.ZeroCenterFolder)
	assert.True(t, cfg.UseScratchSSD)
	assert.True(t, cfg.Shuffle)
	assert.Equal(t, NGPU{Count: 4, Mode: "avolkov"}, cfg.NGPU)
	assert.Equal(t, 2, cfg.ValidateInterval)
	assert.Equal(t, 1, cfg.Verbose)

	// Defaults still fill everything the file does not set.
	assert.Equal(t, LearningRate{Initial: 0.005}, cfg.LearningRate)
	assert.Equal(t, 100, cfg.TrainLoggerDisplay)
}

func TestResolveWeakCoercion(t *testing.T) {
	cfg, err := Resolve(map[string]any{"batchsize": "32"})
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.BatchSize)

	_, err = Resolve(map[string]any{"batchsize": "thirty-two"})
	require.Error(t, err)
	var typeErr *ConfigTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "batchsize", typeErr.Key)
}

func TestResolveUnknownOption(t *testing.T) {
	_, err := Resolve(map[string]any{"batchsise": int64(32)})
	require.Error(t, err)
	var unknownErr *UnknownConfigOptionError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "batchsise", unknownErr.Key)
	assert.Contains(t, unknownErr.Known, "batchsize")
}

func TestResolveLearningRate(t *testing.T) {
	cfg, err := Resolve(map[string]any{"learning_rate": 0.001})
	require.NoError(t, err)
	assert.Equal(t, LearningRate{Initial: 0.001}, cfg.LearningRate)
	assert.False(t, cfg.LearningRate.IsSchedule())

	cfg, err = Resolve(map[string]any{"learning_rate": []any{0.005, 0.07}})
	require.NoError(t, err)
	assert.Equal(t, LearningRate{Initial: 0.005, Decay: 0.07}, cfg.LearningRate)

	cfg, err = Resolve(map[string]any{"learning_rate": "triangle"})
	require.NoError(t, err)
	assert.Equal(t, LearningRate{Schedule: "triangle"}, cfg.LearningRate)
	assert.True(t, cfg.LearningRate.IsSchedule())

	_, err = Resolve(map[string]any{"learning_rate": []any{0.005, 0.07, 0.1}})
	require.Error(t, err)
	var typeErr *ConfigTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "learning_rate", typeErr.Key)

	_, err = Resolve(map[string]any{"learning_rate": -0.1})
	require.Error(t, err)
}

func TestResolveNGPU(t *testing.T) {
	cfg, err := Resolve(map[string]any{"n_gpu": int64(2)})
	require.NoError(t, err)
	assert.Equal(t, NGPU{Count: 2, Mode: "avolkov"}, cfg.NGPU)

	_, err = Resolve(map[string]any{"n_gpu": []any{int64(2), "mirrored"}})
	require.Error(t, err)
	var typeErr *ConfigTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "n_gpu", typeErr.Key)

	_, err = Resolve(map[string]any{"n_gpu": []any{int64(0), "avolkov"}})
	require.Error(t, err)
}

func TestResolveValidation(t *testing.T) {
	_, err := Resolve(map[string]any{"batchsize": int64(0)})
	require.Error(t, err)

	_, err = Resolve(map[string]any{"validate_interval": int64(0)})
	require.Error(t, err)
}

func TestResolveIdempotent(t *testing.T) {
	raw := map[string]any{
		"batchsize":     int64(16),
		"learning_rate": []any{0.005, 0.07},
		"n_gpu":         []any{int64(2), "avolkov"},
	}
	first, err := Resolve(raw)
	require.NoError(t, err)
	second, err := Resolve(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

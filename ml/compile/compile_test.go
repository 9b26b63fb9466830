package compile

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcanet/orcanet/config"
	"github.com/orcanet/orcanet/graph"
	"github.com/orcanet/orcanet/types/shapes"
)

func catch(fn func()) error {
	return exceptions.TryCatch[error](fn)
}

func floatPtr(v float64) *float64 { return &v }

// twoHeadGraph builds a minimal graph with outputs "energy" and "direction".
func twoHeadGraph(t *testing.T) *graph.Graph {
	g := graph.New("two_heads")
	in := g.Input("input_0", shapes.Make(dtypes.Float32, 16))
	energy := g.AddNode("head/energy", "dense", shapes.Make(dtypes.Float32, 1), 17, in)
	direction := g.AddNode("head/direction", "dense", shapes.Make(dtypes.Float32, 3), 51, in)
	g.MarkOutput(energy, "energy")
	g.MarkOutput(direction, "direction")
	require.Equal(t, []string{"energy", "direction"}, g.OutputNames())
	return g
}

func TestByNameDefaults(t *testing.T) {
	opt := ByName("adam", nil)
	assert.Equal(t, "adam", opt.Name)
	assert.Equal(t, 0.9, opt.Kwargs["beta_1"])
	assert.Equal(t, 0.999, opt.Kwargs["beta_2"])
	assert.Equal(t, 0.1, opt.Kwargs["epsilon"])
	assert.Equal(t, 0.0, opt.Kwargs["decay"])

	opt = ByName("sgd", nil)
	assert.Equal(t, "sgd", opt.Name)
	assert.Equal(t, 0.9, opt.Kwargs["momentum"])
	assert.Equal(t, true, opt.Kwargs["nesterov"])

	opt = ByName("adamw", nil)
	assert.Equal(t, 0.004, opt.Kwargs["weight_decay"])
	assert.Equal(t, 0.1, opt.Kwargs["epsilon"])

	// Empty name selects the default optimizer.
	opt = ByName("", nil)
	assert.Equal(t, "adam", opt.Name)
}

func TestByNameKwargsOverride(t *testing.T) {
	opt := ByName("adam", map[string]any{"epsilon": 1.0, "beta_1": 0.85})
	assert.Equal(t, 1.0, opt.Kwargs["epsilon"])
	assert.Equal(t, 0.85, opt.Kwargs["beta_1"])
	assert.Equal(t, 0.999, opt.Kwargs["beta_2"])

	// Weakly typed values as TOML produces them.
	opt = ByName("sgd", map[string]any{"momentum": int64(1), "nesterov": false})
	assert.Equal(t, 1.0, opt.Kwargs["momentum"])
	assert.Equal(t, false, opt.Kwargs["nesterov"])
}

func TestByNameErrors(t *testing.T) {
	err := catch(func() { ByName("rmsprop", nil) })
	require.Error(t, err)
	var unknownErr *UnknownOptimizerError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "rmsprop", unknownErr.Name)
	assert.Equal(t, []string{"adam", "adamw", "sgd"}, unknownErr.Known)

	// Unknown kwargs are always explicit, hence fatal.
	err = catch(func() { ByName("adam", map[string]any{"momentum": 0.9}) })
	require.Error(t, err)
	var kwargErr *InvalidOptimizerKwargError
	require.ErrorAs(t, err, &kwargErr)
	assert.Equal(t, "adam", kwargErr.Optimizer)
	assert.Equal(t, "momentum", kwargErr.Key)

	// weight_decay only exists for adamw.
	err = catch(func() { ByName("adam", map[string]any{"weight_decay": 0.004}) })
	require.Error(t, err)
}

func TestResolve(t *testing.T) {
	g := twoHeadGraph(t)
	spec, err := Resolve(config.CompileSection{
		Optimizer: "adam",
		Kwargs:    map[string]any{"epsilon": 0.1},
		Losses: map[string]config.LossEntry{
			"energy":    {Function: "mean_absolute_error", Metrics: []string{"mae"}, Weight: floatPtr(2.0)},
			"direction": {Function: "mean_squared_error"},
		},
	}, g)
	require.NoError(t, err)

	assert.Equal(t, "adam", spec.Optimizer.Name)
	require.Len(t, spec.Losses, 2)

	energy := spec.Losses["energy"]
	assert.Equal(t, "mean_absolute_error", energy.Function)
	assert.Equal(t, []string{"mae"}, energy.Metrics)
	assert.Equal(t, 2.0, energy.Weight)

	// Weight defaults to 1 and metrics to empty when not given.
	direction := spec.Losses["direction"]
	assert.Equal(t, 1.0, direction.Weight)
	assert.Empty(t, direction.Metrics)
	assert.NotNil(t, direction.Metrics)
}

func TestResolveMissingLoss(t *testing.T) {
	g := twoHeadGraph(t)
	_, err := Resolve(config.CompileSection{
		Optimizer: "adam",
		Losses: map[string]config.LossEntry{
			"energy": {Function: "mean_absolute_error"},
		},
	}, g)
	require.Error(t, err)
	var missingErr *MissingLossError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "direction", missingErr.OutputName)
}

func TestResolveDanglingLossReference(t *testing.T) {
	g := twoHeadGraph(t)
	_, err := Resolve(config.CompileSection{
		Optimizer: "adam",
		Losses: map[string]config.LossEntry{
			"energy":    {Function: "mean_absolute_error"},
			"direction": {Function: "mean_squared_error"},
			"vertex":    {Function: "mean_squared_error"},
		},
	}, g)
	require.Error(t, err)
	var danglingErr *DanglingLossReferenceError
	require.ErrorAs(t, err, &danglingErr)
	assert.Equal(t, "vertex", danglingErr.OutputName)
	assert.Equal(t, []string{"energy", "direction"}, danglingErr.Outputs)
}

func TestCustomLossRegistry(t *testing.T) {
	require.False(t, IsCustomLoss("gaussian_likelihood"))
	RegisterCustomLoss("gaussian_likelihood")
	require.True(t, IsCustomLoss("gaussian_likelihood"))
	assert.Contains(t, KnownCustomLosses(), "gaussian_likelihood")

	err := catch(func() { RegisterCustomLoss("gaussian_likelihood") })
	require.Error(t, err)

	g := twoHeadGraph(t)
	spec, err := Resolve(config.CompileSection{
		Losses: map[string]config.LossEntry{
			"energy":    {Function: "gaussian_likelihood"},
			"direction": {Function: "mean_squared_error"},
		},
	}, g)
	require.NoError(t, err)
	assert.True(t, spec.Losses["energy"].Custom)
	// Unregistered names pass through to the framework untouched.
	assert.False(t, spec.Losses["direction"].Custom)
}

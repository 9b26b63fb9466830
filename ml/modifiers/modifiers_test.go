package modifiers

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcanet/orcanet/config"
)

// swapInputs renames the "x" array to "input_0", standing in for the kind of
// reorganization a real modifier does.
type swapInputs struct{}

func (swapInputs) ModifySample(x Sample) (Sample, error) {
	out := Sample{}
	for name, value := range x {
		if name == "x" {
			name = "input_0"
		}
		out[name] = value
	}
	return out, nil
}

func TestResolve(t *testing.T) {
	RegisterSampleModifier("swap_inputs", swapInputs{})

	set, err := Resolve(config.ModifiersSection{
		SampleModifier: "swap_inputs",
		LabelModifier:  "as_is",
	})
	require.NoError(t, err)
	require.NotNil(t, set.Sample)
	require.NotNil(t, set.Label)
	assert.Nil(t, set.Dataset)

	got, err := set.Sample.ModifySample(Sample{"x": 1, "y": 2})
	require.NoError(t, err)
	assert.Equal(t, Sample{"input_0": 1, "y": 2}, got)
}

func TestResolveEmptySection(t *testing.T) {
	set, err := Resolve(config.ModifiersSection{})
	require.NoError(t, err)
	assert.Nil(t, set.Sample)
	assert.Nil(t, set.Label)
	assert.Nil(t, set.Dataset)
}

func TestResolveUnknown(t *testing.T) {
	_, err := Resolve(config.ModifiersSection{SampleModifier: "zero_center"})
	require.Error(t, err)
	var unknownErr *UnknownModifierError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "sample", unknownErr.Kind)
	assert.Equal(t, "zero_center", unknownErr.Name)
	assert.Contains(t, unknownErr.Known, "as_is")
}

func TestRegisterTwice(t *testing.T) {
	err := exceptions.TryCatch[error](func() {
		RegisterLabelModifier("as_is", asIs{})
	})
	require.Error(t, err)
}

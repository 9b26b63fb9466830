package shapes

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	s := Make(dtypes.Float32, 11, 13, 18, 1)
	assert.Equal(t, 4, s.Rank())
	assert.Equal(t, 1, s.Channels())
	assert.Equal(t, []int{11, 13, 18}, s.Spatial())
	assert.Equal(t, 11, s.Dim(0))
	assert.Equal(t, 1, s.Dim(-1))
	assert.Equal(t, 11*13*18, s.Size())
	assert.Equal(t, "(Float32)[11 13 18 1]", s.String())

	s2 := s.Clone()
	assert.True(t, s.Equal(s2))
	s2.Dimensions[0] = 7
	assert.False(t, s.Equal(s2), "Clone must not share the dimensions slice")

	assert.False(t, Invalid().Ok())
	assert.True(t, Make(dtypes.Float32).IsScalar())

	require.Panics(t, func() { Make(dtypes.Float32, 3, 0) })
	require.Panics(t, func() { s.Dim(4) })
	require.Panics(t, func() { s.Dim(-5) })
}

func TestFromBins(t *testing.T) {
	// 2D projections drop the singleton axes and append a channels axis.
	s := FromBins(dtypes.Float32, []int{1, 1, 18, 50})
	assert.Equal(t, []int{18, 50, 1}, s.Dimensions)

	s = FromBins(dtypes.Float32, []int{11, 13, 1, 1})
	assert.Equal(t, []int{11, 13, 1}, s.Dimensions)

	// 3D projection.
	s = FromBins(dtypes.Float32, []int{11, 13, 18, 1})
	assert.Equal(t, []int{11, 13, 18, 1}, s.Dimensions)

	s = FromBins(dtypes.Float32, []int{1, 13, 18, 50})
	assert.Equal(t, []int{13, 18, 50, 1}, s.Dimensions)

	// Full 4D: time bins act as channels.
	s = FromBins(dtypes.Float32, []int{11, 13, 18, 50})
	assert.Equal(t, []int{11, 13, 18, 50}, s.Dimensions)

	require.Panics(t, func() { FromBins(dtypes.Float32, []int{11, 13, 18}) })
	require.Panics(t, func() { FromBins(dtypes.Float32, []int{11, 13, 18, 0}) })
	require.Panics(t, func() { FromBins(dtypes.Float32, []int{1, 1, 1, 50}) })
}

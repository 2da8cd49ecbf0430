package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b, want Shape
	}{
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}},
		{Shape{2, 1, 4}, Shape{2, 3, 4}, Shape{2, 3, 4}},
		{Shape{5}, Shape{3, 5}, Shape{3, 5}},
		{Shape{1}, Shape{2, 3, 4}, Shape{2, 3, 4}},
		{Shape{2, 3, 4}, Shape{2, 3, 4}, Shape{2, 3, 4}},
	}
	for _, tt := range tests {
		got, err := BroadcastShapes(tt.a, tt.b)
		require.NoError(t, err)
		assert.True(t, tt.want.Equal(got), "broadcast(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
	}
}

func TestBroadcastShapes_Incompatible(t *testing.T) {
	_, err := BroadcastShapes(Shape{3, 4}, Shape{3, 5})
	assert.Error(t, err)
}

func TestFromSlice(t *testing.T) {
	x, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 6.0, x.At(1, 2))
	assert.Equal(t, 2.0, x.At(0, 1))

	_, err = FromSlice([]float64{1, 2}, Shape{2, 3})
	assert.Error(t, err)
}

func TestReshapeSharesStorage(t *testing.T) {
	x, err := FromSlice([]float64{1, 2, 3, 4}, Shape{2, 2})
	require.NoError(t, err)
	y := x.Reshape(Shape{4})
	y.Set(9, 0)
	assert.Equal(t, 9.0, x.At(0, 0))
}

func TestCloneIsDeep(t *testing.T) {
	x := Ones(Shape{2, 2})
	y := x.Clone()
	y.Set(5, 0, 0)
	assert.Equal(t, 1.0, x.At(0, 0))
}

func TestEye(t *testing.T) {
	e := Eye(2, 3, 2)
	for b := 0; b < 2; b++ {
		for i := 0; i < 3; i++ {
			for j := 0; j < 2; j++ {
				want := 0.0
				if i == j {
					want = 1.0
				}
				assert.Equal(t, want, e.At(b, i, j))
			}
		}
	}
}

func TestCat_Columns(t *testing.T) {
	a, err := FromSlice([]float64{
		1, 2,
		3, 4,
	}, Shape{1, 2, 2})
	require.NoError(t, err)
	b, err := FromSlice([]float64{
		5,
		6,
	}, Shape{1, 2, 1})
	require.NoError(t, err)

	c := Cat(2, a, b)
	require.True(t, Shape{1, 2, 3}.Equal(c.Shape()))
	assert.Equal(t, []float64{1, 2, 5, 3, 4, 6}, c.Data())

	// Inputs stay untouched.
	assert.Equal(t, []float64{1, 2, 3, 4}, a.Data())
}

func TestCat_NegativeDim(t *testing.T) {
	a := Ones(Shape{2, 3})
	b := Zeros(Shape{2, 1})
	c := Cat(-1, a, b)
	assert.True(t, Shape{2, 4}.Equal(c.Shape()))
}

func TestNarrow(t *testing.T) {
	x, err := FromSlice([]float64{
		1, 2, 3,
		4, 5, 6,
	}, Shape{1, 2, 3})
	require.NoError(t, err)

	n := x.Narrow(2, 1, 2)
	require.True(t, Shape{1, 2, 2}.Equal(n.Shape()))
	assert.Equal(t, []float64{2, 3, 5, 6}, n.Data())

	// Narrow copies: writes do not leak back.
	n.Set(0, 0, 0, 0)
	assert.Equal(t, 2.0, x.At(0, 0, 1))
}

func TestNarrowThenCatRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := RandN(rng, Shape{2, 4, 5})
	left := x.Narrow(2, 0, 2)
	right := x.Narrow(2, 2, 3)
	back := Cat(2, left, right)
	assert.Equal(t, x.Data(), back.Data())
}

func TestRandNDeterministic(t *testing.T) {
	a := RandN(rand.New(rand.NewSource(7)), Shape{3, 3})
	b := RandN(rand.New(rand.NewSource(7)), Shape{3, 3})
	assert.Equal(t, a.Data(), b.Data())
}

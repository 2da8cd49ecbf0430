package cpu

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritz-ml/ritz/internal/tensor"
)

func TestAdd_SameShape(t *testing.T) {
	be := New()
	a, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float64{10, 20, 30, 40}, tensor.Shape{2, 2})
	require.NoError(t, err)

	c := be.Add(a, b)
	assert.Equal(t, []float64{11, 22, 33, 44}, c.Data())
	// Inputs must survive unchanged.
	assert.Equal(t, []float64{1, 2, 3, 4}, a.Data())
}

func TestAdd_Broadcast(t *testing.T) {
	be := New()
	a, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)
	row, err := tensor.FromSlice([]float64{10, 20, 30}, tensor.Shape{3})
	require.NoError(t, err)
	col, err := tensor.FromSlice([]float64{100, 200}, tensor.Shape{2, 1})
	require.NoError(t, err)

	c := be.Add(a, row)
	assert.Equal(t, []float64{11, 22, 33, 14, 25, 36}, c.Data())

	d := be.Add(a, col)
	assert.Equal(t, []float64{101, 102, 103, 204, 205, 206}, d.Data())
}

func TestMulDivSub(t *testing.T) {
	be := New()
	a, err := tensor.FromSlice([]float64{2, 4, 6}, tensor.Shape{3})
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float64{2, 2, 3}, tensor.Shape{3})
	require.NoError(t, err)

	assert.Equal(t, []float64{4, 8, 18}, be.Mul(a, b).Data())
	assert.Equal(t, []float64{1, 2, 2}, be.Div(a, b).Data())
	assert.Equal(t, []float64{0, 2, 3}, be.Sub(a, b).Data())
	assert.Equal(t, []float64{-2, -4, -6}, be.Scale(a, -1).Data())
}

// naiveBatchMatMul is the triple-loop reference the BLAS path is checked
// against.
func naiveBatchMatMul(a, b *tensor.Tensor) *tensor.Tensor {
	as, bs := a.Shape(), b.Shape()
	nbatch, m, k, n := as[0], as[1], as[2], bs[2]
	out := tensor.New(tensor.Shape{nbatch, m, n})
	for bt := 0; bt < nbatch; bt++ {
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				acc := 0.0
				for l := 0; l < k; l++ {
					acc += a.At(bt, i, l) * b.At(bt, l, j)
				}
				out.Set(acc, bt, i, j)
			}
		}
	}
	return out
}

func TestBatchMatMul_AgainstNaive(t *testing.T) {
	be := New()
	rng := rand.New(rand.NewSource(42))
	a := tensor.RandN(rng, tensor.Shape{3, 4, 6})
	b := tensor.RandN(rng, tensor.Shape{3, 6, 5})

	got := be.BatchMatMul(a, b)
	want := naiveBatchMatMul(a, b)

	require.True(t, want.Shape().Equal(got.Shape()))
	for i, w := range want.Data() {
		assert.InDelta(t, w, got.Data()[i], 1e-12)
	}
}

func TestBatchMatMul_Identity(t *testing.T) {
	be := New()
	rng := rand.New(rand.NewSource(3))
	a := tensor.RandN(rng, tensor.Shape{2, 4, 4})
	eye := tensor.Eye(2, 4, 4)

	got := be.BatchMatMul(a, eye)
	for i, w := range a.Data() {
		assert.InDelta(t, w, got.Data()[i], 1e-14)
	}
}

func TestBatchMatMul_ShapeMismatchPanics(t *testing.T) {
	be := New()
	a := tensor.Ones(tensor.Shape{1, 2, 3})
	b := tensor.Ones(tensor.Shape{1, 2, 3})
	assert.Panics(t, func() { be.BatchMatMul(a, b) })
}

func TestTranspose_Default(t *testing.T) {
	be := New()
	a, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	require.NoError(t, err)

	at := be.Transpose(a)
	require.True(t, tensor.Shape{3, 2}.Equal(at.Shape()))
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, at.Data())
}

func TestTranspose_BatchedLastTwo(t *testing.T) {
	be := New()
	rng := rand.New(rand.NewSource(5))
	a := tensor.RandN(rng, tensor.Shape{2, 3, 4})

	at := be.Transpose(a, 0, 2, 1)
	require.True(t, tensor.Shape{2, 4, 3}.Equal(at.Shape()))
	for b := 0; b < 2; b++ {
		for i := 0; i < 3; i++ {
			for j := 0; j < 4; j++ {
				assert.Equal(t, a.At(b, i, j), at.At(b, j, i))
			}
		}
	}
}

func TestTranspose_InvalidPermutationPanics(t *testing.T) {
	be := New()
	a := tensor.Ones(tensor.Shape{2, 3, 4})
	assert.Panics(t, func() { be.Transpose(a, 0, 0, 1) })
}

func TestSumDim(t *testing.T) {
	be := New()
	a, err := tensor.FromSlice([]float64{
		1, 2, 3,
		4, 5, 6,
	}, tensor.Shape{1, 2, 3})
	require.NoError(t, err)

	kept := be.SumDim(a, 1, true)
	require.True(t, tensor.Shape{1, 1, 3}.Equal(kept.Shape()))
	assert.Equal(t, []float64{5, 7, 9}, kept.Data())

	dropped := be.SumDim(a, 2, false)
	require.True(t, tensor.Shape{1, 2}.Equal(dropped.Shape()))
	assert.Equal(t, []float64{6, 15}, dropped.Data())
}

func TestDiagEmbedAndDiagonal(t *testing.T) {
	be := New()
	d, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)

	m := be.DiagEmbed(d)
	require.True(t, tensor.Shape{2, 2, 2}.Equal(m.Shape()))
	assert.Equal(t, []float64{1, 0, 0, 2, 3, 0, 0, 4}, m.Data())

	back := be.Diagonal(m)
	assert.Equal(t, d.Data(), back.Data())
}

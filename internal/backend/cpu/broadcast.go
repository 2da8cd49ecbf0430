package cpu

import (
	"fmt"

	"github.com/ritz-ml/ritz/internal/tensor"
)

// binaryOp applies f element-wise over the broadcast of a and b.
//
// Fast path: identical shapes walk the flat storage directly. Broadcast path:
// each input gets "virtual" strides where broadcast dimensions (size 1 or
// missing) have stride 0, and an odometer index walks the output shape.
func binaryOp(name string, a, b *tensor.Tensor, f func(x, y float64) float64) *tensor.Tensor {
	if a.Shape().Equal(b.Shape()) {
		out := tensor.New(a.Shape())
		ad, bd, od := a.Data(), b.Data(), out.Data()
		for i := range od {
			od[i] = f(ad[i], bd[i])
		}
		return out
	}

	outShape, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	out := tensor.New(outShape)

	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	ad, bd, od := a.Data(), b.Data(), out.Data()

	idx := make([]int, len(outShape))
	aOff, bOff := 0, 0
	for i := range od {
		od[i] = f(ad[aOff], bd[bOff])

		// Advance the odometer from the last dimension.
		for d := len(outShape) - 1; d >= 0; d-- {
			idx[d]++
			aOff += aStrides[d]
			bOff += bStrides[d]
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
			aOff -= aStrides[d] * outShape[d]
			bOff -= bStrides[d] * outShape[d]
		}
	}
	return out
}

// broadcastStrides returns strides of shape aligned to outShape, with zero
// stride on broadcast dimensions.
func broadcastStrides(shape, outShape tensor.Shape) []int {
	real := shape.ComputeStrides()
	strides := make([]int, len(outShape))
	offset := len(outShape) - len(shape)
	for d := range outShape {
		src := d - offset
		if src < 0 || shape[src] == 1 && outShape[d] != 1 {
			strides[d] = 0
		} else {
			strides[d] = real[src]
		}
	}
	return strides
}

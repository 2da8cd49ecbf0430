package tensor

import "fmt"

// Cat concatenates tensors along the given dimension. All other dimensions
// must match. The result is a fresh tensor; inputs are left untouched.
func Cat(dim int, ts ...*Tensor) *Tensor {
	if len(ts) == 0 {
		panic("tensor: Cat requires at least one tensor")
	}
	first := ts[0].shape
	if dim < 0 {
		dim += len(first)
	}
	if dim < 0 || dim >= len(first) {
		panic(fmt.Sprintf("tensor: Cat dimension %d out of range for shape %v", dim, first))
	}

	outShape := first.Clone()
	outShape[dim] = 0
	for _, t := range ts {
		if len(t.shape) != len(first) {
			panic(fmt.Sprintf("tensor: Cat rank mismatch: %v vs %v", first, t.shape))
		}
		for d := range t.shape {
			if d != dim && t.shape[d] != first[d] {
				panic(fmt.Sprintf("tensor: Cat shape mismatch at dim %d: %v vs %v", d, first, t.shape))
			}
		}
		outShape[dim] += t.shape[dim]
	}

	out := New(outShape)

	// Treat each tensor as (outer, catDim*inner) contiguous blocks.
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= first[d]
	}
	inner := 1
	for d := dim + 1; d < len(first); d++ {
		inner *= first[d]
	}

	rowLen := outShape[dim] * inner
	colOffset := 0
	for _, t := range ts {
		blockLen := t.shape[dim] * inner
		for o := 0; o < outer; o++ {
			src := t.data[o*blockLen : (o+1)*blockLen]
			dst := out.data[o*rowLen+colOffset : o*rowLen+colOffset+blockLen]
			copy(dst, src)
		}
		colOffset += blockLen
	}
	return out
}

// Narrow returns a copy of the tensor restricted to
// [start, start+length) along the given dimension.
func (t *Tensor) Narrow(dim, start, length int) *Tensor {
	if dim < 0 {
		dim += len(t.shape)
	}
	if dim < 0 || dim >= len(t.shape) {
		panic(fmt.Sprintf("tensor: Narrow dimension %d out of range for shape %v", dim, t.shape))
	}
	if start < 0 || length <= 0 || start+length > t.shape[dim] {
		panic(fmt.Sprintf("tensor: Narrow range [%d, %d) invalid for dimension of size %d", start, start+length, t.shape[dim]))
	}

	outShape := t.shape.Clone()
	outShape[dim] = length
	out := New(outShape)

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= t.shape[d]
	}
	inner := 1
	for d := dim + 1; d < len(t.shape); d++ {
		inner *= t.shape[d]
	}

	srcRow := t.shape[dim] * inner
	dstRow := length * inner
	for o := 0; o < outer; o++ {
		src := t.data[o*srcRow+start*inner : o*srcRow+(start+length)*inner]
		copy(out.data[o*dstRow:(o+1)*dstRow], src)
	}
	return out
}

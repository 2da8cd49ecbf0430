// Package tensor implements the batched dense float64 tensor that the solver
// core operates on.
//
// The working precision of the whole library is float64: the eigensolvers and
// the conjugate-gradient backward pass are tolerance-driven and the tolerances
// in use (1e-6 .. 1e-9) are below float32 resolution. Every tensor created
// during a solve therefore shares one precision by construction.
package tensor

import "fmt"

// Tensor is a dense row-major tensor of float64 values.
//
// Tensors are plain data: all compute lives behind the Backend interface so
// that an autodiff-decorated backend can trace operations. The identity of a
// *Tensor (its pointer) is what the gradient tape keys on, so operations
// always allocate fresh results and never mutate their inputs in place.
type Tensor struct {
	shape   Shape
	strides []int
	data    []float64
}

// New creates a zero-initialized tensor with the given shape.
func New(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: invalid shape: %v", err))
	}
	return &Tensor{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		data:    make([]float64, shape.NumElements()),
	}
}

// FromSlice creates a tensor from a Go slice. The slice is copied.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t := New(shape)
	copy(t.data, data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Strides returns the tensor's row-major memory strides.
func (t *Tensor) Strides() []int {
	return t.strides
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the underlying storage (zero-copy).
//
// WARNING: modifications to the returned slice modify the tensor. Callers
// that hand a tensor to a recording backend must not mutate it afterwards.
func (t *Tensor) Data() []float64 {
	return t.data
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) At(indices ...int) float64 {
	return t.data[t.offset(indices)]
}

// Set sets the element at the given indices.
// Panics if indices are out of bounds.
func (t *Tensor) Set(value float64, indices ...int) {
	t.data[t.offset(indices)] = value
}

func (t *Tensor) offset(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("tensor: expected %d indices, got %d", len(t.shape), len(indices)))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of bounds for dimension %d (size %d)", idx, i, t.shape[i]))
		}
		offset += idx * t.strides[i]
	}
	return offset
}

// Item returns the value of a single-element tensor.
func (t *Tensor) Item() float64 {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("tensor: Item() only works for single-element tensors, got shape %v", t.shape))
	}
	return t.data[0]
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := New(t.shape)
	copy(c.data, t.data)
	return c
}

// Reshape returns a tensor with the given shape sharing the same storage.
// The element count must be unchanged.
func (t *Tensor) Reshape(shape Shape) *Tensor {
	if shape.NumElements() != len(t.data) {
		panic(fmt.Sprintf("tensor: cannot reshape %v into %v", t.shape, shape))
	}
	return &Tensor{
		shape:   shape.Clone(),
		strides: shape.ComputeStrides(),
		data:    t.data,
	}
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor%v (%d elements)", t.shape, len(t.data))
}

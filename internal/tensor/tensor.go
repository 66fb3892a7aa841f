// Package tensor provides the dense float64 tensor container for the fold
// convolution engine.
//
// Tensors have an immutable shape and mutable contents. Element order is
// row-major: the last dimension varies fastest. All computation in fold runs
// over float64 buffers, matching gonum/mat's native element type.
package tensor

import (
	"fmt"
	"strings"
)

// Tensor is a dense float64 array with explicit shape metadata.
//
// The backing buffer is allocated once at construction and never resized;
// operations that produce a tensor always allocate a fresh one. Strides are
// row-major and derived from the shape.
type Tensor struct {
	data   []float64
	shape  Shape
	stride []int
}

// New creates a zero-filled tensor with the given shape.
// This is the single allocation point for tensor buffers.
func New(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	return &Tensor{
		data:   make([]float64, shape.NumElements()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
	}, nil
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, &ShapeError{
			Op:     "from_slice",
			Detail: fmt.Sprintf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data)),
		}
	}

	t, err := New(shape)
	if err != nil {
		return nil, err
	}
	copy(t.data, data)
	return t, nil
}

// Zeros creates a zero-filled tensor and panics on an invalid shape.
// Convenience for call sites that construct tensors from already-validated
// dimensions (tests, examples).
func Zeros(shape Shape) *Tensor {
	t, err := New(shape)
	if err != nil {
		panic(err)
	}
	return t
}

// Sequential creates a tensor filled with 0, 1, 2, ... in row-major order.
// Handy for constructing deterministic fixtures.
func Sequential(shape Shape) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = float64(i)
	}
	return t
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Strides returns the tensor's row-major memory strides.
func (t *Tensor) Strides() []int {
	return t.stride
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// Data returns the underlying buffer (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

// At returns the element at the given indices.
// Panics if the index count or any index is out of bounds.
func (t *Tensor) At(indices ...int) float64 {
	return t.data[t.offset(indices)]
}

// Set sets the element at the given indices.
// Panics if the index count or any index is out of bounds.
func (t *Tensor) Set(value float64, indices ...int) {
	t.data[t.offset(indices)] = value
}

func (t *Tensor) offset(indices []int) int {
	if len(indices) != len(t.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(t.shape), len(indices)))
	}

	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, t.shape[i]))
		}
		offset += idx * t.stride[i]
	}
	return offset
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	clone := Zeros(t.shape)
	copy(clone.data, t.data)
	return clone
}

// Reshape returns a new tensor with the same data and a different shape.
// The element count must match.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if t.NumElements() != shape.NumElements() {
		return nil, &ShapeError{
			Op:     "reshape",
			Detail: fmt.Sprintf("incompatible shapes: %v -> %v (different number of elements)", t.shape, shape),
		}
	}

	out, err := New(shape)
	if err != nil {
		return nil, err
	}
	copy(out.data, t.data)
	return out, nil
}

// Sum returns the sum of all elements.
func (t *Tensor) Sum() float64 {
	total := 0.0
	for _, v := range t.data {
		total += v
	}
	return total
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tensor%v", t.shape)
	if t.NumElements() <= 16 {
		fmt.Fprintf(&b, " %v", t.data)
	}
	return b.String()
}

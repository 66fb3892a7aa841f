// Copyright 2025 The fold Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for fold's dense tensor container.
//
// A Tensor is a dense float64 array with an explicit row-major Shape. Shapes
// are immutable after construction; contents are mutable through Data, At and
// Set. Operations that produce a tensor always allocate a fresh one.
//
// Example:
//
//	x, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
//	x.At(1, 2) // 6
package tensor

import (
	"github.com/fold-ml/fold/internal/tensor"
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a dense float64 array with explicit shape metadata.
type Tensor = tensor.Tensor

// ShapeError reports a shape contract violation. Surfaced by every operation
// whose operands do not fit together; check with errors.As.
type ShapeError = tensor.ShapeError

// New creates a zero-filled tensor with the given shape.
func New(shape Shape) (*Tensor, error) {
	return tensor.New(shape)
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros creates a zero-filled tensor and panics on an invalid shape.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Sequential creates a tensor filled with 0, 1, 2, ... in row-major order.
func Sequential(shape Shape) *Tensor {
	return tensor.Sequential(shape)
}

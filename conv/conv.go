// Copyright 2025 The fold Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package conv provides the public API for fold's convolution core: the
// im2col/col2im transform pair and three interchangeable 2D convolution
// implementations.
//
// Convolve is the production path (one im2col pass followed by a single
// dense matrix product); ConvolveNaive and ConvolveSliced are reference
// implementations that agree with it within floating-point tolerance and
// exist for cross-checking.
//
// Example:
//
//	x := tensor.Sequential(tensor.Shape{5, 5})
//	k, _ := tensor.FromSlice([]float64{0, 0, 0, 0, 1, 0, 0, 0, 0}, tensor.Shape{3, 3})
//	y, err := conv.Convolve(x, k, 1, 0) // [3, 3], the center sub-block of x
package conv

import (
	"github.com/fold-ml/fold/internal/conv"
	"github.com/fold-ml/fold/internal/tensor"
)

// Im2Col expands every sliding window of the input into one row of a dense
// [oH*oW, kH*kW*C] patch matrix. See the package documentation for the row
// and column ordering contract.
func Im2Col(x *tensor.Tensor, kh, kw, stride, pad int) (*tensor.Tensor, error) {
	return conv.Im2Col(x, kh, kw, stride, pad)
}

// Col2Im folds a patch matrix back into a fresh tensor of the given input
// shape, summing the contributions of overlapping windows. It is the exact
// adjoint of Im2Col.
func Col2Im(col *tensor.Tensor, shape tensor.Shape, kh, kw, stride, pad int) (*tensor.Tensor, error) {
	return conv.Col2Im(col, shape, kh, kw, stride, pad)
}

// Convolve computes a 2D convolution as a single dense matrix product over
// the im2col patch matrix.
func Convolve(x, k *tensor.Tensor, stride, pad int) (*tensor.Tensor, error) {
	return conv.Convolve(x, k, stride, pad)
}

// ConvolveNaive computes a 2D convolution with plain nested loops.
// Reference implementation for correctness cross-checking.
func ConvolveNaive(x, k *tensor.Tensor, stride, pad int) (*tensor.Tensor, error) {
	return conv.ConvolveNaive(x, k, stride, pad)
}

// ConvolveSliced computes a 2D convolution from per-window row slices.
// Reference implementation for correctness cross-checking.
func ConvolveSliced(x, k *tensor.Tensor, stride, pad int) (*tensor.Tensor, error) {
	return conv.ConvolveSliced(x, k, stride, pad)
}

// OutputDims computes the spatial output dimensions of a convolution.
func OutputDims(h, w, kh, kw, stride, pad int) (int, int, error) {
	return conv.OutputDims(h, w, kh, kw, stride, pad)
}

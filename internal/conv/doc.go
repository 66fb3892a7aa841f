// Package conv implements 2D convolution as a dense matrix product.
//
// The core of the package is the im2col/col2im transform pair. Im2Col expands
// every sliding window of an input tensor into one row of a dense patch
// matrix, after which the whole convolution collapses into a single matrix
// multiplication against the flattened kernel (Convolve). Col2Im is the exact
// adjoint: it scatters a matrix of per-window values back into input shape,
// summing the contributions of overlapping windows. The adjoint pair is what
// makes the backward pass of a convolution layer another pair of matrix
// products (see the nn package).
//
// ConvolveNaive and ConvolveSliced are straightforward reference
// implementations kept for cross-checking the GEMM path; all three agree
// within floating-point tolerance.
//
// Reference: "High Performance Convolutional Neural Networks for Document
// Processing" (Chellapilla et al., 2006).
package conv

package conv

import (
	"fmt"

	"github.com/fold-ml/fold/internal/tensor"
)

// OutputDims computes the spatial output dimensions of a convolution.
//
//	oH = (H + 2*pad - kH)/stride + 1
//	oW = (W + 2*pad - kW)/stride + 1
//
// Returns a ShapeError when the window does not fit the (padded) input or the
// stride/padding values are out of range.
func OutputDims(h, w, kh, kw, stride, pad int) (int, int, error) {
	if stride <= 0 {
		return 0, 0, &tensor.ShapeError{Op: "conv", Detail: fmt.Sprintf("invalid stride %d (must be > 0)", stride)}
	}
	if pad < 0 {
		return 0, 0, &tensor.ShapeError{Op: "conv", Detail: fmt.Sprintf("invalid padding %d (must be >= 0)", pad)}
	}
	// Checked before the division: a negative numerator truncates toward
	// zero, so (h+2*pad-kh)/stride can still land at 0 when the kernel
	// exceeds the padded input and stride > 1.
	if kh > h+2*pad || kw > w+2*pad {
		return 0, 0, &tensor.ShapeError{
			Op:     "conv",
			Detail: fmt.Sprintf("kernel %dx%d exceeds padded input %dx%d (pad=%d)", kh, kw, h, w, pad),
		}
	}

	oH := (h+2*pad-kh)/stride + 1
	oW := (w+2*pad-kw)/stride + 1
	if oH <= 0 || oW <= 0 {
		return 0, 0, &tensor.ShapeError{
			Op:     "conv",
			Detail: fmt.Sprintf("kernel %dx%d does not fit input %dx%d (stride=%d, pad=%d)", kh, kw, h, w, stride, pad),
		}
	}
	return oH, oW, nil
}

// image is the fixed-arity [H, W, C] view of an input tensor. Rank-2 inputs
// are carried with C=1 so the transforms never branch on tensor rank.
type image struct {
	h, w, c int
	data    []float64
}

// asImage normalizes an input tensor of shape [H, W] or [H, W, C].
func asImage(x *tensor.Tensor) (image, error) {
	shape := x.Shape()
	switch len(shape) {
	case 2:
		return image{h: shape[0], w: shape[1], c: 1, data: x.Data()}, nil
	case 3:
		return image{h: shape[0], w: shape[1], c: shape[2], data: x.Data()}, nil
	default:
		return image{}, &tensor.ShapeError{
			Op:     "conv",
			Detail: fmt.Sprintf("input must be [H,W] or [H,W,C], got shape %v", shape),
		}
	}
}

// filter is the fixed-arity [kH, kW, C, F] view of a kernel tensor.
type filter struct {
	kh, kw, c, f int
	data         []float64
}

// asFilter normalizes a kernel tensor of shape [kH, kW] or [kH, kW, C, F].
// The row-major layout means the flattened kernel is already the
// (kH*kW*C, F) matrix the GEMM step multiplies against.
func asFilter(k *tensor.Tensor) (filter, error) {
	shape := k.Shape()
	switch len(shape) {
	case 2:
		return filter{kh: shape[0], kw: shape[1], c: 1, f: 1, data: k.Data()}, nil
	case 4:
		return filter{kh: shape[0], kw: shape[1], c: shape[2], f: shape[3], data: k.Data()}, nil
	default:
		return filter{}, &tensor.ShapeError{
			Op:     "conv",
			Detail: fmt.Sprintf("kernel must be [kH,kW] or [kH,kW,C,F], got shape %v", shape),
		}
	}
}

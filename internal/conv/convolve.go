package conv

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/fold-ml/fold/internal/tensor"
)

// Convolve computes a 2D convolution as a single dense matrix product.
//
// Input shape:  [H, W] or [H, W, C]
// Kernel shape: [kH, kW] or [kH, kW, C, F]
// Output shape: [oH, oW] for a 2D kernel, [oH, oW, F] for a 4D kernel
//
// Algorithm:
//  1. Im2Col the input into a [oH*oW, kH*kW*C] patch matrix.
//  2. View the kernel as a [kH*kW*C, F] matrix (its row-major layout already
//     is one).
//  3. One GEMM: patches @ kernel -> [oH*oW, F], reshaped to the output.
//
// Numerically equivalent to ConvolveNaive and ConvolveSliced within
// floating-point tolerance.
func Convolve(x, k *tensor.Tensor, stride, pad int) (*tensor.Tensor, error) {
	img, err := asImage(x)
	if err != nil {
		return nil, err
	}
	flt, err := asFilter(k)
	if err != nil {
		return nil, err
	}
	if img.c != flt.c {
		return nil, &tensor.ShapeError{
			Op:     "convolve",
			Detail: fmt.Sprintf("input has %d channels, kernel expects %d", img.c, flt.c),
		}
	}

	oH, oW, err := OutputDims(img.h, img.w, flt.kh, flt.kw, stride, pad)
	if err != nil {
		return nil, err
	}

	colWidth := flt.kh * flt.kw * flt.c
	colBuf := make([]float64, oH*oW*colWidth)
	im2col(colBuf, img, flt.kh, flt.kw, oH, oW, stride, pad)

	patches := mat.NewDense(oH*oW, colWidth, colBuf)
	kernel := mat.NewDense(colWidth, flt.f, flt.data)

	var prod mat.Dense
	prod.Mul(patches, kernel)

	outShape := tensor.Shape{oH, oW}
	if len(k.Shape()) == 4 {
		outShape = tensor.Shape{oH, oW, flt.f}
	}
	// A fresh Dense is contiguous, so RawMatrix().Data is the row-major
	// [oH*oW, F] result, which is exactly the output's element order.
	return tensor.FromSlice(prod.RawMatrix().Data, outShape)
}

package conv

import (
	"fmt"

	"github.com/fold-ml/fold/internal/tensor"
)

// Col2Im folds a patch matrix back into a tensor of the given input shape.
// It is the exact adjoint of Im2Col: every row of col is added into the
// window location it was extracted from. Overlapping windows accumulate by
// summation; nothing is overwritten.
//
// col shape:   [oH*oW, kH*kW*C]
// shape:       [H, W] or [H, W, C], the target input shape
// Output:      a fresh zero-initialized tensor of exactly that shape
//
// This is the transform that turns a patch-gradient matrix into an input
// gradient in the backward pass of a convolution layer.
func Col2Im(col *tensor.Tensor, shape tensor.Shape, kh, kw, stride, pad int) (*tensor.Tensor, error) {
	out, err := tensor.New(shape)
	if err != nil {
		return nil, err
	}

	img, err := asImage(out)
	if err != nil {
		return nil, err
	}

	oH, oW, err := OutputDims(img.h, img.w, kh, kw, stride, pad)
	if err != nil {
		return nil, err
	}

	colShape := col.Shape()
	if len(colShape) != 2 {
		return nil, &tensor.ShapeError{
			Op:     "col2im",
			Detail: fmt.Sprintf("patch matrix must be 2D, got shape %v", colShape),
		}
	}
	if colShape[0] != oH*oW {
		return nil, &tensor.ShapeError{
			Op:     "col2im",
			Detail: fmt.Sprintf("patch matrix has %d rows, target shape %v yields %d output positions", colShape[0], shape, oH*oW),
		}
	}
	if colShape[1] != kh*kw*img.c {
		return nil, &tensor.ShapeError{
			Op:     "col2im",
			Detail: fmt.Sprintf("patch matrix has %d columns, kernel %dx%d over %d channels requires %d", colShape[1], kh, kw, img.c, kh*kw*img.c),
		}
	}

	col2im(img, col.Data(), kh, kw, oH, oW, stride, pad)
	return out, nil
}

// col2im scatter-accumulates colBuf rows into the image buffer.
// Mirror of im2col with the copy direction reversed and += in place of =.
func col2im(img image, colBuf []float64, kh, kw, oH, oW, stride, pad int) {
	colWidth := kh * kw * img.c
	colIdx := 0

	for outH := 0; outH < oH; outH++ {
		for outW := 0; outW < oW; outW++ {
			hStart := outH*stride - pad
			wStart := outW*stride - pad

			bufIdx := colIdx * colWidth
			for i := 0; i < kh; i++ {
				for j := 0; j < kw; j++ {
					h := hStart + i
					w := wStart + j

					if h >= 0 && h < img.h && w >= 0 && w < img.w {
						base := (h*img.w + w) * img.c
						for c := 0; c < img.c; c++ {
							// Overlapping windows must sum, never overwrite.
							img.data[base+c] += colBuf[bufIdx]
							bufIdx++
						}
					} else {
						// Contributions to padded positions are discarded.
						bufIdx += img.c
					}
				}
			}
			colIdx++
		}
	}
}

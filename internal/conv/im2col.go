package conv

import (
	"github.com/fold-ml/fold/internal/tensor"
)

// Im2Col expands every sliding window of the input into one row of a dense
// patch matrix.
//
// Input shape:  [H, W] or [H, W, C]
// Output shape: [oH*oW, kH*kW*C]
//
// Row r corresponds to the receptive field whose output position is
// (r/oW, r%oW); within a row, columns are ordered by window-row offset, then
// window-column offset, then channel. This matches the row-major flattening
// of a [kH, kW, C, F] kernel, so the forward convolution is a plain matrix
// product of the patch matrix and the flattened kernel.
//
// The transform is a pure reshuffle with no arithmetic. It trades
// O(oH*oW*kH*kW*C) extra memory for collapsing all subsequent convolution
// arithmetic into one GEMM.
func Im2Col(x *tensor.Tensor, kh, kw, stride, pad int) (*tensor.Tensor, error) {
	img, err := asImage(x)
	if err != nil {
		return nil, err
	}

	oH, oW, err := OutputDims(img.h, img.w, kh, kw, stride, pad)
	if err != nil {
		return nil, err
	}

	colWidth := kh * kw * img.c
	col, err := tensor.New(tensor.Shape{oH * oW, colWidth})
	if err != nil {
		return nil, err
	}

	im2col(col.Data(), img, kh, kw, oH, oW, stride, pad)
	return col, nil
}

// im2col fills colBuf ([oH*oW, kH*kW*C] row-major) from the image.
// Out-of-bounds positions (reachable only with pad > 0) contribute zeros.
func im2col(colBuf []float64, img image, kh, kw, oH, oW, stride, pad int) {
	colWidth := kh * kw * img.c
	colIdx := 0 // Current row in colBuf

	for outH := 0; outH < oH; outH++ {
		for outW := 0; outW < oW; outW++ {
			// Top-left corner of this window in input space
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
							colBuf[bufIdx] = img.data[base+c]
							bufIdx++
						}
					} else {
						// Zero padding
						for c := 0; c < img.c; c++ {
							colBuf[bufIdx] = 0
							bufIdx++
						}
					}
				}
			}
			colIdx++
		}
	}
}

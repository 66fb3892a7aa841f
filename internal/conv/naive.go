package conv

import (
	"fmt"

	"github.com/fold-ml/fold/internal/tensor"
)

// ConvolveNaive computes a 2D convolution with plain nested loops.
//
// It walks every output position and accumulates the elementwise product of
// the kernel with the receptive field under it. O(oH*oW*kH*kW*C*F) with no
// auxiliary memory. Kept as the ground-truth reference the GEMM path is
// checked against; not meant for production use.
func ConvolveNaive(x, k *tensor.Tensor, stride, pad int) (*tensor.Tensor, error) {
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
			Op:     "convolve_naive",
			Detail: fmt.Sprintf("input has %d channels, kernel expects %d", img.c, flt.c),
		}
	}

	oH, oW, err := OutputDims(img.h, img.w, flt.kh, flt.kw, stride, pad)
	if err != nil {
		return nil, err
	}

	outShape := tensor.Shape{oH, oW}
	if len(k.Shape()) == 4 {
		outShape = tensor.Shape{oH, oW, flt.f}
	}
	out, err := tensor.New(outShape)
	if err != nil {
		return nil, err
	}
	outData := out.Data()

	for outH := 0; outH < oH; outH++ {
		for outW := 0; outW < oW; outW++ {
			hStart := outH*stride - pad
			wStart := outW*stride - pad

			for f := 0; f < flt.f; f++ {
				sum := 0.0
				for i := 0; i < flt.kh; i++ {
					for j := 0; j < flt.kw; j++ {
						h := hStart + i
						w := wStart + j
						if h < 0 || h >= img.h || w < 0 || w >= img.w {
							continue
						}
						for c := 0; c < img.c; c++ {
							kIdx := ((i*flt.kw+j)*flt.c+c)*flt.f + f
							sum += img.data[(h*img.w+w)*img.c+c] * flt.data[kIdx]
						}
					}
				}
				outData[(outH*oW+outW)*flt.f+f] = sum
			}
		}
	}

	return out, nil
}

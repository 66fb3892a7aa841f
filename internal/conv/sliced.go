package conv

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/fold-ml/fold/internal/tensor"
)

// ConvolveSliced computes a 2D convolution by taking contiguous row slices of
// the input window and dotting them against the matching kernel rows.
//
// The input is copied once into an explicitly padded buffer so every window
// row is an in-bounds contiguous slice; each output value is then kH dot
// products of length kW*C. Second reference implementation for
// cross-checking the GEMM path.
func ConvolveSliced(x, k *tensor.Tensor, stride, pad int) (*tensor.Tensor, error) {
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
			Op:     "convolve_sliced",
			Detail: fmt.Sprintf("input has %d channels, kernel expects %d", img.c, flt.c),
		}
	}

	oH, oW, err := OutputDims(img.h, img.w, flt.kh, flt.kw, stride, pad)
	if err != nil {
		return nil, err
	}

	padded := img
	if pad > 0 {
		padded = padImage(img, pad)
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

	rowLen := flt.kw * flt.c
	kRow := make([]float64, rowLen)

	for f := 0; f < flt.f; f++ {
		for i := 0; i < flt.kh; i++ {
			// Repack kernel row i for output channel f into a contiguous
			// slice so the inner step is a plain dot product.
			for jc := 0; jc < rowLen; jc++ {
				kRow[jc] = flt.data[(i*rowLen+jc)*flt.f+f]
			}

			for outH := 0; outH < oH; outH++ {
				h := outH*stride + i
				for outW := 0; outW < oW; outW++ {
					w := outW * stride
					window := padded.data[(h*padded.w+w)*padded.c : (h*padded.w+w)*padded.c+rowLen]
					outData[(outH*oW+outW)*flt.f+f] += floats.Dot(window, kRow)
				}
			}
		}
	}

	return out, nil
}

// padImage copies img into a zero-initialized buffer with pad rows/columns of
// zeros on every spatial side.
func padImage(img image, pad int) image {
	ph := img.h + 2*pad
	pw := img.w + 2*pad
	data := make([]float64, ph*pw*img.c)

	for h := 0; h < img.h; h++ {
		src := img.data[h*img.w*img.c : (h+1)*img.w*img.c]
		dstBase := ((h+pad)*pw + pad) * img.c
		copy(data[dstBase:dstBase+len(src)], src)
	}

	return image{h: ph, w: pw, c: img.c, data: data}
}

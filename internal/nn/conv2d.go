package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/fold-ml/fold/internal/conv"
	"github.com/fold-ml/fold/internal/tensor"
)

// Conv2D is a trainable 2D convolution layer.
//
// Input shape:  [H, W] or [H, W, C] with C == in channels
// Weight shape: [kernel_h, kernel_w, in_channels, out_channels]
// Bias shape:   [out_channels]
// Output shape: [out_h, out_w, out_channels]
//
// Where:
//
//	out_h = (H + 2*padding - kernel_h)/stride + 1
//	out_w = (W + 2*padding - kernel_w)/stride + 1
//
// Forward returns the output together with a Cache holding the input and its
// patch matrix; Backward consumes that cache to produce the input gradient
// and to populate the weight/bias gradients. The cache makes the
// forward -> backward data dependency explicit: independent forward calls can
// run concurrently as long as each cache is passed to exactly one backward.
//
// Example:
//
//	layer := nn.NewConv2D(1, 1, 3, 3, 1, 0, true)
//	y, cache, err := layer.Forward(x)
//	dx, err := layer.Backward(cache, dOut)
//	dw := layer.Weight().Grad()
type Conv2D struct {
	inChannels  int
	outChannels int
	kernelSize  [2]int
	stride      int
	padding     int
	useBias     bool

	weight *Parameter // [kernel_h, kernel_w, in_channels, out_channels]
	bias   *Parameter // [out_channels] or nil
}

// Cache carries the state one Forward call produces for the matching
// Backward call: the original input and the im2col patch matrix. A cache is
// consumed by Backward and cannot be reused.
type Cache struct {
	input    *tensor.Tensor
	col      *tensor.Tensor // [out_h*out_w, kernel_h*kernel_w*in_channels]
	outH     int
	outW     int
	consumed bool
}

// NewConv2D creates a 2D convolution layer with Xavier-initialized weights
// and zero bias.
func NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding int, useBias bool) *Conv2D {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernelH <= 0 || kernelW <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size h=%d, w=%d", kernelH, kernelW))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %d", padding))
	}

	weightShape := tensor.Shape{kernelH, kernelW, inChannels, outChannels}
	fanIn := inChannels * kernelH * kernelW
	fanOut := outChannels * kernelH * kernelW
	weight := NewParameter("conv2d.weight", Xavier(fanIn, fanOut, weightShape))

	var bias *Parameter
	if useBias {
		bias = NewParameter("conv2d.bias", tensor.Zeros(tensor.Shape{outChannels}))
	}

	return &Conv2D{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  [2]int{kernelH, kernelW},
		stride:      stride,
		padding:     padding,
		useBias:     useBias,
		weight:      weight,
		bias:        bias,
	}
}

// Forward computes the layer output for x.
//
// Returns the output tensor of shape [out_h, out_w, out_channels] and the
// Cache the matching Backward call requires. Neither x nor the weights are
// mutated.
func (c *Conv2D) Forward(x *tensor.Tensor) (*tensor.Tensor, *Cache, error) {
	if err := c.checkChannels(x.Shape()); err != nil {
		return nil, nil, err
	}

	kh, kw := c.kernelSize[0], c.kernelSize[1]
	shape := x.Shape()
	oH, oW, err := conv.OutputDims(shape[0], shape[1], kh, kw, c.stride, c.padding)
	if err != nil {
		return nil, nil, err
	}

	col, err := conv.Im2Col(x, kh, kw, c.stride, c.padding)
	if err != nil {
		return nil, nil, err
	}

	colWidth := kh * kw * c.inChannels
	patches := mat.NewDense(oH*oW, colWidth, col.Data())
	kernel := mat.NewDense(colWidth, c.outChannels, c.weight.Tensor().Data())

	var prod mat.Dense
	prod.Mul(patches, kernel)
	outData := prod.RawMatrix().Data

	if c.useBias {
		biasData := c.bias.Tensor().Data()
		for pos := 0; pos < oH*oW; pos++ {
			for f := 0; f < c.outChannels; f++ {
				outData[pos*c.outChannels+f] += biasData[f]
			}
		}
	}

	out, err := tensor.FromSlice(outData, tensor.Shape{oH, oW, c.outChannels})
	if err != nil {
		return nil, nil, err
	}

	cache := &Cache{input: x, col: col, outH: oH, outW: oW}
	return out, cache, nil
}

// Backward computes gradients from the output gradient dOut and the Cache of
// the matching Forward call.
//
// Returns the input gradient (same shape as the forward input) and stores the
// weight gradient — and bias gradient, when bias is enabled — on the layer's
// Parameters:
//
//	dW    = patchesᵀ @ dOut          (shape of the weight)
//	dcol  = dOut @ weightᵀ           (shape of the patch matrix)
//	dx    = Col2Im(dcol, x.shape)    (shape of the input)
//	dBias = sum of dOut over output positions
//
// The cache is consumed: calling Backward with a nil cache or one that has
// already been used fails with an InvalidStateError.
func (c *Conv2D) Backward(cache *Cache, dOut *tensor.Tensor) (*tensor.Tensor, error) {
	if cache == nil {
		return nil, &InvalidStateError{
			Op:     "conv2d.backward",
			Detail: "no forward cache: Backward requires the Cache of a preceding Forward call",
		}
	}
	if cache.consumed {
		return nil, &InvalidStateError{
			Op:     "conv2d.backward",
			Detail: "forward cache already consumed: run Forward again before the next Backward",
		}
	}

	wantShape := tensor.Shape{cache.outH, cache.outW, c.outChannels}
	if !dOut.Shape().Equal(wantShape) {
		return nil, &tensor.ShapeError{
			Op:     "conv2d.backward",
			Detail: fmt.Sprintf("output gradient shape %v does not match forward output %v", dOut.Shape(), wantShape),
		}
	}

	kh, kw := c.kernelSize[0], c.kernelSize[1]
	colWidth := kh * kw * c.inChannels
	positions := cache.outH * cache.outW

	patches := mat.NewDense(positions, colWidth, cache.col.Data())
	kernel := mat.NewDense(colWidth, c.outChannels, c.weight.Tensor().Data())
	grad := mat.NewDense(positions, c.outChannels, dOut.Data())

	// Weight gradient: patchesᵀ @ dOut -> [kh*kw*C, F]
	var dw mat.Dense
	dw.Mul(patches.T(), grad)
	dwTensor, err := tensor.FromSlice(dw.RawMatrix().Data, c.weight.Tensor().Shape())
	if err != nil {
		return nil, err
	}

	// Patch gradient: dOut @ weightᵀ -> [oH*oW, kh*kw*C], folded back into
	// input shape by the adjoint transform.
	var dcol mat.Dense
	dcol.Mul(grad, kernel.T())
	dcolTensor, err := tensor.FromSlice(dcol.RawMatrix().Data, tensor.Shape{positions, colWidth})
	if err != nil {
		return nil, err
	}

	dx, err := conv.Col2Im(dcolTensor, cache.input.Shape(), kh, kw, c.stride, c.padding)
	if err != nil {
		return nil, err
	}

	c.weight.SetGrad(dwTensor)

	if c.useBias {
		dbias := tensor.Zeros(tensor.Shape{c.outChannels})
		dbiasData := dbias.Data()
		dOutData := dOut.Data()
		for pos := 0; pos < positions; pos++ {
			for f := 0; f < c.outChannels; f++ {
				dbiasData[f] += dOutData[pos*c.outChannels+f]
			}
		}
		c.bias.SetGrad(dbias)
	}

	cache.consumed = true
	return dx, nil
}

// checkChannels validates that x carries the layer's input channel count.
// Rank-2 inputs are accepted as single-channel.
func (c *Conv2D) checkChannels(shape tensor.Shape) error {
	switch len(shape) {
	case 2:
		if c.inChannels != 1 {
			return &tensor.ShapeError{
				Op:     "conv2d.forward",
				Detail: fmt.Sprintf("2D input implies 1 channel, layer expects %d", c.inChannels),
			}
		}
	case 3:
		if shape[2] != c.inChannels {
			return &tensor.ShapeError{
				Op:     "conv2d.forward",
				Detail: fmt.Sprintf("input has %d channels, layer expects %d", shape[2], c.inChannels),
			}
		}
	default:
		return &tensor.ShapeError{
			Op:     "conv2d.forward",
			Detail: fmt.Sprintf("input must be [H,W] or [H,W,C], got shape %v", shape),
		}
	}
	return nil
}

// Parameters returns all trainable parameters.
func (c *Conv2D) Parameters() []*Parameter {
	if c.useBias {
		return []*Parameter{c.weight, c.bias}
	}
	return []*Parameter{c.weight}
}

// Weight returns the weight parameter.
func (c *Conv2D) Weight() *Parameter {
	return c.weight
}

// Bias returns the bias parameter, or nil when bias is disabled.
func (c *Conv2D) Bias() *Parameter {
	return c.bias
}

// KernelSize returns the kernel size [height, width].
func (c *Conv2D) KernelSize() [2]int {
	return c.kernelSize
}

// Stride returns the stride.
func (c *Conv2D) Stride() int {
	return c.stride
}

// Padding returns the padding.
func (c *Conv2D) Padding() int {
	return c.padding
}

// String returns a string representation of the layer.
func (c *Conv2D) String() string {
	return fmt.Sprintf("Conv2D(in_channels=%d, out_channels=%d, kernel_size=(%d, %d), stride=%d, padding=%d, bias=%v)",
		c.inChannels, c.outChannels,
		c.kernelSize[0], c.kernelSize[1],
		c.stride, c.padding, c.useBias)
}

package nn

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fold-ml/fold/internal/conv"
	"github.com/fold-ml/fold/internal/tensor"
)

func randomTensor(rng *rand.Rand, shape tensor.Shape) *tensor.Tensor {
	t := tensor.Zeros(shape)
	data := t.Data()
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return t
}

func onesTensor(shape tensor.Shape) *tensor.Tensor {
	t := tensor.Zeros(shape)
	for i := range t.Data() {
		t.Data()[i] = 1
	}
	return t
}

// TestConv2D_ForwardShape checks the output shape law and cache creation.
func TestConv2D_ForwardShape(t *testing.T) {
	layer := NewConv2D(1, 1, 3, 3, 1, 0, true)
	x := tensor.Sequential(tensor.Shape{5, 5})

	y, cache, err := layer.Forward(x)
	require.NoError(t, err)
	require.NotNil(t, cache)
	assert.True(t, y.Shape().Equal(tensor.Shape{3, 3, 1}), "got %v", y.Shape())
}

// TestConv2D_ForwardMatchesConvolve: the layer output equals the pure GEMM
// convolution of the input with the layer's weight, plus bias.
func TestConv2D_ForwardMatchesConvolve(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	layer := NewConv2D(2, 3, 3, 3, 1, 1, true)

	// Give the bias a nonzero value so the addition is exercised.
	for i := range layer.Bias().Tensor().Data() {
		layer.Bias().Tensor().Data()[i] = float64(i) + 0.5
	}

	x := randomTensor(rng, tensor.Shape{6, 5, 2})

	y, _, err := layer.Forward(x)
	require.NoError(t, err)

	want, err := conv.Convolve(x, layer.Weight().Tensor(), 1, 1)
	require.NoError(t, err)

	biasData := layer.Bias().Tensor().Data()
	for i := range want.Data() {
		assert.InDelta(t, want.Data()[i]+biasData[i%3], y.Data()[i], 1e-10, "position %d", i)
	}
}

// TestConv2D_GradientShapes: dW matches the kernel shape and dx matches the
// input shape, for both rank-2 and rank-3 inputs. These equalities hold
// independent of input content.
func TestConv2D_GradientShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(17))

	t.Run("single channel rank-2 input", func(t *testing.T) {
		layer := NewConv2D(1, 1, 3, 3, 1, 0, true)
		x := randomTensor(rng, tensor.Shape{5, 5})

		y, cache, err := layer.Forward(x)
		require.NoError(t, err)

		dx, err := layer.Backward(cache, onesTensor(y.Shape()))
		require.NoError(t, err)

		assert.True(t, dx.Shape().Equal(x.Shape()), "dx %v, x %v", dx.Shape(), x.Shape())
		assert.True(t, layer.Weight().Grad().Shape().Equal(layer.Weight().Tensor().Shape()))
		assert.True(t, layer.Bias().Grad().Shape().Equal(tensor.Shape{1}))
	})

	t.Run("multi channel", func(t *testing.T) {
		layer := NewConv2D(3, 4, 2, 3, 1, 1, true)
		x := randomTensor(rng, tensor.Shape{6, 7, 3})

		y, cache, err := layer.Forward(x)
		require.NoError(t, err)
		require.True(t, y.Shape().Equal(tensor.Shape{7, 7, 4}))

		dx, err := layer.Backward(cache, randomTensor(rng, y.Shape()))
		require.NoError(t, err)

		assert.True(t, dx.Shape().Equal(x.Shape()))
		assert.True(t, layer.Weight().Grad().Shape().Equal(tensor.Shape{2, 3, 3, 4}))
		assert.True(t, layer.Bias().Grad().Shape().Equal(tensor.Shape{4}))
	})
}

// TestConv2D_BackwardWithoutForward: a fresh layer has no cache, so Backward
// must fail with an InvalidStateError.
func TestConv2D_BackwardWithoutForward(t *testing.T) {
	layer := NewConv2D(1, 1, 2, 2, 1, 0, false)

	_, err := layer.Backward(nil, onesTensor(tensor.Shape{2, 2, 1}))
	require.Error(t, err)
	var stateErr *InvalidStateError
	assert.True(t, errors.As(err, &stateErr), "expected *InvalidStateError, got %T", err)
}

// TestConv2D_BackwardTwice: a cache is consumed by its first Backward call.
func TestConv2D_BackwardTwice(t *testing.T) {
	layer := NewConv2D(1, 1, 2, 2, 1, 0, false)
	x := tensor.Sequential(tensor.Shape{3, 3})

	y, cache, err := layer.Forward(x)
	require.NoError(t, err)

	dOut := onesTensor(y.Shape())
	_, err = layer.Backward(cache, dOut)
	require.NoError(t, err)

	_, err = layer.Backward(cache, dOut)
	require.Error(t, err)
	var stateErr *InvalidStateError
	assert.True(t, errors.As(err, &stateErr))
}

// TestConv2D_BackwardShapeMismatch: dOut must match the forward output shape.
func TestConv2D_BackwardShapeMismatch(t *testing.T) {
	layer := NewConv2D(1, 1, 2, 2, 1, 0, false)
	x := tensor.Sequential(tensor.Shape{4, 4})

	_, cache, err := layer.Forward(x)
	require.NoError(t, err)

	_, err = layer.Backward(cache, onesTensor(tensor.Shape{2, 2, 1}))
	require.Error(t, err)
	var shapeErr *tensor.ShapeError
	assert.True(t, errors.As(err, &shapeErr), "expected *tensor.ShapeError, got %T", err)
}

// TestConv2D_BiasGradient: dBias is the sum of dOut over all output
// positions, per output channel.
func TestConv2D_BiasGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	layer := NewConv2D(1, 2, 2, 2, 1, 0, true)
	x := randomTensor(rng, tensor.Shape{4, 4, 1})

	y, cache, err := layer.Forward(x)
	require.NoError(t, err)

	dOut := randomTensor(rng, y.Shape())
	_, err = layer.Backward(cache, dOut)
	require.NoError(t, err)

	want := make([]float64, 2)
	for pos := 0; pos < 9; pos++ {
		for f := 0; f < 2; f++ {
			want[f] += dOut.Data()[pos*2+f]
		}
	}
	for f := 0; f < 2; f++ {
		assert.InDelta(t, want[f], layer.Bias().Grad().Data()[f], 1e-10)
	}
}

// TestConv2D_WeightGradientNumeric checks the analytic weight gradient
// against central finite differences of the loss L = sum(Forward(x)).
func TestConv2D_WeightGradientNumeric(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	layer := NewConv2D(1, 1, 2, 2, 1, 0, false)
	x := randomTensor(rng, tensor.Shape{4, 4})

	y, cache, err := layer.Forward(x)
	require.NoError(t, err)
	_, err = layer.Backward(cache, onesTensor(y.Shape()))
	require.NoError(t, err)

	analytic := layer.Weight().Grad().Data()
	weightData := layer.Weight().Tensor().Data()

	const eps = 1e-6
	for i := range weightData {
		orig := weightData[i]

		weightData[i] = orig + eps
		plus, _, err := layer.Forward(x)
		require.NoError(t, err)

		weightData[i] = orig - eps
		minus, _, err := layer.Forward(x)
		require.NoError(t, err)

		weightData[i] = orig

		numeric := (plus.Sum() - minus.Sum()) / (2 * eps)
		assert.InDelta(t, numeric, analytic[i], 1e-5, "weight %d", i)
	}
}

// TestConv2D_InputGradientNumeric checks the analytic input gradient against
// central finite differences, exercising the col2im adjoint path end to end.
func TestConv2D_InputGradientNumeric(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	layer := NewConv2D(1, 1, 3, 3, 1, 0, false)
	x := randomTensor(rng, tensor.Shape{5, 5})

	y, cache, err := layer.Forward(x)
	require.NoError(t, err)
	dx, err := layer.Backward(cache, onesTensor(y.Shape()))
	require.NoError(t, err)

	xData := x.Data()
	const eps = 1e-6
	for i := range xData {
		orig := xData[i]

		xData[i] = orig + eps
		plus, _, err := layer.Forward(x)
		require.NoError(t, err)

		xData[i] = orig - eps
		minus, _, err := layer.Forward(x)
		require.NoError(t, err)

		xData[i] = orig

		numeric := (plus.Sum() - minus.Sum()) / (2 * eps)
		assert.InDelta(t, numeric, dx.Data()[i], 1e-5, "input %d", i)
	}
}

// TestConv2D_ChannelMismatch rejects inputs that do not carry the layer's
// input channel count.
func TestConv2D_ChannelMismatch(t *testing.T) {
	layer := NewConv2D(2, 1, 2, 2, 1, 0, false)

	_, _, err := layer.Forward(tensor.Sequential(tensor.Shape{4, 4}))
	require.Error(t, err)

	_, _, err = layer.Forward(tensor.Sequential(tensor.Shape{4, 4, 3}))
	require.Error(t, err)
	var shapeErr *tensor.ShapeError
	assert.True(t, errors.As(err, &shapeErr))
}

// TestConv2D_Parameters: bias toggles the parameter list.
func TestConv2D_Parameters(t *testing.T) {
	withBias := NewConv2D(1, 1, 2, 2, 1, 0, true)
	assert.Len(t, withBias.Parameters(), 2)

	noBias := NewConv2D(1, 1, 2, 2, 1, 0, false)
	assert.Len(t, noBias.Parameters(), 1)
	assert.Nil(t, noBias.Bias())
}

// TestConv2D_NoBiasSkipsBiasGradient: without bias there is no bias
// parameter to populate.
func TestConv2D_NoBiasSkipsBiasGradient(t *testing.T) {
	layer := NewConv2D(1, 1, 2, 2, 1, 0, false)
	x := tensor.Sequential(tensor.Shape{3, 3})

	y, cache, err := layer.Forward(x)
	require.NoError(t, err)
	_, err = layer.Backward(cache, onesTensor(y.Shape()))
	require.NoError(t, err)
	require.NotNil(t, layer.Weight().Grad())
}

// TestConv2D_InvalidConstruction: contract violations at construction panic.
func TestConv2D_InvalidConstruction(t *testing.T) {
	assert.Panics(t, func() { NewConv2D(0, 1, 2, 2, 1, 0, false) })
	assert.Panics(t, func() { NewConv2D(1, 1, 0, 2, 1, 0, false) })
	assert.Panics(t, func() { NewConv2D(1, 1, 2, 2, 0, 0, false) })
	assert.Panics(t, func() { NewConv2D(1, 1, 2, 2, 1, -1, false) })
}

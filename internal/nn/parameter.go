package nn

import (
	"github.com/fold-ml/fold/internal/tensor"
)

// Parameter represents a trainable parameter of a layer.
//
// Parameters hold the value tensor and, after a backward pass, its gradient.
// The optimizer reads the gradient and mutates the value tensor in place.
type Parameter struct {
	name   string         // Parameter name (e.g. "conv2d.weight")
	tensor *tensor.Tensor // The parameter value
	grad   *tensor.Tensor // Gradient from the most recent backward pass
}

// NewParameter creates a new trainable parameter.
// The gradient is nil until the first backward pass.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
		grad:   nil,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter value tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Grad returns the gradient tensor, or nil if no backward pass has run yet.
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// SetGrad sets the gradient tensor.
// Called by the layer's backward pass.
func (p *Parameter) SetGrad(grad *tensor.Tensor) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
// Call before each training iteration to drop stale gradients.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}

// Copyright 2025 The fold Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for fold's trainable layers.
//
// The only layer is Conv2D: a GEMM-based 2D convolution with analytic
// forward/backward passes. Forward returns an explicit Cache that must be
// handed to the matching Backward call; the cache is consumed by Backward
// and cannot be reused. Gradients land on the layer's Parameters, where an
// optimizer (package optim) picks them up.
//
// Example:
//
//	layer := nn.NewConv2D(1, 1, 3, 3, 1, 0, true)
//	y, cache, err := layer.Forward(x)
//	dx, err := layer.Backward(cache, dOut)
//	dw := layer.Weight().Grad()
package nn

import (
	"github.com/fold-ml/fold/internal/nn"
	"github.com/fold-ml/fold/internal/tensor"
)

// Conv2D is a trainable 2D convolution layer.
type Conv2D = nn.Conv2D

// Cache carries the state one Forward call produces for the matching
// Backward call.
type Cache = nn.Cache

// Parameter represents a trainable parameter of a layer.
type Parameter = nn.Parameter

// InvalidStateError reports a violation of the forward -> backward call
// protocol; check with errors.As.
type InvalidStateError = nn.InvalidStateError

// NewConv2D creates a 2D convolution layer with Xavier-initialized weights
// and zero bias.
func NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding int, useBias bool) *Conv2D {
	return nn.NewConv2D(inChannels, outChannels, kernelH, kernelW, stride, padding, useBias)
}

// NewParameter creates a new trainable parameter.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}

// Xavier fills a tensor with Glorot-uniform initialized weights.
func Xavier(fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor {
	return nn.Xavier(fanIn, fanOut, shape)
}

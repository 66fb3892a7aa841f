// Copyright 2025 The fold Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the public API for fold's optimizers.
//
// Optimizers read the gradients a backward pass stores on nn.Parameter
// values and update the parameter tensors in place.
package optim

import (
	"github.com/fold-ml/fold/internal/nn"
	"github.com/fold-ml/fold/internal/optim"
)

// SGD implements stochastic gradient descent with optional momentum.
type SGD = optim.SGD

// Config holds SGD configuration.
type Config = optim.Config

// NewSGD creates a new SGD optimizer over the given parameters.
func NewSGD(params []*nn.Parameter, config Config) *SGD {
	return optim.NewSGD(params, config)
}

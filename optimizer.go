// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownOptimizer is returned for optimizer names that are not
// supported.
var ErrUnknownOptimizer = errors.New("unknown optimizer")

// OptimizerConfig describes an optimizer. Zero hyperparameters are
// replaced by the defaults of the optimizer.
type OptimizerConfig struct {
	Name    string
	Beta1   float64
	Beta2   float64
	Rho     float64
	Epsilon float64
}

// An Optimizer updates parameters from their gradients. Parameters are
// identified by a slot, so that the optimizer can keep per-parameter
// state.
type Optimizer interface {
	Update(slot int, params, grads []float64, learningRate float64)
}

// NewOptimizer constructs the optimizer with the given configuration.
func NewOptimizer(config OptimizerConfig) (Optimizer, error) {
	switch strings.ToLower(config.Name) {
	case "adam":
		return &Adam{
			Beta1:   orDefault(config.Beta1, 0.9),
			Beta2:   orDefault(config.Beta2, 0.98),
			Epsilon: orDefault(config.Epsilon, 1e-9),
			state:   make(map[int]*adamState),
		}, nil
	case "rmsprop":
		return &RMSProp{
			Rho:     orDefault(config.Rho, 0.9),
			Epsilon: orDefault(config.Epsilon, 1e-7),
			state:   make(map[int][]float64),
		}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownOptimizer, "%q", config.Name)
	}
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

type adamState struct {
	m []float64
	v []float64
	t int
}

// Adam implements the Adam optimizer.
type Adam struct {
	Beta1   float64
	Beta2   float64
	Epsilon float64

	state map[int]*adamState
}

func (o *Adam) Update(slot int, params, grads []float64, learningRate float64) {
	s, ok := o.state[slot]
	if !ok {
		s = &adamState{
			m: make([]float64, len(params)),
			v: make([]float64, len(params)),
		}
		o.state[slot] = s
	}

	s.t++
	t := float64(s.t)
	lr := learningRate * math.Sqrt(1-math.Pow(o.Beta2, t)) / (1 - math.Pow(o.Beta1, t))

	for i, g := range grads {
		s.m[i] = o.Beta1*s.m[i] + (1-o.Beta1)*g
		s.v[i] = o.Beta2*s.v[i] + (1-o.Beta2)*g*g
		params[i] -= lr * s.m[i] / (math.Sqrt(s.v[i]) + o.Epsilon)
	}
}

// RMSProp implements the RMSprop optimizer.
type RMSProp struct {
	Rho     float64
	Epsilon float64

	state map[int][]float64
}

func (o *RMSProp) Update(slot int, params, grads []float64, learningRate float64) {
	avg, ok := o.state[slot]
	if !ok {
		avg = make([]float64, len(params))
		o.state[slot] = avg
	}

	for i, g := range grads {
		avg[i] = o.Rho*avg[i] + (1-o.Rho)*g*g
		params[i] -= learningRate * g / (math.Sqrt(avg[i]) + o.Epsilon)
	}
}

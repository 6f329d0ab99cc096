// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptimizerDefaults(t *testing.T) {
	opt, err := NewOptimizer(OptimizerConfig{Name: "Adam"})
	require.NoError(t, err)

	adam, ok := opt.(*Adam)
	require.True(t, ok)
	assert.Equal(t, 0.9, adam.Beta1)
	assert.Equal(t, 0.98, adam.Beta2)
	assert.Equal(t, 1e-9, adam.Epsilon)

	opt, err = NewOptimizer(OptimizerConfig{Name: "rmsprop", Rho: 0.95})
	require.NoError(t, err)
	rms, ok := opt.(*RMSProp)
	require.True(t, ok)
	assert.Equal(t, 0.95, rms.Rho)

	_, err = NewOptimizer(OptimizerConfig{Name: "adagrad"})
	assert.Equal(t, ErrUnknownOptimizer, errors.Cause(err))
}

func TestAdamFirstStep(t *testing.T) {
	opt, err := NewOptimizer(OptimizerConfig{Name: "adam"})
	require.NoError(t, err)

	// The first bias-corrected step has the size of the learning rate.
	params := []float64{1, 1}
	opt.Update(0, params, []float64{0.5, -2}, 0.1)
	assert.InDelta(t, 0.9, params[0], 1e-6)
	assert.InDelta(t, 1.1, params[1], 1e-6)
}

func TestOptimizersMinimizeQuadratic(t *testing.T) {
	for _, name := range []string{"adam", "rmsprop"} {
		t.Run(name, func(t *testing.T) {
			opt, err := NewOptimizer(OptimizerConfig{Name: name})
			require.NoError(t, err)

			// Minimize (x - 3)^2.
			params := []float64{0}
			for i := 0; i < 2000; i++ {
				grads := []float64{2 * (params[0] - 3)}
				opt.Update(0, params, grads, 0.01)
			}
			assert.Less(t, math.Abs(params[0]-3), 0.05)
		})
	}
}

func TestOptimizerSlotsAreIndependent(t *testing.T) {
	opt, err := NewOptimizer(OptimizerConfig{Name: "adam"})
	require.NoError(t, err)

	a := []float64{0}
	b := []float64{0}
	opt.Update(0, a, []float64{1}, 0.1)
	opt.Update(1, b, []float64{1}, 0.1)
	assert.Equal(t, a, b)
}

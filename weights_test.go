// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultClassWeights(t *testing.T) {
	assert.Equal(t, 51294, DefaultClassCounts.Total())

	weights, err := DefaultClassCounts.Weights()
	require.NoError(t, err)

	assert.InDelta(t, 51294.0/(2*45557), weights[0], 1e-12)
	assert.InDelta(t, 51294.0/(2*5737), weights[1], 1e-12)

	// The weight ratio is the inverse of the class ratio.
	assert.InDelta(t, 45557.0/5737, weights[1]/weights[0], 1e-9)
}

func TestWeightsOfMissingClass(t *testing.T) {
	_, err := ClassCounts{Negative: 10}.Weights()
	assert.Error(t, err)

	assert.Panics(t, func() { mustWeights(ClassCounts{Negative: 10}) })
}

func TestDefaultTrainerConfigWeights(t *testing.T) {
	weights, err := DefaultClassCounts.Weights()
	require.NoError(t, err)
	assert.Equal(t, weights, DefaultTrainerConfig().ClassWeights)
}

func TestCountClasses(t *testing.T) {
	counts := CountClasses([]OneHot{{1, 0}, {0, 1}, {1, 0}})
	assert.Equal(t, ClassCounts{Negative: 2, Positive: 1}, counts)

	weights, err := counts.Weights()
	require.NoError(t, err)
	assert.Equal(t, ClassWeights{0.75, 1.5}, weights)
}

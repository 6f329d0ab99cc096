// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import "github.com/pkg/errors"

// ClassCounts are the number of negative (0) and positive (1) examples.
type ClassCounts struct {
	Negative int
	Positive int
}

// DefaultClassCounts are the class counts of the propaganda corpus.
var DefaultClassCounts = ClassCounts{Negative: 45557, Positive: 5737}

// CountClasses counts the classes of one-hot labels.
func CountClasses(labels []OneHot) ClassCounts {
	var counts ClassCounts
	for _, l := range labels {
		if l.Class() == 1 {
			counts.Positive++
		} else {
			counts.Negative++
		}
	}
	return counts
}

func (c ClassCounts) Total() int {
	return c.Negative + c.Positive
}

// ClassWeights scale the loss of examples of each class.
type ClassWeights [NumClasses]float64

// UniformClassWeights do not rebalance classes.
var UniformClassWeights = ClassWeights{1, 1}

// Weights returns inverse-frequency weights: total / (2 * count).
func (c ClassCounts) Weights() (ClassWeights, error) {
	if c.Negative < 1 || c.Positive < 1 {
		return ClassWeights{}, errors.Errorf("cannot weight classes with counts %d/%d", c.Negative, c.Positive)
	}

	total := float64(c.Total())
	return ClassWeights{
		total / (2 * float64(c.Negative)),
		total / (2 * float64(c.Positive)),
	}, nil
}

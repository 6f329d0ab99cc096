// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"sort"

	"github.com/danieldk/proppynn"
	"github.com/pkg/errors"
)

// A mode is a complete experiment: which preset is used, how the model
// is built, how it is validated and what it is evaluated on.
type mode struct {
	preset     string
	pipeline   string
	validation proppynn.ValidationStrategy

	// Without fit, only the data is prepared.
	fit      bool
	evaluate []proppynn.SplitKind
}

var testAndDev = []proppynn.SplitKind{proppynn.Test, proppynn.Dev}
var testOnly = []proppynn.SplitKind{proppynn.Test}

var modes = map[int]mode{
	2:  {preset: "attention", pipeline: "meanpool", validation: proppynn.ValidateNone, fit: true, evaluate: testAndDev},
	3:  {preset: "train-embeddings", pipeline: "meanpool", fit: false},
	4:  {preset: "second-experiment", pipeline: "meanpool", validation: proppynn.ValidateNone, fit: true, evaluate: testOnly},
	6:  {preset: "transformer", pipeline: "meanpool", validation: proppynn.ValidateAuto, fit: true, evaluate: testOnly},
	7:  {preset: "mean-model", pipeline: "meanpool", validation: proppynn.ValidateNone, fit: true, evaluate: testAndDev},
	8:  {preset: "second-experiment", pipeline: "meanpool", validation: proppynn.ValidateAuto, fit: true, evaluate: testOnly},
	9:  {preset: "both-embeddings", pipeline: "dualmeanpool", validation: proppynn.ValidateNone, fit: true, evaluate: testAndDev},
	11: {preset: "second-experiment", pipeline: "meanpool", validation: proppynn.ValidateNone, fit: true, evaluate: testOnly},
	12: {preset: "mean-model", pipeline: "meanpool", validation: proppynn.ValidateNone, fit: true, evaluate: testAndDev},
	13: {preset: "fact-label", pipeline: "meanpool-aux", validation: proppynn.ValidateDev, fit: true, evaluate: testAndDev},
}

func lookupMode(n int) (mode, error) {
	m, ok := modes[n]
	if !ok {
		return mode{}, errors.Errorf("unknown mode %d, available modes: %v", n, modeNumbers())
	}
	return m, nil
}

func modeNumbers() []int {
	var numbers []int
	for n := range modes {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

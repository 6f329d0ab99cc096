// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// LengthPolicy determines the length that all sequences are padded or
// truncated to.
type LengthPolicy int

const (
	LengthFixed LengthPolicy = iota
	LengthMean
	LengthMode
	LengthMedian
)

// ParseLengthPolicy parses a policy name. The second return value is
// false for unknown names, in which case LengthFixed is returned.
func ParseLengthPolicy(name string) (LengthPolicy, bool) {
	switch strings.ToLower(name) {
	case "fixed":
		return LengthFixed, true
	case "mean":
		return LengthMean, true
	case "mode":
		return LengthMode, true
	case "median":
		return LengthMedian, true
	default:
		return LengthFixed, false
	}
}

func (p LengthPolicy) String() string {
	switch p {
	case LengthFixed:
		return "fixed"
	case LengthMean:
		return "mean"
	case LengthMode:
		return "mode"
	case LengthMedian:
		return "median"
	default:
		return "unknown"
	}
}

// ResolveLength returns the sequence length for a policy. The fixed
// policy returns fixed unchanged; the other policies compute the
// statistic over the lengths of the given (train) sequences, truncated
// to an integer.
func ResolveLength(policy LengthPolicy, fixed int, seqs [][]int32) (int, error) {
	if policy == LengthFixed {
		return fixed, nil
	}

	if len(seqs) == 0 {
		return 0, ErrEmptySplit
	}

	lengths := make(stats.Float64Data, len(seqs))
	for idx, seq := range seqs {
		lengths[idx] = float64(len(seq))
	}

	var (
		value float64
		err   error
	)

	switch policy {
	case LengthMean:
		value, err = stats.Mean(lengths)
	case LengthMedian:
		value, err = stats.Median(lengths)
	case LengthMode:
		value, err = firstMode(lengths)
	default:
		return 0, errors.Errorf("unknown length policy: %d", policy)
	}

	if err != nil {
		return 0, errors.Wrapf(err, "cannot compute %s length", policy)
	}

	return int(value), nil
}

// firstMode returns the most frequent value. When several values are
// equally frequent, the one that occurs first in data is returned.
func firstMode(data stats.Float64Data) (float64, error) {
	modes, err := stats.Mode(data)
	if err != nil {
		return 0, err
	}

	// stats.Mode returns nothing when all values are unique.
	if len(modes) == 0 {
		return data[0], nil
	}

	isMode := make(map[float64]bool, len(modes))
	for _, m := range modes {
		isMode[m] = true
	}

	for _, v := range data {
		if isMode[v] {
			return v, nil
		}
	}

	return modes[0], nil
}

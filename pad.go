// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"strings"

	"github.com/pkg/errors"
)

// PadSide selects at which side of a sequence padding is added or
// tokens are removed.
type PadSide int

const (
	// Pre pads or truncates at the start of the sequence.
	Pre PadSide = iota

	// Post pads or truncates at the end of the sequence.
	Post
)

// ParsePadSide parses "pre" or "post". The empty string is Pre.
func ParsePadSide(s string) (PadSide, error) {
	switch strings.ToLower(s) {
	case "", "pre":
		return Pre, nil
	case "post":
		return Post, nil
	default:
		return Pre, errors.Errorf("unknown padding side: %s", s)
	}
}

func (s PadSide) String() string {
	if s == Post {
		return "post"
	}
	return "pre"
}

// Padding configures PadSequences.
type Padding struct {
	Padding    PadSide
	Truncating PadSide
}

// PadSequences pads every sequence with zeros and truncates it to
// exactly length tokens.
func PadSequences(seqs [][]int32, length int, padding Padding) ([][]int32, error) {
	if length < 1 {
		return nil, errors.Errorf("invalid sequence length: %d", length)
	}

	padded := make([][]int32, len(seqs))
	for idx, seq := range seqs {
		if len(seq) > length {
			if padding.Truncating == Pre {
				seq = seq[len(seq)-length:]
			} else {
				seq = seq[:length]
			}
		}

		row := make([]int32, length)
		if padding.Padding == Pre {
			copy(row[length-len(seq):], seq)
		} else {
			copy(row, seq)
		}

		padded[idx] = row
	}

	return padded, nil
}

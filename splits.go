// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// ErrEmptySplit is returned when a split that is required to compute
// statistics does not contain any example.
var ErrEmptySplit = errors.New("split does not contain any examples")

// SplitKind identifies a partition of the labeled data.
type SplitKind int

const (
	Train SplitKind = iota
	Test
	Dev
)

func (k SplitKind) String() string {
	switch k {
	case Train:
		return "train"
	case Test:
		return "test"
	case Dev:
		return "dev"
	default:
		return "unknown"
	}
}

// NumClasses is the number of output classes of every classifier.
const NumClasses = 2

// OneHot is a two-class one-hot label.
type OneHot [NumClasses]float32

// Class recovers the integer class using the evaluation decision rule.
func (o OneHot) Class() int {
	return Decide(float64(o[0]), float64(o[1]))
}

type record struct {
	Text  string `csv:"text"`
	Label int    `csv:"label"`
}

// RawSplit holds the raw columns of one split. Labels are always
// remapped to {0, 1}. Aux is nil unless auxiliary labels were attached.
type RawSplit struct {
	Texts  []string
	Labels []int
	Aux    []string
}

// Len returns the number of examples in the split.
func (s *RawSplit) Len() int {
	return len(s.Texts)
}

// OneHot returns the one-hot encoding of the split labels.
func (s *RawSplit) OneHot() []OneHot {
	oneHot := make([]OneHot, len(s.Labels))
	for idx, label := range s.Labels {
		oneHot[idx][label] = 1
	}
	return oneHot
}

// RawSplits holds the train, test and (optional) dev splits. Dev is nil
// when no dev data was provided.
type RawSplits struct {
	Train RawSplit
	Test  RawSplit
	Dev   *RawSplit
}

// Each calls fn for every present split, in train, test, dev order.
func (s *RawSplits) Each(fn func(SplitKind, *RawSplit) error) error {
	if err := fn(Train, &s.Train); err != nil {
		return err
	}
	if err := fn(Test, &s.Test); err != nil {
		return err
	}
	if s.Dev != nil {
		return fn(Dev, s.Dev)
	}
	return nil
}

// RemapLabel maps the legacy negative class -1 to 0. 0 and 1 are
// returned unchanged, other values are an error.
func RemapLabel(label int) (int, error) {
	switch label {
	case -1, 0:
		return 0, nil
	case 1:
		return 1, nil
	default:
		return 0, errors.Errorf("invalid label: %d", label)
	}
}

func newTSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader
}

// ReadSplit reads a tab-separated file with (at least) a text and a
// label column.
func ReadSplit(r io.Reader) (RawSplit, error) {
	var records []*record
	if err := gocsv.UnmarshalCSV(newTSVReader(r), &records); err != nil {
		return RawSplit{}, errors.Wrap(err, "cannot parse split")
	}

	split := RawSplit{
		Texts:  make([]string, len(records)),
		Labels: make([]int, len(records)),
	}

	for idx, rec := range records {
		label, err := RemapLabel(rec.Label)
		if err != nil {
			return RawSplit{}, errors.Wrapf(err, "row %d", idx+1)
		}
		split.Texts[idx] = rec.Text
		split.Labels[idx] = label
	}

	return split, nil
}

// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"io"
	"sort"

	"github.com/danieldk/proppynn/label"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// DefaultAuxFallback is the category that train labels missing from the
// test split are folded into. The extra train categories are all
// derivations of it.
const DefaultAuxFallback = "Extreme Right, Propaganda, Conspiracy"

// ErrAuxMismatch is returned when the one-hot encodings of the auxiliary
// labels do not have the same columns in every split.
var ErrAuxMismatch = errors.New("auxiliary one-hot columns differ between splits")

type auxRecord struct {
	FactLabel string `csv:"FactLabel"`
}

// ReadAuxLabels reads the FactLabel column of a tab-separated side table.
func ReadAuxLabels(r io.Reader) ([]string, error) {
	var records []*auxRecord
	if err := gocsv.UnmarshalCSV(newTSVReader(r), &records); err != nil {
		return nil, errors.Wrap(err, "cannot parse auxiliary labels")
	}

	labels := make([]string, len(records))
	for idx, rec := range records {
		labels[idx] = rec.FactLabel
	}

	return labels, nil
}

// AuxFeatures are the one-hot encoded auxiliary labels of every split.
type AuxFeatures struct {
	Columns []string
	Train   [][]float32
	Test    [][]float32
	Dev     [][]float32
}

// Width returns the number of one-hot columns.
func (f *AuxFeatures) Width() int {
	return len(f.Columns)
}

// EncodeAux one-hot encodes the auxiliary labels attached to the splits.
// Train categories that do not occur in the test split are replaced by
// fallback. Every present split must have auxiliary labels for all rows
// and must end up with the same columns, otherwise ErrAuxMismatch is
// returned.
func EncodeAux(splits *RawSplits, fallback string) (*AuxFeatures, error) {
	err := splits.Each(func(kind SplitKind, split *RawSplit) error {
		if len(split.Aux) != split.Len() {
			return errors.Errorf("%s split has %d rows but %d auxiliary labels", kind, split.Len(), len(split.Aux))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool)
	for _, l := range splits.Test.Aux {
		known[l] = true
	}

	trainAux := make([]string, len(splits.Train.Aux))
	for idx, l := range splits.Train.Aux {
		if known[l] {
			trainAux[idx] = l
		} else {
			trainAux[idx] = fallback
		}
	}

	columns := auxColumns(trainAux)
	features := &AuxFeatures{
		Columns: columns,
		Train:   oneHotAux(trainAux, columns),
	}

	testColumns := auxColumns(splits.Test.Aux)
	if !equalColumns(columns, testColumns) {
		return nil, errors.Wrapf(ErrAuxMismatch, "train has %d columns, test has %d", len(columns), len(testColumns))
	}
	features.Test = oneHotAux(splits.Test.Aux, columns)

	if splits.Dev != nil {
		devColumns := auxColumns(splits.Dev.Aux)
		if !equalColumns(columns, devColumns) {
			return nil, errors.Wrapf(ErrAuxMismatch, "train has %d columns, dev has %d", len(columns), len(devColumns))
		}
		features.Dev = oneHotAux(splits.Dev.Aux, columns)
	}

	return features, nil
}

func auxColumns(labels []string) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			columns = append(columns, l)
		}
	}
	sort.Strings(columns)
	return columns
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for idx := range a {
		if a[idx] != b[idx] {
			return false
		}
	}
	return true
}

func oneHotAux(labels []string, columns []string) [][]float32 {
	numberer := label.NewNumberer()
	for _, c := range columns {
		numberer.Number(c)
	}

	oneHot := make([][]float32, len(labels))
	for idx, l := range labels {
		row := make([]float32, len(columns))
		if col, ok := numberer.Lookup(l); ok {
			row[col-1] = 1
		}
		oneHot[idx] = row
	}
	return oneHot
}

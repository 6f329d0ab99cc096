// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Inputs are the model inputs of a set of examples. Aux is nil when no
// auxiliary features are used.
type Inputs struct {
	Sequences [][]int32
	Aux       [][]float32
}

// Len returns the number of examples.
func (in Inputs) Len() int {
	return len(in.Sequences)
}

// Subset returns the inputs of the examples with the given indices.
func (in Inputs) Subset(indices []int) Inputs {
	sub := Inputs{Sequences: make([][]int32, len(indices))}
	if in.Aux != nil {
		sub.Aux = make([][]float32, len(indices))
	}

	for i, idx := range indices {
		sub.Sequences[i] = in.Sequences[idx]
		if in.Aux != nil {
			sub.Aux[i] = in.Aux[idx]
		}
	}

	return sub
}

// Batch is a group of examples that is processed in one training step.
type Batch struct {
	Inputs Inputs
	Labels []OneHot
}

// Len returns the number of examples in the batch.
func (b Batch) Len() int {
	return len(b.Labels)
}

// BatchedDataset pairs inputs with one-hot labels and groups them in
// batches of a fixed size. The last batch may be smaller.
type BatchedDataset struct {
	inputs    Inputs
	labels    []OneHot
	batchSize int
}

// NewBatchedDataset creates a dataset. The number of inputs and labels
// must be equal.
func NewBatchedDataset(inputs Inputs, labels []OneHot, batchSize int) (*BatchedDataset, error) {
	if batchSize < 1 {
		return nil, errors.Errorf("invalid batch size: %d", batchSize)
	}

	if inputs.Len() != len(labels) {
		return nil, errors.Errorf("%d inputs, but %d labels", inputs.Len(), len(labels))
	}

	if inputs.Aux != nil && len(inputs.Aux) != len(labels) {
		return nil, errors.Errorf("%d auxiliary inputs, but %d labels", len(inputs.Aux), len(labels))
	}

	return &BatchedDataset{
		inputs:    inputs,
		labels:    labels,
		batchSize: batchSize,
	}, nil
}

func (d *BatchedDataset) Len() int {
	return len(d.labels)
}

func (d *BatchedDataset) BatchSize() int {
	return d.batchSize
}

func (d *BatchedDataset) Inputs() Inputs {
	return d.inputs
}

func (d *BatchedDataset) Labels() []OneHot {
	return d.labels
}

// Batches returns the dataset in batches. The examples are shuffled
// using rng, or kept in order when rng is nil.
func (d *BatchedDataset) Batches(rng *rand.Rand) []Batch {
	order := make([]int, d.Len())
	for idx := range order {
		order[idx] = idx
	}

	if rng != nil {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	var batches []Batch
	for start := 0; start < len(order); start += d.batchSize {
		end := start + d.batchSize
		if end > len(order) {
			end = len(order)
		}

		indices := order[start:end]
		labels := make([]OneHot, len(indices))
		for i, idx := range indices {
			labels[i] = d.labels[idx]
		}

		batches = append(batches, Batch{
			Inputs: d.inputs.Subset(indices),
			Labels: labels,
		})
	}

	return batches
}

// Subset returns a dataset with the examples with the given indices.
func (d *BatchedDataset) Subset(indices []int) *BatchedDataset {
	labels := make([]OneHot, len(indices))
	for i, idx := range indices {
		labels[i] = d.labels[idx]
	}

	return &BatchedDataset{
		inputs:    d.inputs.Subset(indices),
		labels:    labels,
		batchSize: d.batchSize,
	}
}

// TailSplit holds out the trailing fraction of the examples, without
// shuffling.
func (d *BatchedDataset) TailSplit(fraction float64) (*BatchedDataset, *BatchedDataset, error) {
	splitAt := int(float64(d.Len()) * (1 - fraction))

	train := make([]int, 0, splitAt)
	validation := make([]int, 0, d.Len()-splitAt)
	for idx := 0; idx < d.Len(); idx++ {
		if idx < splitAt {
			train = append(train, idx)
		} else {
			validation = append(validation, idx)
		}
	}

	return d.splitIndices(train, validation)
}

// StratifiedSplit holds out a fraction of the examples of every class,
// selected using a random source with the given seed.
func (d *BatchedDataset) StratifiedSplit(fraction float64, seed int64) (*BatchedDataset, *BatchedDataset, error) {
	rng := rand.New(rand.NewSource(seed))

	var perClass [NumClasses][]int
	for idx, label := range d.labels {
		class := label.Class()
		perClass[class] = append(perClass[class], idx)
	}

	var train, validation []int
	for _, indices := range perClass {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		n := int(math.Round(fraction * float64(len(indices))))
		validation = append(validation, indices[:n]...)
		train = append(train, indices[n:]...)
	}

	// Do not leave the held-out part grouped by class.
	rng.Shuffle(len(train), func(i, j int) {
		train[i], train[j] = train[j], train[i]
	})
	rng.Shuffle(len(validation), func(i, j int) {
		validation[i], validation[j] = validation[j], validation[i]
	})

	return d.splitIndices(train, validation)
}

func (d *BatchedDataset) splitIndices(train, validation []int) (*BatchedDataset, *BatchedDataset, error) {
	if len(train) == 0 || len(validation) == 0 {
		return nil, nil, errors.Errorf("cannot split %d examples into train and validation data", d.Len())
	}

	return d.Subset(train), d.Subset(validation), nil
}

// Datasets holds the batched datasets of each split. Dev is nil when
// there is no dev split.
type Datasets struct {
	Train *BatchedDataset
	Test  *BatchedDataset
	Dev   *BatchedDataset
}

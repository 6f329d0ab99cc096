// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// Probabilities are the class probabilities predicted for one example.
type Probabilities [NumClasses]float64

// A Predictor computes class probabilities. Predict must not change the
// state of the predictor.
type Predictor interface {
	Predict(inputs Inputs) ([]Probabilities, error)
}

// StepResult is the outcome of one training step.
type StepResult struct {
	// Loss is the mean class-weighted loss of the batch.
	Loss float64

	// Probabilities are the predictions of the forward pass.
	Probabilities []Probabilities
}

// A Model is a trainable network.
type Model interface {
	Predictor

	// TrainBatch performs one optimization step.
	TrainBatch(batch Batch, weights ClassWeights, learningRate float64) (StepResult, error)

	// Loss returns the mean unweighted loss over the given examples.
	Loss(inputs Inputs, labels []OneHot) (float64, error)

	WriteWeights(w io.Writer) error
	ReadWeights(r io.Reader) error
}

// WriteCheckpoint writes the weights of a model to path. The file is
// replaced atomically.
func WriteCheckpoint(path string, model Model) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "cannot create checkpoint directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "cannot create checkpoint")
	}
	defer os.Remove(tmp.Name())

	w := snappy.NewBufferedWriter(tmp)
	if err := model.WriteWeights(w); err != nil {
		tmp.Close()
		return errors.Wrap(err, "cannot write weights")
	}

	if err := w.Close(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "cannot write weights")
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// ReadCheckpoint restores the weights of a model from path.
func ReadCheckpoint(path string, model Model) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := model.ReadWeights(snappy.NewReader(f)); err != nil {
		return errors.Wrapf(err, "cannot read checkpoint %s", path)
	}

	return nil
}

// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tfgraph runs frozen TensorFlow classification graphs.
package tfgraph

import (
	"io/ioutil"
	"os"

	"github.com/danieldk/proppynn"
	"github.com/danieldk/tensorflow"
	tfconfig "github.com/danieldk/tensorflow/config"
	"github.com/pkg/errors"
)

// Config describes a frozen graph and the operations that are used to
// feed it and to read its predictions.
type Config struct {
	Graph             string
	GPUMemoryFraction float64
	BatchSize         int

	// InputOp is fed with the padded word indices of a batch.
	InputOp string

	// AuxOp is fed with the auxiliary features. It is only used when the
	// inputs have auxiliary features.
	AuxOp string

	// OutputOp yields a batchSize x 2 tensor of class probabilities.
	OutputOp string
}

var _ proppynn.Predictor = new(Predictor)

// Predictor computes class probabilities with a frozen graph.
type Predictor struct {
	session *tensorflow.Session
	config  Config
}

// NewPredictor opens a TensorFlow session and loads the graph.
func NewPredictor(config Config) (*Predictor, error) {
	if config.BatchSize < 1 {
		return nil, errors.Errorf("invalid batch size: %d", config.BatchSize)
	}

	tfconf := tfconfig.ConfigProto{
		GpuOptions: &tfconfig.GPUOptions{
			PerProcessGpuMemoryFraction: config.GPUMemoryFraction,
		},
	}

	opts := tensorflow.NewSessionOptions()
	defer opts.Close()
	opts.SetConfig(tfconf)

	session, err := tensorflow.NewSession(opts)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open TensorFlow session")
	}

	f, err := os.Open(config.Graph)
	if err != nil {
		session.Close()
		return nil, errors.Wrap(err, "cannot open graph")
	}
	defer f.Close()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		session.Close()
		return nil, errors.Wrap(err, "cannot read graph")
	}

	if err := session.ExtendGraph(data); err != nil {
		session.Close()
		return nil, errors.Wrap(err, "cannot load graph into session")
	}

	return &Predictor{
		session: session,
		config:  config,
	}, nil
}

func (p *Predictor) Close() {
	p.session.Close()
}

// Predict runs the graph on the inputs in batches of the configured
// size. Word indices are fed as float32 values.
func (p *Predictor) Predict(inputs proppynn.Inputs) ([]proppynn.Probabilities, error) {
	if inputs.Len() == 0 {
		return nil, nil
	}

	length := len(inputs.Sequences[0])
	seqBuilder := NewTensorBuilder(p.config.BatchSize, length)

	var auxBuilder *TensorBuilder
	if inputs.Aux != nil {
		if p.config.AuxOp == "" {
			return nil, errors.New("inputs have auxiliary features, but the graph has no auxiliary input")
		}
		auxBuilder = NewTensorBuilder(p.config.BatchSize, len(inputs.Aux[0]))
	}

	probs := make([]proppynn.Probabilities, 0, inputs.Len())
	for start := 0; start < inputs.Len(); start += p.config.BatchSize {
		end := start + p.config.BatchSize
		if end > inputs.Len() {
			end = inputs.Len()
		}

		for idx := start; idx < end; idx++ {
			seqBuilder.Add(int32sToFloat32s(inputs.Sequences[idx]))
			if auxBuilder != nil {
				auxBuilder.Add(inputs.Aux[idx])
			}
		}

		feeds := map[string]tensorflow.Tensor{p.config.InputOp: seqBuilder.Tensor()}
		if auxBuilder != nil {
			feeds[p.config.AuxOp] = auxBuilder.Tensor()
		}

		batchProbs, err := p.run(feeds, end-start)
		if err != nil {
			return nil, err
		}
		probs = append(probs, batchProbs...)

		// The builders wrap around, start the next batch at row 0.
		seqBuilder.row = 0
		if auxBuilder != nil {
			auxBuilder.row = 0
		}
	}

	return probs, nil
}

func (p *Predictor) run(feeds map[string]tensorflow.Tensor, n int) ([]proppynn.Probabilities, error) {
	outputs, err := p.session.Run(feeds, []string{p.config.OutputOp})
	if err != nil {
		return nil, errors.Wrap(err, "error running graph")
	}

	predictions, ok := outputs[p.config.OutputOp].(*tensorflow.Float32Tensor)
	if !ok {
		return nil, errors.Errorf("output %s is not a float32 tensor", p.config.OutputOp)
	}

	probs := make([]proppynn.Probabilities, n)
	for idx := range probs {
		row := predictions.Get([]int{idx})
		if len(row) != proppynn.NumClasses {
			return nil, errors.Errorf("expected %d class probabilities, got %d", proppynn.NumClasses, len(row))
		}
		for c, v := range row {
			probs[idx][c] = float64(v)
		}
	}

	return probs, nil
}

func int32sToFloat32s(seq []int32) []float32 {
	f := make([]float32, len(seq))
	for idx, v := range seq {
		f[idx] = float32(v)
	}
	return f
}

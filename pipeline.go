// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrUnknownPipeline is returned when a pipeline name is not registered.
var ErrUnknownPipeline = errors.New("unknown pipeline")

// ModelConfig holds the hyperparameters of a model.
type ModelConfig struct {
	DenseUnits int
	Rate       float64
	L2Rate     float64
	Optimizer  OptimizerConfig
	Seed       int64
}

// A TrainablePipeline is a model architecture together with the way it
// consumes prepared data.
type TrainablePipeline interface {
	// Build constructs a fresh model for the prepared data.
	Build(config ModelConfig, data *Prepared) (Model, error)

	// Prepare packages the prepared data in batched datasets with the
	// inputs that the architecture uses.
	Prepare(data *Prepared, batchSize int) (*Datasets, error)
}

var pipelines = make(map[string]TrainablePipeline)

// RegisterPipeline makes a pipeline available under a name.
func RegisterPipeline(name string, pipeline TrainablePipeline) {
	if _, ok := pipelines[name]; ok {
		panic("pipeline registered twice: " + name)
	}
	pipelines[name] = pipeline
}

// LookupPipeline returns the pipeline with the given name.
func LookupPipeline(name string) (TrainablePipeline, error) {
	pipeline, ok := pipelines[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPipeline, "%q", name)
	}
	return pipeline, nil
}

// PipelineNames returns the names of all registered pipelines.
func PipelineNames() []string {
	var names []string
	for name := range pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDatasets packages every present split in a batched dataset. When
// withAux is false, auxiliary inputs are left out.
func NewDatasets(data *Prepared, batchSize int, withAux bool) (*Datasets, error) {
	build := func(kind SplitKind, split *SplitData) (*BatchedDataset, error) {
		inputs := split.Inputs
		if !withAux {
			inputs.Aux = nil
		}

		ds, err := NewBatchedDataset(inputs, split.Labels, batchSize)
		if err != nil {
			return nil, errors.Wrapf(err, "%s split", kind)
		}
		return ds, nil
	}

	var (
		datasets Datasets
		err      error
	)

	if datasets.Train, err = build(Train, &data.Train); err != nil {
		return nil, err
	}

	if datasets.Test, err = build(Test, &data.Test); err != nil {
		return nil, err
	}

	if data.Dev != nil {
		if datasets.Dev, err = build(Dev, data.Dev); err != nil {
			return nil, err
		}
	}

	return &datasets, nil
}

func init() {
	RegisterPipeline("meanpool", MeanPoolPipeline{})
	RegisterPipeline("dualmeanpool", MeanPoolPipeline{Dual: true})
	RegisterPipeline("meanpool-aux", MeanPoolPipeline{Aux: true})
}

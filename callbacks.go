// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"bytes"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// TrainState is the training state that callbacks can inspect and
// change.
type TrainState struct {
	Model        Model
	LearningRate float64
	StopTraining bool
	Logger       *zap.Logger
}

// A Callback is invoked by the trainer during training.
type Callback interface {
	OnTrainBegin(state *TrainState) error
	OnEpochEnd(state *TrainState, logs EpochLogs) error
	OnTrainEnd(state *TrainState) error
}

// ModelCheckpoint writes the model weights to Path whenever the
// monitored metric improves.
type ModelCheckpoint struct {
	Path    string
	Monitor string

	best float64
}

func NewModelCheckpoint(path string) *ModelCheckpoint {
	return &ModelCheckpoint{Path: path, Monitor: "loss"}
}

func (c *ModelCheckpoint) OnTrainBegin(state *TrainState) error {
	c.best = math.Inf(1)
	return nil
}

func (c *ModelCheckpoint) OnEpochEnd(state *TrainState, logs EpochLogs) error {
	current, ok := logs.Get(c.Monitor)
	if !ok || current >= c.best {
		return nil
	}

	state.Logger.Info("saving checkpoint",
		zap.Int("epoch", logs.Epoch),
		zap.String("monitor", c.Monitor),
		zap.Float64("previous", c.best),
		zap.Float64("current", current))
	c.best = current

	return WriteCheckpoint(c.Path, state.Model)
}

func (c *ModelCheckpoint) OnTrainEnd(state *TrainState) error {
	return nil
}

// ReduceLROnPlateau multiplies the learning rate by Factor when the
// monitored metric did not improve for Patience epochs. The learning
// rate is never reduced below MinLR.
type ReduceLROnPlateau struct {
	Monitor  string
	Patience int
	Factor   float64
	MinLR    float64
	MinDelta float64

	best float64
	wait int
}

func NewReduceLROnPlateau(minLR float64) *ReduceLROnPlateau {
	return &ReduceLROnPlateau{
		Monitor:  "loss",
		Patience: 5,
		Factor:   0.5,
		MinLR:    minLR,
		MinDelta: 1e-4,
	}
}

func (c *ReduceLROnPlateau) OnTrainBegin(state *TrainState) error {
	c.best = math.Inf(1)
	c.wait = 0
	return nil
}

func (c *ReduceLROnPlateau) OnEpochEnd(state *TrainState, logs EpochLogs) error {
	current, ok := logs.Get(c.Monitor)
	if !ok {
		return errors.Errorf("cannot reduce learning rate, %s is not available", c.Monitor)
	}

	if current < c.best-c.MinDelta {
		c.best = current
		c.wait = 0
		return nil
	}

	c.wait++
	if c.wait < c.Patience {
		return nil
	}

	c.wait = 0
	if state.LearningRate <= c.MinLR {
		return nil
	}

	lr := math.Max(state.LearningRate*c.Factor, c.MinLR)
	state.Logger.Info("reducing learning rate",
		zap.Int("epoch", logs.Epoch),
		zap.Float64("from", state.LearningRate),
		zap.Float64("to", lr))
	state.LearningRate = lr

	return nil
}

func (c *ReduceLROnPlateau) OnTrainEnd(state *TrainState) error {
	return nil
}

// EarlyStopping stops training when the monitored metric did not
// improve for Patience epochs. With RestoreBest, the weights of the
// best epoch are restored when training is stopped.
type EarlyStopping struct {
	Monitor     string
	Patience    int
	MinDelta    float64
	RestoreBest bool

	best        float64
	wait        int
	bestWeights []byte
}

func NewEarlyStopping() *EarlyStopping {
	return &EarlyStopping{
		Monitor:     "val_loss",
		Patience:    5,
		RestoreBest: true,
	}
}

func (c *EarlyStopping) OnTrainBegin(state *TrainState) error {
	c.best = math.Inf(1)
	c.wait = 0
	c.bestWeights = nil
	return nil
}

func (c *EarlyStopping) OnEpochEnd(state *TrainState, logs EpochLogs) error {
	current, ok := logs.Get(c.Monitor)
	if !ok {
		state.Logger.Warn("early stopping is conditioned on an unavailable metric",
			zap.String("monitor", c.Monitor))
		return nil
	}

	c.wait++

	if current < c.best-c.MinDelta {
		c.best = current
		c.wait = 0

		if c.RestoreBest {
			var buf bytes.Buffer
			if err := state.Model.WriteWeights(&buf); err != nil {
				return errors.Wrap(err, "cannot keep best weights")
			}
			c.bestWeights = buf.Bytes()
		}

		return nil
	}

	if c.wait < c.Patience || logs.Epoch == 0 {
		return nil
	}

	state.StopTraining = true
	state.Logger.Info("stopping early",
		zap.Int("epoch", logs.Epoch),
		zap.Float64("best", c.best))

	if c.RestoreBest && c.bestWeights != nil {
		state.Logger.Info("restoring weights of the best epoch")
		return state.Model.ReadWeights(bytes.NewReader(c.bestWeights))
	}

	return nil
}

func (c *EarlyStopping) OnTrainEnd(state *TrainState) error {
	return nil
}

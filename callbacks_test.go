// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeModel predicts {0.6, 0.4} for every example. Its only weight is
// incremented by every training step.
type fakeModel struct {
	weight  float64
	steps   int
	lrs     []float64
	valLoss []float64
	losses  int
}

func (m *fakeModel) Predict(inputs Inputs) ([]Probabilities, error) {
	probs := make([]Probabilities, inputs.Len())
	for idx := range probs {
		probs[idx] = Probabilities{0.6, 0.4}
	}
	return probs, nil
}

func (m *fakeModel) TrainBatch(batch Batch, weights ClassWeights, learningRate float64) (StepResult, error) {
	m.steps++
	m.weight++
	m.lrs = append(m.lrs, learningRate)

	probs, _ := m.Predict(batch.Inputs)
	return StepResult{
		Loss:          1 / float64(m.steps),
		Probabilities: probs,
	}, nil
}

// Loss returns the scripted validation losses in order, repeating the
// last one.
func (m *fakeModel) Loss(inputs Inputs, labels []OneHot) (float64, error) {
	if len(m.valLoss) == 0 {
		return 1, nil
	}

	idx := m.losses
	if idx >= len(m.valLoss) {
		idx = len(m.valLoss) - 1
	}
	m.losses++

	return m.valLoss[idx], nil
}

func (m *fakeModel) WriteWeights(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%v\n", m.weight)
	return err
}

func (m *fakeModel) ReadWeights(r io.Reader) error {
	_, err := fmt.Fscan(r, &m.weight)
	return err
}

func newTestState(t *testing.T, model Model) *TrainState {
	return &TrainState{
		Model:        model,
		LearningRate: 1e-3,
		Logger:       zaptest.NewLogger(t),
	}
}

func TestReduceLROnPlateau(t *testing.T) {
	state := newTestState(t, &fakeModel{})
	cb := NewReduceLROnPlateau(5e-5)
	require.NoError(t, cb.OnTrainBegin(state))

	var lrs []float64
	for epoch := 0; epoch < 31; epoch++ {
		require.NoError(t, cb.OnEpochEnd(state, EpochLogs{Epoch: epoch, Loss: 1}))
		lrs = append(lrs, state.LearningRate)
	}

	// The first epoch sets the best loss, every five stagnant epochs
	// halve the learning rate until the minimum is reached.
	assert.Equal(t, 1e-3, lrs[4])
	assert.Equal(t, 5e-4, lrs[5])
	assert.Equal(t, 5e-4, lrs[9])
	assert.Equal(t, 2.5e-4, lrs[10])
	assert.Equal(t, 1.25e-4, lrs[15])
	assert.Equal(t, 6.25e-5, lrs[20])
	assert.Equal(t, 5e-5, lrs[25])
	assert.Equal(t, 5e-5, lrs[30])
}

func TestReduceLROnPlateauResetsOnImprovement(t *testing.T) {
	state := newTestState(t, &fakeModel{})
	cb := NewReduceLROnPlateau(5e-5)
	require.NoError(t, cb.OnTrainBegin(state))

	losses := []float64{1, 1, 1, 1, 0.5, 0.5, 0.5, 0.5, 0.5}
	for epoch, loss := range losses {
		require.NoError(t, cb.OnEpochEnd(state, EpochLogs{Epoch: epoch, Loss: loss}))
	}
	assert.Equal(t, 1e-3, state.LearningRate)

	require.NoError(t, cb.OnEpochEnd(state, EpochLogs{Epoch: 9, Loss: 0.5}))
	assert.Equal(t, 5e-4, state.LearningRate)
}

func TestEarlyStoppingRestoresBest(t *testing.T) {
	model := &fakeModel{}
	state := newTestState(t, model)
	cb := NewEarlyStopping()
	require.NoError(t, cb.OnTrainBegin(state))

	valLosses := []float64{1.0, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0, 1.1}
	stopped := -1
	for epoch, loss := range valLosses {
		model.weight = float64(epoch)
		logs := EpochLogs{Epoch: epoch, HasValidation: true, ValLoss: loss}
		require.NoError(t, cb.OnEpochEnd(state, logs))
		if state.StopTraining {
			stopped = epoch
			break
		}
	}

	assert.Equal(t, 6, stopped)
	assert.Equal(t, 1.0, model.weight, "weights of the best epoch are restored")
}

func TestEarlyStoppingWithoutValidation(t *testing.T) {
	state := newTestState(t, &fakeModel{})
	cb := NewEarlyStopping()
	require.NoError(t, cb.OnTrainBegin(state))

	for epoch := 0; epoch < 10; epoch++ {
		require.NoError(t, cb.OnEpochEnd(state, EpochLogs{Epoch: epoch, Loss: 1}))
	}
	assert.False(t, state.StopTraining)
}

func TestModelCheckpoint(t *testing.T) {
	model := &fakeModel{}
	state := newTestState(t, model)
	path := filepath.Join(t.TempDir(), "checkpoints", "checkpoint.cpk")

	cb := NewModelCheckpoint(path)
	require.NoError(t, cb.OnTrainBegin(state))

	for epoch, loss := range []float64{0.7, 0.5, 0.6} {
		model.weight = float64(epoch + 1)
		require.NoError(t, cb.OnEpochEnd(state, EpochLogs{Epoch: epoch, Loss: loss}))
	}

	restored := &fakeModel{}
	require.NoError(t, ReadCheckpoint(path, restored))
	assert.Equal(t, 2.0, restored.weight, "the checkpoint of the lowest loss is kept")
}

func TestReadCheckpointMissing(t *testing.T) {
	err := ReadCheckpoint(filepath.Join(t.TempDir(), "missing.cpk"), &fakeModel{})
	assert.Error(t, err)
}

type failingCallback struct {
	epochs int
}

func (c *failingCallback) OnTrainBegin(state *TrainState) error {
	return errors.New("cannot begin")
}

func (c *failingCallback) OnEpochEnd(state *TrainState, logs EpochLogs) error {
	c.epochs++
	return errors.New("cannot end epoch")
}

func (c *failingCallback) OnTrainEnd(state *TrainState) error {
	return errors.New("cannot end")
}

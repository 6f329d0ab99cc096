// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"context"
	"math/rand"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Seed is the random seed that is set before every fit.
const Seed = 42

// ErrNoDevSplit is returned when held-out dev validation is requested
// without a dev split and fallback is disabled.
var ErrNoDevSplit = errors.New("no dev split available for validation")

// ValidationStrategy selects the data that is used for validation.
type ValidationStrategy int

const (
	// ValidateNone trains on the full train split without validation.
	ValidateNone ValidationStrategy = iota

	// ValidateDev uses the dev split for validation.
	ValidateDev

	// ValidateAuto holds out a fraction of the train split.
	ValidateAuto
)

// ParseValidationStrategy parses none, dev or auto.
func ParseValidationStrategy(s string) (ValidationStrategy, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return ValidateNone, nil
	case "dev":
		return ValidateDev, nil
	case "auto":
		return ValidateAuto, nil
	default:
		return ValidateNone, errors.Errorf("unknown validation strategy: %s", s)
	}
}

func (s ValidationStrategy) String() string {
	switch s {
	case ValidateNone:
		return "none"
	case ValidateDev:
		return "dev"
	case ValidateAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// SplitMethod selects how ValidateAuto holds out validation data.
type SplitMethod int

const (
	// SplitStratified holds out a seeded random fraction of every class.
	SplitStratified SplitMethod = iota

	// SplitTail holds out the trailing examples of the train split.
	SplitTail
)

// TrainerConfig configures a Trainer.
type TrainerConfig struct {
	Epochs       int
	LearningRate float64
	Seed         int64
	ClassWeights ClassWeights

	// ValidationFraction is the fraction of the train split that
	// ValidateAuto holds out.
	ValidationFraction float64
	SplitMethod        SplitMethod

	// DevFallback makes ValidateDev fall back to ValidateAuto when
	// there is no dev split.
	DevFallback bool

	Callbacks []Callback
}

// DefaultTrainerConfig returns a configuration with the fixed seed, the
// weights of DefaultClassCounts and a validation fraction of 10%.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Epochs:             10,
		LearningRate:       1e-3,
		Seed:               Seed,
		ClassWeights:       mustWeights(DefaultClassCounts),
		ValidationFraction: 0.1,
		SplitMethod:        SplitStratified,
	}
}

// mustWeights is only used for counts that are known to be positive.
func mustWeights(counts ClassCounts) ClassWeights {
	weights, err := counts.Weights()
	if err != nil {
		panic(err)
	}
	return weights
}

// A Trainer fits models.
type Trainer struct {
	config TrainerConfig
	logger *zap.Logger
}

func NewTrainer(config TrainerConfig, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Trainer{
		config: config,
		logger: logger,
	}
}

// Resume restores the model weights from a checkpoint. It returns false
// when the checkpoint does not exist.
func (t *Trainer) Resume(model Model, path string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}

	if err := ReadCheckpoint(path, model); err != nil {
		return false, err
	}

	t.logger.Info("resumed from checkpoint", zap.String("path", path))
	return true, nil
}

func (t *Trainer) validationData(data *Datasets, strategy ValidationStrategy) (*BatchedDataset, *BatchedDataset, error) {
	switch strategy {
	case ValidateNone:
		return data.Train, nil, nil
	case ValidateDev:
		if data.Dev != nil {
			return data.Train, data.Dev, nil
		}
		if !t.config.DevFallback {
			return nil, nil, ErrNoDevSplit
		}
		t.logger.Warn("no dev split, holding out part of the train split")
		return t.validationData(data, ValidateAuto)
	case ValidateAuto:
		if t.config.SplitMethod == SplitTail {
			return data.Train.TailSplit(t.config.ValidationFraction)
		}
		return data.Train.StratifiedSplit(t.config.ValidationFraction, t.config.Seed)
	default:
		return nil, nil, errors.Errorf("unknown validation strategy: %d", strategy)
	}
}

// Fit trains the model using the given validation strategy.
func (t *Trainer) Fit(ctx context.Context, model Model, data *Datasets, strategy ValidationStrategy) (*History, error) {
	train, validation, err := t.validationData(data, strategy)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(t.config.Seed))

	state := &TrainState{
		Model:        model,
		LearningRate: t.config.LearningRate,
		Logger:       t.logger,
	}

	for _, cb := range t.config.Callbacks {
		if err := cb.OnTrainBegin(state); err != nil {
			t.logger.Warn("callback failed", zap.Error(err))
		}
	}

	logFields := []zap.Field{
		zap.Int("train", train.Len()),
		zap.Stringer("validation", strategy),
		zap.Float64s("class_weights", t.config.ClassWeights[:]),
	}
	if validation != nil {
		logFields = append(logFields, zap.Int("held_out", validation.Len()))
	}
	t.logger.Info("fitting model", logFields...)

	history := &History{}
	for epoch := 0; epoch < t.config.Epochs; epoch++ {
		logs, err := t.trainEpoch(ctx, state, train, rng)
		if err != nil {
			return history, errors.Wrapf(err, "epoch %d", epoch+1)
		}
		logs.Epoch = epoch

		if validation != nil {
			if err := t.validate(model, validation, &logs); err != nil {
				return history, errors.Wrapf(err, "epoch %d", epoch+1)
			}
		}

		history.Epochs = append(history.Epochs, logs)
		t.logEpoch(logs)

		for _, cb := range t.config.Callbacks {
			if err := cb.OnEpochEnd(state, logs); err != nil {
				t.logger.Warn("callback failed", zap.Int("epoch", epoch+1), zap.Error(err))
			}
		}

		if state.StopTraining {
			break
		}
	}

	for _, cb := range t.config.Callbacks {
		if err := cb.OnTrainEnd(state); err != nil {
			t.logger.Warn("callback failed", zap.Error(err))
		}
	}

	return history, nil
}

func (t *Trainer) trainEpoch(ctx context.Context, state *TrainState, train *BatchedDataset, rng *rand.Rand) (EpochLogs, error) {
	var lossSum float64
	var correct, n int

	for _, batch := range train.Batches(rng) {
		if err := ctx.Err(); err != nil {
			return EpochLogs{}, err
		}

		step, err := state.Model.TrainBatch(batch, t.config.ClassWeights, state.LearningRate)
		if err != nil {
			return EpochLogs{}, err
		}

		lossSum += step.Loss * float64(batch.Len())
		correct += countCorrect(step.Probabilities, batch.Labels)
		n += batch.Len()
	}

	if n == 0 {
		return EpochLogs{}, errors.Wrap(ErrEmptySplit, "train")
	}

	return EpochLogs{
		Loss:         lossSum / float64(n),
		Accuracy:     float64(correct) / float64(n),
		LearningRate: state.LearningRate,
	}, nil
}

func (t *Trainer) validate(model Model, validation *BatchedDataset, logs *EpochLogs) error {
	loss, err := model.Loss(validation.Inputs(), validation.Labels())
	if err != nil {
		return errors.Wrap(err, "cannot compute validation loss")
	}

	probs, err := model.Predict(validation.Inputs())
	if err != nil {
		return errors.Wrap(err, "cannot predict validation data")
	}

	logs.HasValidation = true
	logs.ValLoss = loss
	logs.ValAccuracy = float64(countCorrect(probs, validation.Labels())) / float64(validation.Len())

	return nil
}

func (t *Trainer) logEpoch(logs EpochLogs) {
	fields := []zap.Field{
		zap.Int("epoch", logs.Epoch+1),
		zap.Float64("loss", logs.Loss),
		zap.Float64("accuracy", logs.Accuracy),
		zap.Float64("lr", logs.LearningRate),
	}

	if logs.HasValidation {
		fields = append(fields,
			zap.Float64("val_loss", logs.ValLoss),
			zap.Float64("val_accuracy", logs.ValAccuracy))
	}

	t.logger.Info("epoch", fields...)
}

func countCorrect(probs []Probabilities, labels []OneHot) int {
	correct := 0
	for idx, p := range probs {
		if Decide(p[0], p[1]) == labels[idx].Class() {
			correct++
		}
	}
	return correct
}

// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/danieldk/proppynn"
	"github.com/danieldk/proppynn/cmd/common"
	"go.uber.org/zap"
)

type args struct {
	Config  string `arg:"--config" help:"TOML configuration file, the built-in presets are used without it"`
	Mode    int    `arg:"--mode,required" help:"experiment to run"`
	Plot    string `arg:"--plot" help:"write the loss history as PNG to this file"`
	Verbose bool   `arg:"-v" help:"log debug messages"`
}

func (args) Description() string {
	return "Train and evaluate a propaganda classifier"
}

func main() {
	var a args
	arg.MustParse(&a)

	common.SetVerbose(a.Verbose)
	defer common.Logger.Sync()

	m, err := lookupMode(a.Mode)
	common.ExitIfError("", err)

	config := common.MustReadConfig(a.Config)
	preset, err := config.Preset(m.preset)
	common.ExitIfError("", err)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	start := time.Now()
	run(ctx, m, preset, a.Plot)
	common.Logger.Info("finished", zap.Int("mode", a.Mode), zap.Duration("took", time.Since(start)))
}

func run(ctx context.Context, m mode, preset *common.Preset, plot string) {
	logger := common.Logger

	prepareConfig, err := preset.PrepareConfig()
	common.ExitIfError("Invalid data configuration: ", err)

	raw := common.MustReadSplits(preset.Data)
	sources := common.MustReadSources(preset.Embeddings)

	prepared, err := proppynn.Prepare(raw, prepareConfig, sources, logger)
	common.ExitIfError("Cannot prepare data: ", err)

	if !m.fit {
		logger.Info("data prepared, not fitting a model")
		return
	}

	pipeline, err := proppynn.LookupPipeline(m.pipeline)
	common.ExitIfError("", err)

	datasets, err := pipeline.Prepare(prepared, preset.Data.BatchSize)
	common.ExitIfError("Cannot batch data: ", err)

	model, err := pipeline.Build(preset.ModelConfig(), prepared)
	common.ExitIfError("Cannot build model: ", err)

	trainer := proppynn.NewTrainer(mustTrainerConfig(preset, prepared), logger)

	if preset.Training.Resume {
		_, err := trainer.Resume(model, preset.Training.Checkpoint)
		common.ExitIfError("Cannot resume from checkpoint: ", err)
	}

	history, err := trainer.Fit(ctx, model, datasets, m.validation)
	common.ExitIfError("Training failed: ", err)

	if plot != "" {
		f := common.FileOrStdout(plot)
		err := proppynn.PlotHistory(history, f)
		f.Close()
		common.ExitIfError("Cannot plot history: ", err)
	}

	for _, kind := range m.evaluate {
		split := datasets.Test
		if kind == proppynn.Dev {
			split = datasets.Dev
		}

		if split == nil {
			logger.Info("no split to evaluate", zap.Stringer("split", kind))
			continue
		}

		report, err := proppynn.Evaluate(model, split.Inputs(), split.Labels())
		common.ExitIfError("Evaluation failed: ", err)

		fmt.Printf("%s SET\n%s\n", strings.ToUpper(kind.String()), report)
	}
}

func mustTrainerConfig(preset *common.Preset, prepared *proppynn.Prepared) proppynn.TrainerConfig {
	config := proppynn.DefaultTrainerConfig()
	config.Epochs = preset.Training.Epochs
	config.LearningRate = preset.Training.LearningRate
	config.DevFallback = preset.Training.DevFallback

	if preset.Training.DeriveClassWeights {
		weights, err := proppynn.CountClasses(prepared.Train.Labels).Weights()
		common.ExitIfError("Cannot derive class weights: ", err)
		config.ClassWeights = weights
	}

	config.Callbacks = []proppynn.Callback{
		proppynn.NewModelCheckpoint(preset.Training.Checkpoint),
		proppynn.NewReduceLROnPlateau(preset.Training.MinLearningRate),
	}

	if preset.Training.EarlyStopping {
		config.Callbacks = append(config.Callbacks, proppynn.NewEarlyStopping())
	}

	return config
}

// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/danieldk/proppynn"
	"github.com/danieldk/proppynn/cmd/common"
	"github.com/danieldk/proppynn/tfgraph"
	"go.uber.org/zap"
)

type args struct {
	Config     string `arg:"--config" help:"TOML configuration file, the built-in presets are used without it"`
	Preset     string `arg:"--preset,required" help:"preset with the data and graph settings"`
	Length     int    `arg:"--length,required" help:"sequence length that the graph was trained with"`
	Vocabulary string `arg:"--vocab" help:"vocabulary file, defaults to the vocabulary of the preset"`
}

func (args) Description() string {
	return "Evaluate a frozen TensorFlow graph on the test and dev splits"
}

func main() {
	var a args
	arg.MustParse(&a)
	defer common.Logger.Sync()

	config := common.MustReadConfig(a.Config)
	preset, err := config.Preset(a.Preset)
	common.ExitIfError("", err)

	prepareConfig, err := preset.PrepareConfig()
	common.ExitIfError("Invalid data configuration: ", err)

	if a.Vocabulary == "" {
		a.Vocabulary = preset.Data.Vocabulary
	}
	vocab := common.MustReadVocabulary(a.Vocabulary)
	common.Logger.Info("read vocabulary", zap.Int("words", vocab.Size()))

	raw := common.MustReadSplits(preset.Data)

	var aux *proppynn.AuxFeatures
	if prepareConfig.UseAux {
		aux, err = proppynn.EncodeAux(raw, prepareConfig.AuxFallback)
		common.ExitIfError("Cannot encode auxiliary labels: ", err)
	}

	predictor, err := tfgraph.NewPredictor(tfgraph.Config{
		Graph:             preset.TensorFlow.Graph,
		GPUMemoryFraction: preset.TensorFlow.GPUMemoryFraction,
		BatchSize:         preset.Data.BatchSize,
		InputOp:           preset.TensorFlow.InputOp,
		AuxOp:             preset.TensorFlow.AuxOp,
		OutputOp:          preset.TensorFlow.OutputOp,
	})
	common.ExitIfError("Cannot load graph: ", err)
	defer predictor.Close()

	err = raw.Each(func(kind proppynn.SplitKind, split *proppynn.RawSplit) error {
		if kind == proppynn.Train {
			return nil
		}

		seqs := vocab.Sequences(split.Texts, prepareConfig.MaxWords)
		padded, err := proppynn.PadSequences(seqs, a.Length, prepareConfig.Padding)
		if err != nil {
			return err
		}

		inputs := proppynn.Inputs{Sequences: padded}
		if aux != nil {
			inputs.Aux = aux.Test
			if kind == proppynn.Dev {
				inputs.Aux = aux.Dev
			}
		}

		report, err := proppynn.Evaluate(predictor, inputs, split.OneHot())
		if err != nil {
			return err
		}

		fmt.Printf("%s SET\n%s\n", strings.ToUpper(kind.String()), report)
		return nil
	})
	common.ExitIfError("Evaluation failed: ", err)
}

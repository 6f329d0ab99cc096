// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"

	"github.com/alexflint/go-arg"
	"github.com/danieldk/proppynn"
	"github.com/danieldk/proppynn/cmd/common"
	"github.com/danieldk/proppynn/h5batch"
	"go.uber.org/zap"
	hdf5 "gonum.org/v1/hdf5"
)

type args struct {
	Config   string `arg:"--config" help:"TOML configuration file, the built-in presets are used without it"`
	Preset   string `arg:"--preset,required" help:"preset to prepare the data of"`
	Pipeline string `arg:"--pipeline" help:"pipeline that determines the exported inputs"`
	Output   string `arg:"positional,required" help:"output directory"`
}

func (args) Description() string {
	return "Prepare the data of a preset and export it to HDF5"
}

func main() {
	a := args{Pipeline: "meanpool"}
	arg.MustParse(&a)
	defer common.Logger.Sync()

	config := common.MustReadConfig(a.Config)
	preset, err := config.Preset(a.Preset)
	common.ExitIfError("", err)

	prepareConfig, err := preset.PrepareConfig()
	common.ExitIfError("Invalid data configuration: ", err)

	raw := common.MustReadSplits(preset.Data)
	sources := common.MustReadSources(preset.Embeddings)

	prepared, err := proppynn.Prepare(raw, prepareConfig, sources, common.Logger)
	common.ExitIfError("Cannot prepare data: ", err)

	pipeline, err := proppynn.LookupPipeline(a.Pipeline)
	common.ExitIfError("", err)

	datasets, err := pipeline.Prepare(prepared, preset.Data.BatchSize)
	common.ExitIfError("Cannot batch data: ", err)

	err = os.MkdirAll(a.Output, 0755)
	common.ExitIfError("Cannot create output directory: ", err)

	common.MustWriteVocabulary(prepared.Vocabulary, filepath.Join(a.Output, "vocab.txt"))

	mustWriteSplit(filepath.Join(a.Output, "train.hdf5"), datasets.Train, prepared.Matrices)
	mustWriteSplit(filepath.Join(a.Output, "test.hdf5"), datasets.Test, nil)
	if datasets.Dev != nil {
		mustWriteSplit(filepath.Join(a.Output, "dev.hdf5"), datasets.Dev, nil)
	}
}

func mustWriteSplit(filename string, ds *proppynn.BatchedDataset, matrices []*proppynn.EmbeddingMatrix) {
	outputFile, err := hdf5.CreateFile(filename, hdf5.F_ACC_TRUNC)
	common.ExitIfError("Error creating file: ", err)
	defer outputFile.Close()

	writer, err := h5batch.NewWriter(outputFile)
	common.ExitIfError("Error creating writer: ", err)
	defer writer.Close()

	err = writer.WriteDataset(ds)
	common.ExitIfError("Error writing batches: ", err)

	for _, m := range matrices {
		err = writer.WriteMatrix(m)
		common.ExitIfError("Error writing embeddings: ", err)
	}

	common.Logger.Info("wrote split",
		zap.String("filename", filename),
		zap.Int("examples", ds.Len()),
		zap.Int("batches", writer.Batches()))
}

// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/danieldk/proppynn"
	"github.com/pkg/errors"
)

// Config is a registry of named presets.
type Config struct {
	Presets map[string]*Preset
}

// Preset holds all the settings of one experiment.
type Preset struct {
	Data       Data
	Embeddings Embeddings
	Model      Model
	Training   Training
	TensorFlow TensorFlow
}

type Data struct {
	Train string
	Test  string

	// Dev is optional, leave it empty when there is no dev split.
	Dev string

	AuxTrain    string `toml:"aux_train"`
	AuxTest     string `toml:"aux_test"`
	AuxDev      string `toml:"aux_dev"`
	AuxFallback string `toml:"aux_fallback"`

	BatchSize      int    `toml:"batch_size"`
	LengthType     string `toml:"length_type"`
	MaxSequenceLen int    `toml:"max_sequence_len"`
	MaxWords       int    `toml:"max_words"`
	Padding        string
	Truncating     string
	Vocabulary     string
}

// UseAux returns true when auxiliary label files are configured.
func (d Data) UseAux() bool {
	return d.AuxTrain != ""
}

type Embeddings struct {
	// Type is glove or fasttext.
	Type     string
	Both     bool
	GloVe    Embedding `toml:"glove"`
	FastText Embedding `toml:"fasttext"`
}

type Embedding struct {
	Filename string

	// Format is word2vec (binary) or text.
	Format    string
	Normalize bool
}

type Model struct {
	DenseUnits int     `toml:"dense_units"`
	Rate       float64 `toml:"rate"`
	L2Rate     float64 `toml:"l2_rate"`
}

type Training struct {
	Epochs          int
	LearningRate    float64 `toml:"learning_rate"`
	MinLearningRate float64 `toml:"min_learning_rate"`
	Optimizer       string
	EarlyStopping   bool   `toml:"early_stopping"`
	Checkpoint      string `toml:"checkpoint"`
	Resume          bool
	DevFallback     bool `toml:"dev_fallback"`

	// DeriveClassWeights computes the class weights from the train
	// split instead of using the corpus counts.
	DeriveClassWeights bool `toml:"derive_class_weights"`
}

type TensorFlow struct {
	GPUMemoryFraction float64 `toml:"gpu_mem_frac"`
	Graph             string
	InputOp           string `toml:"input_op"`
	AuxOp             string `toml:"aux_op"`
	OutputOp          string `toml:"output_op"`
}

func defaultPreset() *Preset {
	return &Preset{
		Data: Data{
			Train:          "data/train_preprocessed.tsv",
			Test:           "data/test_preprocessed.tsv",
			Dev:            "data/dev_preprocessed.tsv",
			AuxFallback:    proppynn.DefaultAuxFallback,
			BatchSize:      32,
			LengthType:     "median",
			MaxSequenceLen: 600,
			MaxWords:       25000,
			Padding:        "pre",
			Truncating:     "pre",
			Vocabulary:     "vocab.txt",
		},
		Embeddings: Embeddings{
			Type: "glove",
			GloVe: Embedding{
				Filename: "embeddings/glove.txt",
				Format:   "text",
			},
			FastText: Embedding{
				Filename: "embeddings/fasttext.vec",
				Format:   "text",
			},
		},
		Model: Model{
			DenseUnits: 128,
			Rate:       0.2,
			L2Rate:     1e-5,
		},
		Training: Training{
			Epochs:          10,
			LearningRate:    1e-3,
			MinLearningRate: 5e-5,
			Optimizer:       "adam",
			EarlyStopping:   true,
			Checkpoint:      "checkpoints/checkpoint.cpk",
		},
		TensorFlow: TensorFlow{
			GPUMemoryFraction: 0.3,
			Graph:             "graph.binaryproto",
			InputOp:           "inputs",
			AuxOp:             "aux",
			OutputOp:          "predictions",
		},
	}
}

func defaultConfiguration() *Config {
	attention := defaultPreset()
	attention.Training.Checkpoint = "checkpoints/checkpoint_attention.cpk"

	trainEmbeddings := defaultPreset()
	trainEmbeddings.Training.Checkpoint = "checkpoints/checkpoint_embeddings.cpk"

	second := defaultPreset()
	second.Data.Dev = ""
	second.Training.Checkpoint = "checkpoints/checkpoint_second.cpk"

	transformer := defaultPreset()
	transformer.Data.Dev = ""
	transformer.Training.Optimizer = "rmsprop"
	transformer.Training.Checkpoint = "checkpoints/checkpoint_transformer.cpk"

	mean := defaultPreset()
	mean.Data.LengthType = "mean"
	mean.Training.Checkpoint = "checkpoints/checkpoint_mean.cpk"

	both := defaultPreset()
	both.Embeddings.Both = true
	both.Training.Checkpoint = "checkpoints/checkpoint_both.cpk"

	fact := defaultPreset()
	fact.Data.AuxTrain = "data/train_factlabel.tsv"
	fact.Data.AuxTest = "data/test_factlabel.tsv"
	fact.Data.AuxDev = "data/dev_factlabel.tsv"
	fact.Training.DevFallback = true
	fact.Training.Checkpoint = "checkpoints/checkpoint_factlabel.cpk"

	return &Config{
		Presets: map[string]*Preset{
			"attention":         attention,
			"train-embeddings":  trainEmbeddings,
			"second-experiment": second,
			"transformer":       transformer,
			"mean-model":        mean,
			"both-embeddings":   both,
			"fact-label":        fact,
		},
	}
}

// DefaultConfig returns the built-in presets.
func DefaultConfig() *Config {
	return defaultConfiguration()
}

// ParseConfig reads a configuration with one table per preset. Settings
// of a built-in preset are overridden, other tables start from the
// defaults.
func ParseConfig(reader io.Reader) (*Config, error) {
	config := defaultConfiguration()

	var tables map[string]toml.Primitive
	md, err := toml.NewDecoder(reader).Decode(&tables)
	if err != nil {
		return nil, err
	}

	for name, table := range tables {
		preset, ok := config.Presets[name]
		if !ok {
			preset = defaultPreset()
			config.Presets[name] = preset
		}

		if err := md.PrimitiveDecode(table, preset); err != nil {
			return nil, errors.Wrapf(err, "preset %s", name)
		}
	}

	return config, nil
}

// Preset returns the preset with the given name.
func (c *Config) Preset(name string) (*Preset, error) {
	preset, ok := c.Presets[name]
	if !ok {
		return nil, errors.Errorf("unknown preset: %s", name)
	}
	return preset, nil
}

// Names returns the sorted preset names.
func (c *Config) Names() []string {
	var names []string
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MustReadConfig reads the configuration file. With an empty filename,
// the built-in presets are used with paths relative to the working
// directory.
func MustReadConfig(filename string) *Config {
	if filename == "" {
		return defaultConfiguration()
	}

	f, err := os.Open(filename)
	ExitIfError("Error opening configuration file: ", err)
	defer f.Close()
	config, err := ParseConfig(f)
	ExitIfError("Error parsing configuration file: ", err)

	for _, preset := range config.Presets {
		preset.relToConfig(filename)
	}

	return config
}

func (p *Preset) relToConfig(configPath string) {
	for _, path := range []*string{
		&p.Data.Train,
		&p.Data.Test,
		&p.Data.Dev,
		&p.Data.AuxTrain,
		&p.Data.AuxTest,
		&p.Data.AuxDev,
		&p.Data.Vocabulary,
		&p.Embeddings.GloVe.Filename,
		&p.Embeddings.FastText.Filename,
		&p.Training.Checkpoint,
		&p.TensorFlow.Graph,
	} {
		*path = relToConfig(configPath, *path)
	}
}

// Return the path of a file, relative to the directory of
// the configuration file, unless the path is absolute.
func relToConfig(configPath, filePath string) string {
	if len(filePath) == 0 {
		return filePath
	}

	if filepath.IsAbs(filePath) {
		return filePath
	}

	return filepath.Join(filepath.Dir(configPath), filePath)
}

// PrepareConfig converts the data settings to a preparation
// configuration.
func (p *Preset) PrepareConfig() (proppynn.PrepareConfig, error) {
	policy, ok := proppynn.ParseLengthPolicy(p.Data.LengthType)
	if !ok {
		return proppynn.PrepareConfig{}, errors.Errorf("unknown length type: %s", p.Data.LengthType)
	}

	padding, err := proppynn.ParsePadSide(p.Data.Padding)
	if err != nil {
		return proppynn.PrepareConfig{}, err
	}

	truncating, err := proppynn.ParsePadSide(p.Data.Truncating)
	if err != nil {
		return proppynn.PrepareConfig{}, err
	}

	return proppynn.PrepareConfig{
		LengthPolicy: policy,
		FixedLength:  p.Data.MaxSequenceLen,
		MaxWords:     p.Data.MaxWords,
		Padding: proppynn.Padding{
			Padding:    padding,
			Truncating: truncating,
		},
		UseAux:      p.Data.UseAux(),
		AuxFallback: p.Data.AuxFallback,
	}, nil
}

// ModelConfig converts the model settings to a model configuration.
func (p *Preset) ModelConfig() proppynn.ModelConfig {
	return proppynn.ModelConfig{
		DenseUnits: p.Model.DenseUnits,
		Rate:       p.Model.Rate,
		L2Rate:     p.Model.L2Rate,
		Optimizer:  proppynn.OptimizerConfig{Name: p.Training.Optimizer},
		Seed:       proppynn.Seed,
	}
}

// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"strings"
	"testing"

	"github.com/danieldk/proppynn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigOverridesPreset(t *testing.T) {
	config, err := ParseConfig(strings.NewReader(`
[mean-model.data]
batch_size = 64
length_type = "mode"

[mean-model.training]
epochs = 3
`))
	require.NoError(t, err)

	preset, err := config.Preset("mean-model")
	require.NoError(t, err)
	assert.Equal(t, 64, preset.Data.BatchSize)
	assert.Equal(t, "mode", preset.Data.LengthType)
	assert.Equal(t, 3, preset.Training.Epochs)

	// Untouched settings keep their defaults.
	assert.Equal(t, 1e-3, preset.Training.LearningRate)
	assert.Equal(t, "data/train_preprocessed.tsv", preset.Data.Train)
	assert.Equal(t, "checkpoints/checkpoint_mean.cpk", preset.Training.Checkpoint)

	other, err := config.Preset("attention")
	require.NoError(t, err)
	assert.Equal(t, 32, other.Data.BatchSize)
}

func TestParseConfigNewPreset(t *testing.T) {
	config, err := ParseConfig(strings.NewReader(`
[custom.embeddings]
type = "fasttext"
`))
	require.NoError(t, err)

	preset, err := config.Preset("custom")
	require.NoError(t, err)
	assert.Equal(t, "fasttext", preset.Embeddings.Type)
	assert.Equal(t, 128, preset.Model.DenseUnits)
	assert.Contains(t, config.Names(), "custom")
}

func TestParseConfigInvalid(t *testing.T) {
	_, err := ParseConfig(strings.NewReader(`[attention.data]
batch_size = "large"`))
	assert.Error(t, err)
}

func TestUnknownPreset(t *testing.T) {
	_, err := DefaultConfig().Preset("bert")
	assert.Error(t, err)
}

func TestRelToConfig(t *testing.T) {
	assert.Equal(t, "", relToConfig("/etc/proppynn/config.toml", ""))
	assert.Equal(t, "/data/train.tsv", relToConfig("/etc/proppynn/config.toml", "/data/train.tsv"))
	assert.Equal(t, "/etc/proppynn/data/train.tsv", relToConfig("/etc/proppynn/config.toml", "data/train.tsv"))

	preset := defaultPreset()
	preset.Data.Dev = ""
	preset.relToConfig("/etc/proppynn/config.toml")
	assert.Equal(t, "/etc/proppynn/data/test_preprocessed.tsv", preset.Data.Test)
	assert.Equal(t, "", preset.Data.Dev, "an absent dev split stays absent")
}

func TestPresetPrepareConfig(t *testing.T) {
	preset := defaultPreset()
	preset.Data.LengthType = "fixed"
	preset.Data.Padding = "post"

	config, err := preset.PrepareConfig()
	require.NoError(t, err)
	assert.Equal(t, proppynn.LengthFixed, config.LengthPolicy)
	assert.Equal(t, 600, config.FixedLength)
	assert.Equal(t, proppynn.Post, config.Padding.Padding)
	assert.Equal(t, proppynn.Pre, config.Padding.Truncating)
	assert.False(t, config.UseAux)

	preset.Data.LengthType = "longest"
	_, err = preset.PrepareConfig()
	assert.Error(t, err)
}

func TestFactLabelPresetUsesAux(t *testing.T) {
	preset, err := DefaultConfig().Preset("fact-label")
	require.NoError(t, err)

	config, err := preset.PrepareConfig()
	require.NoError(t, err)
	assert.True(t, config.UseAux)
	assert.Equal(t, proppynn.DefaultAuxFallback, config.AuxFallback)
}

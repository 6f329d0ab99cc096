// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"fmt"
	"strings"
	"testing"

	"github.com/danieldk/go2vec"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tsvSplit(t *testing.T, n int, offset int) RawSplit {
	var sb strings.Builder
	sb.WriteString("text\tlabel\n")
	for i := 0; i < n; i++ {
		label := -1
		if (i+offset)%3 == 0 {
			label = 1
		}
		fmt.Fprintf(&sb, "the hoax %d is news word%d\t%d\n", i+offset, i+offset, label)
	}

	split, err := ReadSplit(strings.NewReader(sb.String()))
	require.NoError(t, err)
	return split
}

func toyRawSplits(t *testing.T, withDev bool) *RawSplits {
	raw := &RawSplits{
		Train: tsvSplit(t, 10, 0),
		Test:  tsvSplit(t, 5, 10),
	}

	if withDev {
		dev := tsvSplit(t, 5, 15)
		raw.Dev = &dev
	}

	return raw
}

var toySource = mapSource{
	"the":  {0.1, 0.2},
	"hoax": {0.3, 0.4},
	"news": {0.5, 0.6},
}

func toyPrepareConfig() PrepareConfig {
	return PrepareConfig{
		LengthPolicy: LengthFixed,
		FixedLength:  5,
		MaxWords:     100,
	}
}

func TestPrepareEndToEnd(t *testing.T) {
	raw := toyRawSplits(t, true)

	prepared, err := Prepare(raw, toyPrepareConfig(), []NamedSource{{"embeddings", toySource}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, prepared.Length)
	require.Len(t, prepared.Train.Inputs.Sequences, 10)
	for _, seq := range prepared.Train.Inputs.Sequences {
		assert.Len(t, seq, 5)
	}
	assert.Len(t, prepared.Test.Inputs.Sequences, 5)
	require.NotNil(t, prepared.Dev)
	assert.Len(t, prepared.Dev.Inputs.Sequences, 5)

	require.Len(t, prepared.Matrices, 1)
	m := prepared.Matrices[0]
	assert.Equal(t, 100, m.Rows())
	assert.Equal(t, 3, nonZeroRows(m))

	assert.Len(t, prepared.Train.Labels, 10)
	assert.Equal(t, OneHot{0, 1}, prepared.Train.Labels[0])
	assert.Equal(t, OneHot{1, 0}, prepared.Train.Labels[1])
	assert.Nil(t, prepared.Aux)
	assert.Nil(t, prepared.Train.Inputs.Aux)
}

func TestPrepareWithoutDev(t *testing.T) {
	raw := toyRawSplits(t, false)

	prepared, err := Prepare(raw, toyPrepareConfig(), []NamedSource{{"embeddings", toySource}}, nil)
	require.NoError(t, err)
	assert.Nil(t, prepared.Dev)

	datasets, err := NewDatasets(prepared, 4, false)
	require.NoError(t, err)
	assert.Nil(t, datasets.Dev)
	assert.Equal(t, 10, datasets.Train.Len())
}

func TestPrepareVocabularyCoversAllSplits(t *testing.T) {
	raw := toyRawSplits(t, true)

	prepared, err := Prepare(raw, toyPrepareConfig(), []NamedSource{{"embeddings", toySource}}, nil)
	require.NoError(t, err)

	_, ok := prepared.Vocabulary.Index("word19")
	assert.True(t, ok, "dev words are in the vocabulary")

	// The most frequent words get the lowest indices.
	idx, ok := prepared.Vocabulary.Index("the")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestPrepareTruncatesPre(t *testing.T) {
	raw := toyRawSplits(t, false)

	prepared, err := Prepare(raw, toyPrepareConfig(), []NamedSource{{"embeddings", toySource}}, nil)
	require.NoError(t, err)

	// "the hoax 0 is news word0" has six tokens, the first is dropped.
	vocab := prepared.Vocabulary
	want := vocab.Sequences([]string{"hoax 0 is news word0"}, 0)[0]
	assert.Equal(t, want, prepared.Train.Inputs.Sequences[0])
}

func TestPrepareDualSources(t *testing.T) {
	raw := toyRawSplits(t, false)
	other := mapSource{"news": {1, 1, 1}}

	prepared, err := Prepare(raw, toyPrepareConfig(), []NamedSource{
		{"embeddings_glove", toySource},
		{"embeddings_fasttext", other},
	}, nil)
	require.NoError(t, err)

	require.Len(t, prepared.Matrices, 2)
	assert.Equal(t, "embeddings_glove", prepared.Matrices[0].Name)
	assert.Equal(t, 3, prepared.Matrices[1].Dims())
	assert.Equal(t, 1, nonZeroRows(prepared.Matrices[1]))
}

func TestPrepareAux(t *testing.T) {
	raw := toyRawSplits(t, true)
	raw.Train.Aux = []string{"Low", "High", "Low", "Low", "Satire", "High", "Low", "Low", "High", "Low"}
	raw.Test.Aux = []string{"Low", "High", "Low", "Low", "High"}
	raw.Dev.Aux = []string{"High", "High", "Low", "Low", "Low"}

	config := toyPrepareConfig()
	config.UseAux = true
	config.AuxFallback = "Low"

	prepared, err := Prepare(raw, config, []NamedSource{{"embeddings", toySource}}, nil)
	require.NoError(t, err)

	require.NotNil(t, prepared.Aux)
	assert.Equal(t, []string{"High", "Low"}, prepared.Aux.Columns)
	assert.Equal(t, []float32{0, 1}, prepared.Train.Inputs.Aux[4])
	assert.Len(t, prepared.Dev.Inputs.Aux, 5)
}

func TestPrepareErrors(t *testing.T) {
	raw := &RawSplits{}
	_, err := Prepare(raw, toyPrepareConfig(), []NamedSource{{"embeddings", toySource}}, nil)
	assert.Error(t, err)

	raw = toyRawSplits(t, false)
	_, err = Prepare(raw, toyPrepareConfig(), nil, nil)
	assert.Error(t, err)
}

func TestPrepareNilSource(t *testing.T) {
	raw := toyRawSplits(t, false)

	var err error
	assert.NotPanics(t, func() {
		_, err = Prepare(raw, toyPrepareConfig(), []NamedSource{
			{"embeddings_glove", toySource},
			{"embeddings_fasttext", (*go2vec.Embeddings)(nil)},
		}, nil)
	})
	require.Error(t, err)
	assert.Equal(t, ErrNoEmbeddings, errors.Cause(err))
	assert.Contains(t, err.Error(), "embeddings_fasttext")
}

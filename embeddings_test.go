// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"bufio"
	"strings"
	"testing"

	"github.com/danieldk/go2vec"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[string][]float32

func (s mapSource) Embedding(word string) ([]float32, bool) {
	e, ok := s[word]
	return e, ok
}

func (s mapSource) EmbeddingSize() int {
	for _, e := range s {
		return len(e)
	}
	return 0
}

func nonZeroRows(m *EmbeddingMatrix) int {
	n := 0
	for i := 0; i < m.Rows(); i++ {
		for _, v := range m.Matrix.RawRowView(i) {
			if v != 0 {
				n++
				break
			}
		}
	}
	return n
}

func TestBuildEmbeddingMatrixNilSource(t *testing.T) {
	vocab := NewVocabulary([]string{"hoax", "senate"})

	for name, source := range map[string]EmbeddingSource{
		"nil interface": nil,
		"nil pointer":   (*go2vec.Embeddings)(nil),
		"nil map":       mapSource(nil),
	} {
		t.Run(name, func(t *testing.T) {
			var err error
			assert.NotPanics(t, func() {
				_, err = BuildEmbeddingMatrix("embeddings", vocab, source, 10)
			})
			assert.Equal(t, ErrNoEmbeddings, errors.Cause(err))
		})
	}
}

func TestBuildEmbeddingMatrix(t *testing.T) {
	vocab := NewVocabulary([]string{"hoax", "senate", "news"})
	source := mapSource{
		"hoax": {1, 2},
		"news": {3, 4},
	}

	m, err := BuildEmbeddingMatrix("embeddings", vocab, source, 10)
	require.NoError(t, err)

	assert.Equal(t, 10, m.Rows(), "rows are at least the word cap")
	assert.Equal(t, 2, m.Dims())
	assert.Equal(t, []float64{0, 0}, m.Matrix.RawRowView(0))
	assert.Equal(t, []float64{1, 2}, m.Matrix.RawRowView(1))
	assert.Equal(t, []float64{0, 0}, m.Matrix.RawRowView(2))
	assert.Equal(t, []float64{3, 4}, m.Matrix.RawRowView(3))
	assert.Equal(t, []string{"senate"}, m.Missing)
	assert.Equal(t, 2, nonZeroRows(m))
}

func TestBuildEmbeddingMatrixLargeVocabulary(t *testing.T) {
	vocab := NewVocabulary([]string{"a", "b", "c", "d"})
	source := mapSource{"a": {1}, "b": {1}, "c": {1}, "d": {1}}

	m, err := BuildEmbeddingMatrix("embeddings", vocab, source, 2)
	require.NoError(t, err)

	// Rows are the vocabulary size, the last word has no row.
	assert.Equal(t, 4, m.Rows())
	assert.Equal(t, 3, nonZeroRows(m))
	assert.Equal(t, []float64{0}, m.Matrix.RawRowView(0))
}

func TestBuildEmbeddingMatrixDimensionMismatch(t *testing.T) {
	vocab := NewVocabulary([]string{"a", "b"})
	source := mapSource{"a": {1, 2}}
	source["b"] = []float32{1}

	_, err := BuildEmbeddingMatrix("embeddings", vocab, source, 5)
	assert.Error(t, err)
}

func TestReadTextEmbeddings(t *testing.T) {
	text := "2 3\nhoax 0.5 1 -1\nsenate 1 2 3\n"

	embeds, err := ReadTextEmbeddings(bufio.NewReader(strings.NewReader(text)))
	require.NoError(t, err)
	assert.Equal(t, 3, embeds.EmbeddingSize())

	e, ok := embeds.Embedding("senate")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, e)

	// GloVe files have no header and may lack a final newline.
	embeds, err = ReadTextEmbeddings(bufio.NewReader(strings.NewReader("news 4 5")))
	require.NoError(t, err)
	e, ok = embeds.Embedding("news")
	require.True(t, ok)
	assert.Equal(t, []float32{4, 5}, e)

	_, err = ReadTextEmbeddings(bufio.NewReader(strings.NewReader("news four five\n")))
	assert.Error(t, err)
}

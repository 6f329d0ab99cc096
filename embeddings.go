// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"bufio"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/danieldk/go2vec"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// An EmbeddingSource provides pretrained word vectors. It is
// implemented by *go2vec.Embeddings.
type EmbeddingSource interface {
	Embedding(word string) ([]float32, bool)
	EmbeddingSize() int
}

var _ EmbeddingSource = new(go2vec.Embeddings)

// ErrNoEmbeddings is returned when an embedding source is nil.
var ErrNoEmbeddings = errors.New("no embedding source")

// isNilSource is also true for a nil pointer wrapped in the interface,
// such as a (*go2vec.Embeddings)(nil).
func isNilSource(source EmbeddingSource) bool {
	if source == nil {
		return true
	}

	v := reflect.ValueOf(source)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map:
		return v.IsNil()
	}
	return false
}

// EmbeddingMatrix is a dense table with the embedding of the word with
// index i in row i.
type EmbeddingMatrix struct {
	Name   string
	Matrix *mat.Dense

	// Words that were not found in the embedding source. Their rows
	// are all-zero.
	Missing []string
}

// Rows returns the number of rows of the matrix.
func (m *EmbeddingMatrix) Rows() int {
	r, _ := m.Matrix.Dims()
	return r
}

// Dims returns the embedding dimensionality.
func (m *EmbeddingMatrix) Dims() int {
	_, c := m.Matrix.Dims()
	return c
}

// BuildEmbeddingMatrix creates a matrix of max(maxWords, vocab size)
// rows. Row 0 is padding and always zero. A word whose index does not
// fit in the matrix is skipped; with a tokenizer word cap of maxWords
// such a word never occurs in a sequence.
func BuildEmbeddingMatrix(name string, vocab *Vocabulary, source EmbeddingSource, maxWords int) (*EmbeddingMatrix, error) {
	if isNilSource(source) {
		return nil, errors.Wrap(ErrNoEmbeddings, name)
	}

	dims := source.EmbeddingSize()
	if dims < 1 {
		return nil, errors.Errorf("embeddings %s have invalid size %d", name, dims)
	}

	rows := maxWords
	if vocab.Size() > rows {
		rows = vocab.Size()
	}
	if rows < 1 {
		return nil, errors.New("cannot build an embedding matrix without rows")
	}

	matrix := mat.NewDense(rows, dims, nil)
	var missing []string

	for idx, word := range vocab.Words() {
		wordIdx := idx + 1
		if wordIdx >= rows {
			continue
		}

		embedding, ok := source.Embedding(word)
		if !ok || len(embedding) == 0 {
			missing = append(missing, word)
			continue
		}

		if len(embedding) != dims {
			return nil, errors.Errorf("embedding of %q has size %d, expected %d", word, len(embedding), dims)
		}

		row := matrix.RawRowView(wordIdx)
		for i, v := range embedding {
			row[i] = float64(v)
		}
	}

	return &EmbeddingMatrix{
		Name:    name,
		Matrix:  matrix,
		Missing: missing,
	}, nil
}

// ReadTextEmbeddings reads embeddings in the GloVe / fastText text
// format: one word per line followed by its vector components. A
// leading fastText header line (word count and dimensionality) is
// skipped.
func ReadTextEmbeddings(r *bufio.Reader) (*go2vec.Embeddings, error) {
	var embeds *go2vec.Embeddings

	lineNo := 0
	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}

		lineNo++
		fields := strings.Fields(line)

		if lineNo == 1 && isTextHeader(fields) {
			fields = nil
		}

		if len(fields) > 1 {
			vec := make([]float32, len(fields)-1)
			for i, f := range fields[1:] {
				v, perr := strconv.ParseFloat(f, 32)
				if perr != nil {
					return nil, errors.Wrapf(perr, "line %d", lineNo)
				}
				vec[i] = float32(v)
			}

			if embeds == nil {
				embeds = go2vec.NewEmbeddings(len(vec))
			}

			if perr := embeds.Put(fields[0], vec); perr != nil {
				return nil, errors.Wrapf(perr, "line %d", lineNo)
			}
		}

		if err == io.EOF {
			break
		}
	}

	if embeds == nil {
		return nil, errors.New("no embeddings found")
	}

	return embeds, nil
}

func isTextHeader(fields []string) bool {
	if len(fields) != 2 {
		return false
	}
	for _, f := range fields {
		if _, err := strconv.Atoi(f); err != nil {
			return false
		}
	}
	return true
}

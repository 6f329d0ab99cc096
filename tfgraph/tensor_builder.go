// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tfgraph

import "github.com/danieldk/tensorflow"

// A TensorBuilder constructs a batchSize x width tensor and populates it
// row by row.
type TensorBuilder struct {
	batchSize int
	width     int
	row       int
	tensor    *tensorflow.Float32Tensor
}

func NewTensorBuilder(batchSize, width int) *TensorBuilder {
	return &TensorBuilder{
		batchSize: batchSize,
		width:     width,
	}
}

// Add a row to the tensor. Rows that are longer than the tensor width
// are truncated, shorter rows are padded with zeros. After batchSize
// rows, writing starts again at the first row, so that the builder can
// be reused without reallocation. Rows of a previous batch that are not
// overwritten keep their values.
func (b *TensorBuilder) Add(row []float32) {
	if b.tensor == nil {
		b.tensor = tensorflow.NewFloat32Tensor([]int{b.batchSize, b.width})
	}

	padded := make([]float32, b.width)
	copy(padded, row)
	b.tensor.Assign([]int{b.row}, padded)

	b.row++
	if b.row == b.batchSize {
		b.row = 0
	}
}

// Tensor returns the tensor that is being built.
func (b *TensorBuilder) Tensor() *tensorflow.Float32Tensor {
	return b.tensor
}

// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package h5batch exports prepared datasets and embedding matrices to
// HDF5, so that they can be consumed by external training scripts.
package h5batch

import (
	"fmt"
	"reflect"

	"github.com/danieldk/proppynn"
	"github.com/pkg/errors"
	hdf5 "gonum.org/v1/hdf5"
)

// Writer writes batches to the groups batch0 ... batchN of an HDF5
// file. Every group has the datasets inputs (int32), labels (float32)
// and, when auxiliary features are used, aux (float32).
type Writer struct {
	root  *hdf5.Group
	batch int
}

func NewWriter(f *hdf5.File) (*Writer, error) {
	root, err := f.OpenGroup("/")
	if err != nil {
		return nil, errors.Wrap(err, "cannot open root group")
	}

	return &Writer{root: root}, nil
}

// Batches returns the number of batches that were written.
func (w *Writer) Batches() int {
	return w.batch
}

func (w *Writer) Close() error {
	return w.root.Close()
}

// WriteDataset writes all batches of a dataset, in dataset order.
func (w *Writer) WriteDataset(ds *proppynn.BatchedDataset) error {
	for _, batch := range ds.Batches(nil) {
		if err := w.WriteBatch(batch); err != nil {
			return err
		}
	}

	return nil
}

// WriteBatch writes a batch to the next batch group.
func (w *Writer) WriteBatch(batch proppynn.Batch) error {
	if batch.Len() == 0 {
		return errors.New("cannot write an empty batch")
	}

	group, err := w.root.CreateGroup(fmt.Sprintf("batch%d", w.batch))
	if err != nil {
		return err
	}
	defer group.Close()

	n := uint(batch.Len())

	inputs, length := flattenInt32(batch.Inputs.Sequences)
	if err := writeData(group, "inputs", []uint{n, uint(length)}, inputs); err != nil {
		return errors.Wrapf(err, "batch %d", w.batch)
	}

	labels := make([]float32, 0, batch.Len()*proppynn.NumClasses)
	for _, l := range batch.Labels {
		labels = append(labels, l[:]...)
	}
	if err := writeData(group, "labels", []uint{n, proppynn.NumClasses}, labels); err != nil {
		return errors.Wrapf(err, "batch %d", w.batch)
	}

	if batch.Inputs.Aux != nil {
		aux, width := flattenFloat32(batch.Inputs.Aux)
		if err := writeData(group, "aux", []uint{n, uint(width)}, aux); err != nil {
			return errors.Wrapf(err, "batch %d", w.batch)
		}
	}

	w.batch++

	return nil
}

// WriteMatrix writes an embedding matrix as a float32 dataset with the
// name of the matrix.
func (w *Writer) WriteMatrix(m *proppynn.EmbeddingMatrix) error {
	rows, dims := m.Rows(), m.Dims()

	data := make([]float32, 0, rows*dims)
	for i := 0; i < rows; i++ {
		for _, v := range m.Matrix.RawRowView(i) {
			data = append(data, float32(v))
		}
	}

	return errors.Wrapf(writeData(w.root, m.Name, []uint{uint(rows), uint(dims)}, data),
		"cannot write matrix %s", m.Name)
}

func flattenInt32(rows [][]int32) ([]int32, int) {
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}

	flat := make([]int32, len(rows)*width)
	for idx, row := range rows {
		copy(flat[idx*width:], row)
	}

	return flat, width
}

func flattenFloat32(rows [][]float32) ([]float32, int) {
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}

	flat := make([]float32, len(rows)*width)
	for idx, row := range rows {
		copy(flat[idx*width:], row)
	}

	return flat, width
}

func writeData(g *hdf5.Group, name string, dims []uint, data interface{}) error {
	value := reflect.ValueOf(data)
	if value.Len() == 0 {
		return errors.Errorf("dataset %s is empty", name)
	}

	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return err
	}
	defer space.Close()

	first := value.Index(0)

	dtype, err := hdf5.NewDatatypeFromValue(first.Interface())
	if err != nil {
		return err
	}

	dset, err := g.CreateDataset(name, dtype, space)
	if err != nil {
		return err
	}
	defer dset.Close()

	return dset.Write(first.Addr().Interface())
}

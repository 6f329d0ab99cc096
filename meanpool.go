// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"io"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MeanPoolPipeline builds mean-pool models. With Dual, the pools of the
// first two embedding matrices are concatenated. With Aux, the
// auxiliary features are appended to the pooled embeddings.
type MeanPoolPipeline struct {
	Dual bool
	Aux  bool
}

func (p MeanPoolPipeline) Prepare(data *Prepared, batchSize int) (*Datasets, error) {
	if p.Aux && data.Aux == nil {
		return nil, errors.New("pipeline needs auxiliary features, but none were prepared")
	}

	return NewDatasets(data, batchSize, p.Aux)
}

func (p MeanPoolPipeline) Build(config ModelConfig, data *Prepared) (Model, error) {
	nMatrices := 1
	if p.Dual {
		nMatrices = 2
	}

	if len(data.Matrices) < nMatrices {
		return nil, errors.Errorf("pipeline needs %d embedding matrices, %d were prepared", nMatrices, len(data.Matrices))
	}

	auxWidth := 0
	if p.Aux {
		if data.Aux == nil {
			return nil, errors.New("pipeline needs auxiliary features, but none were prepared")
		}
		auxWidth = data.Aux.Width()
	}

	var embeddings []*mat.Dense
	for _, m := range data.Matrices[:nMatrices] {
		embeddings = append(embeddings, m.Matrix)
	}

	return NewMeanPoolModel(config, embeddings, auxWidth)
}

// MeanPoolModel averages the (frozen) embeddings of the tokens of an
// example, applies a ReLU dense layer with dropout and a softmax output
// layer.
type MeanPoolModel struct {
	embeddings []*mat.Dense
	auxWidth   int
	rate       float64
	l2         float64
	optimizer  Optimizer
	dropout    *rand.Rand

	w1, b1, w2, b2 *mat.Dense
}

// NewMeanPoolModel creates a model with Glorot-uniform initialized
// weights.
func NewMeanPoolModel(config ModelConfig, embeddings []*mat.Dense, auxWidth int) (*MeanPoolModel, error) {
	if config.DenseUnits < 1 {
		return nil, errors.Errorf("invalid number of dense units: %d", config.DenseUnits)
	}

	if config.Rate < 0 || config.Rate >= 1 {
		return nil, errors.Errorf("invalid dropout rate: %f", config.Rate)
	}

	optimizer, err := NewOptimizer(config.Optimizer)
	if err != nil {
		return nil, err
	}

	inputSize := auxWidth
	for _, e := range embeddings {
		_, dims := e.Dims()
		inputSize += dims
	}

	if inputSize == 0 {
		return nil, errors.New("model has no inputs")
	}

	rng := rand.New(rand.NewSource(config.Seed))

	return &MeanPoolModel{
		embeddings: embeddings,
		auxWidth:   auxWidth,
		rate:       config.Rate,
		l2:         config.L2Rate,
		optimizer:  optimizer,
		dropout:    rand.New(rand.NewSource(config.Seed + 1)),
		w1:         glorotUniform(rng, inputSize, config.DenseUnits),
		b1:         mat.NewDense(1, config.DenseUnits, nil),
		w2:         glorotUniform(rng, config.DenseUnits, NumClasses),
		b2:         mat.NewDense(1, NumClasses, nil),
	}, nil
}

func glorotUniform(rng *rand.Rand, fanIn, fanOut int) *mat.Dense {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	data := make([]float64, fanIn*fanOut)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return mat.NewDense(fanIn, fanOut, data)
}

func (m *MeanPoolModel) params() []*mat.Dense {
	return []*mat.Dense{m.w1, m.b1, m.w2, m.b2}
}

// features computes the model input: mean-pooled embeddings of the
// non-padding tokens, followed by the auxiliary features.
func (m *MeanPoolModel) features(inputs Inputs) (*mat.Dense, error) {
	if m.auxWidth > 0 && len(inputs.Aux) != inputs.Len() {
		return nil, errors.Errorf("model needs %d auxiliary features per example", m.auxWidth)
	}

	inputSize, _ := m.w1.Dims()
	x := mat.NewDense(inputs.Len(), inputSize, nil)

	for idx, seq := range inputs.Sequences {
		row := x.RawRowView(idx)
		offset := 0

		for _, e := range m.embeddings {
			rows, dims := e.Dims()
			pool := row[offset : offset+dims]

			n := 0
			for _, token := range seq {
				if token <= 0 || int(token) >= rows {
					continue
				}
				for i, v := range e.RawRowView(int(token)) {
					pool[i] += v
				}
				n++
			}

			if n > 0 {
				for i := range pool {
					pool[i] /= float64(n)
				}
			}

			offset += dims
		}

		if m.auxWidth > 0 {
			if len(inputs.Aux[idx]) != m.auxWidth {
				return nil, errors.Errorf("example %d has %d auxiliary features, expected %d", idx, len(inputs.Aux[idx]), m.auxWidth)
			}
			for i, v := range inputs.Aux[idx] {
				row[offset+i] = float64(v)
			}
		}
	}

	return x, nil
}

type forwardPass struct {
	x     *mat.Dense
	z1    *mat.Dense
	h     *mat.Dense
	mask  *mat.Dense
	probs *mat.Dense
}

func (m *MeanPoolModel) forward(inputs Inputs, train bool) (*forwardPass, error) {
	x, err := m.features(inputs)
	if err != nil {
		return nil, err
	}

	var z1 mat.Dense
	z1.Mul(x, m.w1)
	addBias(&z1, m.b1)

	var h mat.Dense
	h.Apply(func(_, _ int, v float64) float64 {
		return math.Max(0, v)
	}, &z1)

	var mask *mat.Dense
	if train && m.rate > 0 {
		rows, cols := h.Dims()
		keep := 1 - m.rate
		mask = mat.NewDense(rows, cols, nil)
		mask.Apply(func(_, _ int, _ float64) float64 {
			if m.dropout.Float64() < keep {
				return 1 / keep
			}
			return 0
		}, mask)
		h.MulElem(&h, mask)
	}

	var z2 mat.Dense
	z2.Mul(&h, m.w2)
	addBias(&z2, m.b2)

	rows, _ := z2.Dims()
	for i := 0; i < rows; i++ {
		softmax(z2.RawRowView(i))
	}

	return &forwardPass{x: x, z1: &z1, h: &h, mask: mask, probs: &z2}, nil
}

func addBias(m *mat.Dense, bias *mat.Dense) {
	b := bias.RawRowView(0)
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		row := m.RawRowView(i)
		for j := range row {
			row[j] += b[j]
		}
	}
}

func softmax(logits []float64) {
	max := math.Inf(-1)
	for _, v := range logits {
		max = math.Max(max, v)
	}

	var sum float64
	for i, v := range logits {
		logits[i] = math.Exp(v - max)
		sum += logits[i]
	}

	for i := range logits {
		logits[i] /= sum
	}
}

const probEpsilon = 1e-7

func (m *MeanPoolModel) crossEntropy(probs *mat.Dense, labels []OneHot, weights ClassWeights) float64 {
	var loss float64
	for idx, label := range labels {
		class := label.Class()
		p := math.Min(math.Max(probs.At(idx, class), probEpsilon), 1-probEpsilon)
		loss -= weights[class] * math.Log(p)
	}
	return loss/float64(len(labels)) + m.l2Penalty()
}

func (m *MeanPoolModel) l2Penalty() float64 {
	if m.l2 == 0 {
		return 0
	}
	return m.l2 * (sumSquares(m.w1) + sumSquares(m.w2))
}

func sumSquares(d *mat.Dense) float64 {
	var sum float64
	for _, v := range d.RawMatrix().Data {
		sum += v * v
	}
	return sum
}

func toProbabilities(probs *mat.Dense) []Probabilities {
	rows, _ := probs.Dims()
	result := make([]Probabilities, rows)
	for i := 0; i < rows; i++ {
		copy(result[i][:], probs.RawRowView(i))
	}
	return result
}

func (m *MeanPoolModel) TrainBatch(batch Batch, weights ClassWeights, learningRate float64) (StepResult, error) {
	n := batch.Len()
	if n == 0 {
		return StepResult{}, errors.New("empty batch")
	}

	pass, err := m.forward(batch.Inputs, true)
	if err != nil {
		return StepResult{}, err
	}

	result := StepResult{
		Loss:          m.crossEntropy(pass.probs, batch.Labels, weights),
		Probabilities: toProbabilities(pass.probs),
	}

	// Gradient of the weighted softmax cross-entropy w.r.t. the logits.
	dz2 := mat.NewDense(n, NumClasses, nil)
	for idx, label := range batch.Labels {
		class := label.Class()
		row := dz2.RawRowView(idx)
		for c := 0; c < NumClasses; c++ {
			row[c] = pass.probs.At(idx, c) * weights[class] / float64(n)
		}
		row[class] -= weights[class] / float64(n)
	}

	var dw2 mat.Dense
	dw2.Mul(pass.h.T(), dz2)
	m.addL2Grad(&dw2, m.w2)
	db2 := sumRows(dz2)

	var dz1 mat.Dense
	dz1.Mul(dz2, m.w2.T())
	if pass.mask != nil {
		dz1.MulElem(&dz1, pass.mask)
	}
	dz1.Apply(func(i, j int, v float64) float64 {
		if pass.z1.At(i, j) <= 0 {
			return 0
		}
		return v
	}, &dz1)

	var dw1 mat.Dense
	dw1.Mul(pass.x.T(), &dz1)
	m.addL2Grad(&dw1, m.w1)
	db1 := sumRows(&dz1)

	for slot, update := range []struct{ param, grad *mat.Dense }{
		{m.w1, &dw1},
		{m.b1, db1},
		{m.w2, &dw2},
		{m.b2, db2},
	} {
		m.optimizer.Update(slot, update.param.RawMatrix().Data, update.grad.RawMatrix().Data, learningRate)
	}

	return result, nil
}

func (m *MeanPoolModel) addL2Grad(grad, param *mat.Dense) {
	if m.l2 == 0 {
		return
	}

	var reg mat.Dense
	reg.Scale(2*m.l2, param)
	grad.Add(grad, &reg)
}

func sumRows(d *mat.Dense) *mat.Dense {
	rows, cols := d.Dims()
	sum := mat.NewDense(1, cols, nil)
	s := sum.RawRowView(0)
	for i := 0; i < rows; i++ {
		for j, v := range d.RawRowView(i) {
			s[j] += v
		}
	}
	return sum
}

func (m *MeanPoolModel) Loss(inputs Inputs, labels []OneHot) (float64, error) {
	if inputs.Len() != len(labels) || len(labels) == 0 {
		return 0, errors.Errorf("cannot compute loss of %d inputs with %d labels", inputs.Len(), len(labels))
	}

	pass, err := m.forward(inputs, false)
	if err != nil {
		return 0, err
	}

	return m.crossEntropy(pass.probs, labels, UniformClassWeights), nil
}

func (m *MeanPoolModel) Predict(inputs Inputs) ([]Probabilities, error) {
	if inputs.Len() == 0 {
		return nil, nil
	}

	pass, err := m.forward(inputs, false)
	if err != nil {
		return nil, err
	}

	return toProbabilities(pass.probs), nil
}

func (m *MeanPoolModel) WriteWeights(w io.Writer) error {
	for _, p := range m.params() {
		if _, err := p.MarshalBinaryTo(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *MeanPoolModel) ReadWeights(r io.Reader) error {
	params := m.params()
	read := make([]*mat.Dense, len(params))

	for idx, p := range params {
		var d mat.Dense
		if _, err := d.UnmarshalBinaryFrom(r); err != nil {
			return errors.Wrapf(err, "cannot read parameter %d", idx)
		}

		pr, pc := p.Dims()
		dr, dc := d.Dims()
		if pr != dr || pc != dc {
			return errors.Errorf("parameter %d has shape %dx%d, expected %dx%d", idx, dr, dc, pr, pc)
		}

		read[idx] = &d
	}

	for idx, p := range params {
		p.Copy(read[idx])
	}

	return nil
}

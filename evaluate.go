// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"fmt"
	"math"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Decide returns class 0 if p0 > p1 and class 1 otherwise. Ties go to
// class 1.
func Decide(p0, p1 float64) int {
	if p0 > p1 {
		return 0
	}
	return 1
}

// ClassMetrics are the metrics of one class, or an average over
// classes.
type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report is the result of an evaluation. Precision, Recall and F1 are
// the binary metrics of class 1.
type Report struct {
	Classes     [NumClasses]ClassMetrics
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics

	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	MacroF1   float64

	// ROCAUC is computed over the predicted classes, ScoreAUC over the
	// predicted probability of class 1. Both are NaN when only one
	// class is present.
	ROCAUC   float64
	ScoreAUC float64

	Truth       []int
	Predictions []int
}

// Evaluate predicts the classes of the inputs and compares them to the
// one-hot labels.
func Evaluate(predictor Predictor, inputs Inputs, labels []OneHot) (*Report, error) {
	if inputs.Len() != len(labels) {
		return nil, errors.Errorf("%d inputs, but %d labels", inputs.Len(), len(labels))
	}

	probs, err := predictor.Predict(inputs)
	if err != nil {
		return nil, errors.Wrap(err, "cannot predict")
	}

	if len(probs) != len(labels) {
		return nil, errors.Errorf("%d predictions for %d examples", len(probs), len(labels))
	}

	truth := make([]int, len(labels))
	preds := make([]int, len(labels))
	scores := make([]float64, len(labels))
	for idx, p := range probs {
		truth[idx] = labels[idx].Class()
		preds[idx] = Decide(p[0], p[1])
		scores[idx] = p[1]
	}

	return NewReport(truth, preds, scores), nil
}

// NewReport computes a report from true classes, predicted classes and
// class 1 scores.
func NewReport(truth, preds []int, scores []float64) *Report {
	var tp, fp, fn [NumClasses]int
	correct := 0
	for idx, t := range truth {
		p := preds[idx]
		if t == p {
			tp[t]++
			correct++
		} else {
			fp[p]++
			fn[t]++
		}
	}

	r := &Report{
		Truth:       truth,
		Predictions: preds,
	}

	total := len(truth)
	for c := 0; c < NumClasses; c++ {
		m := ClassMetrics{
			Precision: ratio(tp[c], tp[c]+fp[c]),
			Recall:    ratio(tp[c], tp[c]+fn[c]),
			Support:   tp[c] + fn[c],
		}
		m.F1 = f1(m.Precision, m.Recall)
		r.Classes[c] = m

		r.MacroAvg.Precision += m.Precision / NumClasses
		r.MacroAvg.Recall += m.Recall / NumClasses
		r.MacroAvg.F1 += m.F1 / NumClasses

		if total > 0 {
			w := float64(m.Support) / float64(total)
			r.WeightedAvg.Precision += w * m.Precision
			r.WeightedAvg.Recall += w * m.Recall
			r.WeightedAvg.F1 += w * m.F1
		}
	}
	r.MacroAvg.Support = total
	r.WeightedAvg.Support = total

	r.Accuracy = ratio(correct, total)
	r.Precision = r.Classes[1].Precision
	r.Recall = r.Classes[1].Recall
	r.F1 = r.Classes[1].F1
	r.MacroF1 = r.MacroAvg.F1

	predScores := make([]float64, len(preds))
	for idx, p := range preds {
		predScores[idx] = float64(p)
	}
	r.ROCAUC = ROCAUC(truth, predScores)
	r.ScoreAUC = ROCAUC(truth, scores)

	return r
}

func ratio(num, denom int) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// ROCAUC computes the area under the ROC curve of class 1 scores. Tied
// scores share a threshold, so they contribute half a pair. It returns
// NaN when only one class is present.
func ROCAUC(truth []int, scores []float64) float64 {
	y := make([]float64, len(scores))
	copy(y, scores)
	classes := make([]bool, len(truth))

	var nPos, nNeg int
	for idx, t := range truth {
		classes[idx] = t == 1
		if classes[idx] {
			nPos++
		} else {
			nNeg++
		}
	}

	if nPos == 0 || nNeg == 0 {
		return math.NaN()
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)

	return integrate.Trapezoidal(fpr, tpr)
}

// String renders the report as a classification report followed by the
// summary metrics.
func (r *Report) String() string {
	var sb strings.Builder

	table := tablewriter.NewWriter(&sb)
	table.SetHeader([]string{"", "precision", "recall", "f1-score", "support"})
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	row := func(name string, m ClassMetrics) []string {
		return []string{
			name,
			fmt.Sprintf("%.2f", m.Precision),
			fmt.Sprintf("%.2f", m.Recall),
			fmt.Sprintf("%.2f", m.F1),
			fmt.Sprintf("%d", m.Support),
		}
	}

	for c, m := range r.Classes {
		table.Append(row(fmt.Sprintf("%d", c), m))
	}
	table.Append([]string{"accuracy", "", "", fmt.Sprintf("%.2f", r.Accuracy), fmt.Sprintf("%d", r.MacroAvg.Support)})
	table.Append(row("macro avg", r.MacroAvg))
	table.Append(row("weighted avg", r.WeightedAvg))
	table.Render()

	fmt.Fprintf(&sb, "Roc auc score: %.4f\n", r.ROCAUC)
	fmt.Fprintf(&sb, "Accuracy: %.4f\n", r.Accuracy)
	fmt.Fprintf(&sb, "Precision-Propaganda: %.4f\n", r.Precision)
	fmt.Fprintf(&sb, "Recall-Propaganda: %.4f\n", r.Recall)
	fmt.Fprintf(&sb, "F1-Propaganda: %.4f\n", r.F1)
	fmt.Fprintf(&sb, "Macro F1-Propaganda: %.4f\n", r.MacroF1)

	return sb.String()
}

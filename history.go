// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"io"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart"
)

// EpochLogs are the metrics of one epoch. Validation metrics are only
// set when HasValidation is true.
type EpochLogs struct {
	Epoch         int
	Loss          float64
	Accuracy      float64
	LearningRate  float64
	HasValidation bool
	ValLoss       float64
	ValAccuracy   float64
}

// Get returns a metric by its name: loss, accuracy, lr, val_loss or
// val_accuracy.
func (l EpochLogs) Get(metric string) (float64, bool) {
	switch metric {
	case "loss":
		return l.Loss, true
	case "accuracy":
		return l.Accuracy, true
	case "lr":
		return l.LearningRate, true
	case "val_loss":
		return l.ValLoss, l.HasValidation
	case "val_accuracy":
		return l.ValAccuracy, l.HasValidation
	default:
		return 0, false
	}
}

// History is the record of a training run.
type History struct {
	Epochs []EpochLogs
}

// Series returns the values of a metric for every epoch in which it was
// available.
func (h *History) Series(metric string) []float64 {
	var series []float64
	for _, logs := range h.Epochs {
		if v, ok := logs.Get(metric); ok {
			series = append(series, v)
		}
	}
	return series
}

// PlotHistory renders the loss curves of a training run as PNG.
func PlotHistory(h *History, w io.Writer) error {
	if len(h.Epochs) == 0 {
		return errors.New("cannot plot an empty history")
	}

	var series []chart.Series
	for i, metric := range []string{"loss", "val_loss"} {
		values := h.Series(metric)
		if len(values) == 0 {
			continue
		}

		epochs := make([]float64, len(values))
		for idx := range epochs {
			epochs[idx] = float64(idx + 1)
		}

		series = append(series, chart.ContinuousSeries{
			Name:    metric,
			XValues: epochs,
			YValues: values,
			Style: chart.Style{
				Show:        true,
				StrokeColor: chart.GetAlternateColor(i),
			},
		})
	}

	graph := chart.Chart{
		Title:      "Training history",
		TitleStyle: chart.StyleShow(),
		XAxis: chart.XAxis{
			Name:      "Epoch",
			NameStyle: chart.StyleShow(),
			Style:     chart.StyleShow(),
		},
		YAxis: chart.YAxis{
			Name:      "Loss",
			NameStyle: chart.StyleShow(),
			Style:     chart.StyleShow(),
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	return graph.Render(chart.PNG, w)
}

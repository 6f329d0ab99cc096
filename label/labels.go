// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package label

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// A Numberer creates a bijection between (string-based) labels and
// numbers. Numbers start at 1, so that 0 can be used for padding.
type Numberer struct {
	labelNumbers map[string]int
	labels       []string
}

func NewNumberer() Numberer {
	return Numberer{make(map[string]int), make([]string, 0)}
}

// Number returns the number of a label, adding the label when it was
// not seen before.
func (l *Numberer) Number(label string) int {
	idx, ok := l.labelNumbers[label]

	if !ok {
		idx = len(l.labelNumbers) + 1
		l.labelNumbers[label] = idx
		l.labels = append(l.labels, label)
	}

	return idx
}

// Lookup returns the number of a label without adding it.
func (l Numberer) Lookup(label string) (int, bool) {
	idx, ok := l.labelNumbers[label]
	return idx, ok
}

func (l Numberer) Label(number int) (string, bool) {
	if number < 1 || number > len(l.labels) {
		return "", false
	}

	return l.labels[number-1], true
}

// Labels returns the labels in number order.
func (l Numberer) Labels() []string {
	return l.labels
}

func (l Numberer) Size() int {
	return len(l.labels)
}

func (l *Numberer) Read(reader io.Reader) error {
	var labels []string
	bufReader := bufio.NewReader(reader)

	eof := false
	for !eof {
		line, err := bufReader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return err
			}

			eof = true
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		labels = append(labels, line)
	}

	numbers := make(map[string]int)
	for idx, label := range labels {
		if _, ok := numbers[label]; ok {
			return fmt.Errorf("duplicate label: %s", label)
		}
		numbers[label] = idx + 1
	}

	l.labels = labels
	l.labelNumbers = numbers

	return nil
}

func (l *Numberer) Write(writer io.Writer) error {
	for _, label := range l.labels {
		if _, err := fmt.Fprintln(writer, label); err != nil {
			return err
		}
	}

	return nil
}

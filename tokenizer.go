// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"io"
	"sort"
	"strings"

	"github.com/danieldk/proppynn/label"
)

const wordFilters = "!\"#$%&()*+,-./:;<=>?@[\\]^_`{|}~\t\n"

var filterReplacer = newFilterReplacer()

func newFilterReplacer() *strings.Replacer {
	var oldnew []string
	for _, c := range wordFilters {
		oldnew = append(oldnew, string(c), " ")
	}
	return strings.NewReplacer(oldnew...)
}

// SplitWords lowercases a text, replaces punctuation by spaces and
// splits it into words.
func SplitWords(text string) []string {
	return strings.Fields(filterReplacer.Replace(strings.ToLower(text)))
}

// A Vocabulary maps words to indices. Index 0 is never assigned, it is
// reserved for padding.
type Vocabulary struct {
	numberer label.Numberer
}

// FitVocabulary builds a vocabulary over the given texts. More frequent
// words get lower indices, words with the same frequency are ordered by
// first occurrence.
func FitVocabulary(texts ...[]string) *Vocabulary {
	counts := make(map[string]int)
	var order []string

	for _, split := range texts {
		for _, text := range split {
			for _, word := range SplitWords(text) {
				if _, ok := counts[word]; !ok {
					order = append(order, word)
				}
				counts[word]++
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	return NewVocabulary(order)
}

// NewVocabulary creates a vocabulary where the n-th word gets index n+1.
func NewVocabulary(words []string) *Vocabulary {
	numberer := label.NewNumberer()
	for _, word := range words {
		numberer.Number(word)
	}
	return &Vocabulary{numberer: numberer}
}

// ReadVocabulary reads a vocabulary with one word per line.
func ReadVocabulary(r io.Reader) (*Vocabulary, error) {
	numberer := label.NewNumberer()
	if err := numberer.Read(r); err != nil {
		return nil, err
	}
	return &Vocabulary{numberer: numberer}, nil
}

// Write writes the vocabulary with one word per line, in index order.
func (v *Vocabulary) Write(w io.Writer) error {
	return v.numberer.Write(w)
}

// Index returns the index of a word.
func (v *Vocabulary) Index(word string) (int, bool) {
	return v.numberer.Lookup(word)
}

// Word returns the word with the given index.
func (v *Vocabulary) Word(idx int) (string, bool) {
	return v.numberer.Label(idx)
}

// Size returns the number of words in the vocabulary.
func (v *Vocabulary) Size() int {
	return v.numberer.Size()
}

// Words returns the words in index order, starting at index 1.
func (v *Vocabulary) Words() []string {
	return v.numberer.Labels()
}

// Sequences converts texts to index sequences. Unknown words are
// skipped. If maxWords is positive, words with an index of maxWords or
// higher are skipped as well.
func (v *Vocabulary) Sequences(texts []string, maxWords int) [][]int32 {
	seqs := make([][]int32, len(texts))
	for idx, text := range texts {
		words := SplitWords(text)
		seq := make([]int32, 0, len(words))
		for _, word := range words {
			wordIdx, ok := v.numberer.Lookup(word)
			if !ok || (maxWords > 0 && wordIdx >= maxWords) {
				continue
			}
			seq = append(seq, int32(wordIdx))
		}
		seqs[idx] = seq
	}
	return seqs
}

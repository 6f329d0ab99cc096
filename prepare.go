// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PrepareConfig configures data preparation.
type PrepareConfig struct {
	LengthPolicy LengthPolicy

	// FixedLength is the sequence length of the fixed policy.
	FixedLength int

	// MaxWords caps the word indices used in sequences and is the
	// minimum number of rows of the embedding matrices.
	MaxWords int

	Padding Padding

	// UseAux merges the one-hot auxiliary labels into the inputs.
	UseAux      bool
	AuxFallback string
}

// NamedSource is an embedding source with the name of the matrix that
// is built from it.
type NamedSource struct {
	Name   string
	Source EmbeddingSource
}

// Tokenized holds the vocabulary and the index sequences of every
// split. Dev is nil when there is no dev split.
type Tokenized struct {
	Vocabulary *Vocabulary
	Train      [][]int32
	Test       [][]int32
	Dev        [][]int32
}

// Tokenize fits a vocabulary over the text of all splits and converts
// every split to index sequences.
func Tokenize(raw *RawSplits, maxWords int) *Tokenized {
	texts := [][]string{raw.Train.Texts, raw.Test.Texts}
	if raw.Dev != nil {
		texts = append(texts, raw.Dev.Texts)
	}

	vocab := FitVocabulary(texts...)

	tok := &Tokenized{
		Vocabulary: vocab,
		Train:      vocab.Sequences(raw.Train.Texts, maxWords),
		Test:       vocab.Sequences(raw.Test.Texts, maxWords),
	}

	if raw.Dev != nil {
		tok.Dev = vocab.Sequences(raw.Dev.Texts, maxWords)
	}

	return tok
}

// Padded holds sequences that all have the same length.
type Padded struct {
	Vocabulary *Vocabulary
	Length     int
	Train      [][]int32
	Test       [][]int32
	Dev        [][]int32
}

// Pad resolves the sequence length over the train split and pads every
// split to that length.
func Pad(tok *Tokenized, policy LengthPolicy, fixedLength int, padding Padding) (*Padded, error) {
	length, err := ResolveLength(policy, fixedLength, tok.Train)
	if err != nil {
		return nil, errors.Wrap(err, "cannot resolve sequence length")
	}

	padded := &Padded{
		Vocabulary: tok.Vocabulary,
		Length:     length,
	}

	if padded.Train, err = PadSequences(tok.Train, length, padding); err != nil {
		return nil, err
	}

	if padded.Test, err = PadSequences(tok.Test, length, padding); err != nil {
		return nil, err
	}

	if tok.Dev != nil {
		if padded.Dev, err = PadSequences(tok.Dev, length, padding); err != nil {
			return nil, err
		}
	}

	return padded, nil
}

// Embedded adds embedding matrices to padded sequences.
type Embedded struct {
	*Padded
	Matrices []*EmbeddingMatrix
}

// Embed builds an embedding matrix for every source.
func Embed(padded *Padded, sources []NamedSource, maxWords int) (*Embedded, error) {
	embedded := &Embedded{Padded: padded}

	for _, source := range sources {
		matrix, err := BuildEmbeddingMatrix(source.Name, padded.Vocabulary, source.Source, maxWords)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot build %s embedding matrix", source.Name)
		}
		embedded.Matrices = append(embedded.Matrices, matrix)
	}

	return embedded, nil
}

// SplitData holds the final inputs and one-hot labels of a split.
type SplitData struct {
	Inputs Inputs
	Labels []OneHot
}

// Prepared is the result of data preparation. Dev and Aux are nil when
// absent.
type Prepared struct {
	Vocabulary *Vocabulary
	Length     int
	Matrices   []*EmbeddingMatrix
	Aux        *AuxFeatures

	Train SplitData
	Test  SplitData
	Dev   *SplitData
}

// Finish merges the optional auxiliary features into the inputs and
// attaches the labels.
func Finish(raw *RawSplits, embedded *Embedded, aux *AuxFeatures) *Prepared {
	prepared := &Prepared{
		Vocabulary: embedded.Vocabulary,
		Length:     embedded.Length,
		Matrices:   embedded.Matrices,
		Aux:        aux,
		Train: SplitData{
			Inputs: Inputs{Sequences: embedded.Train},
			Labels: raw.Train.OneHot(),
		},
		Test: SplitData{
			Inputs: Inputs{Sequences: embedded.Test},
			Labels: raw.Test.OneHot(),
		},
	}

	if raw.Dev != nil {
		prepared.Dev = &SplitData{
			Inputs: Inputs{Sequences: embedded.Dev},
			Labels: raw.Dev.OneHot(),
		}
	}

	if aux != nil {
		prepared.Train.Inputs.Aux = aux.Train
		prepared.Test.Inputs.Aux = aux.Test
		if prepared.Dev != nil {
			prepared.Dev.Inputs.Aux = aux.Dev
		}
	}

	return prepared
}

// Prepare runs all preparation stages: tokenization, padding, embedding
// matrix construction and, when configured, auxiliary feature encoding.
func Prepare(raw *RawSplits, config PrepareConfig, sources []NamedSource, logger *zap.Logger) (*Prepared, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if raw.Train.Len() == 0 {
		return nil, errors.Wrap(ErrEmptySplit, "train")
	}

	if len(sources) == 0 {
		return nil, errors.New("no embedding sources")
	}
	for _, source := range sources {
		if isNilSource(source.Source) {
			return nil, errors.Wrap(ErrNoEmbeddings, source.Name)
		}
	}

	tok := Tokenize(raw, config.MaxWords)
	logger.Info("fitted vocabulary", zap.Int("words", tok.Vocabulary.Size()))

	padded, err := Pad(tok, config.LengthPolicy, config.FixedLength, config.Padding)
	if err != nil {
		return nil, err
	}
	logger.Info("resolved sequence length",
		zap.Stringer("policy", config.LengthPolicy),
		zap.Int("length", padded.Length),
		zap.Stringer("padding", config.Padding.Padding),
		zap.Stringer("truncating", config.Padding.Truncating))

	embedded, err := Embed(padded, sources, config.MaxWords)
	if err != nil {
		return nil, err
	}
	for _, m := range embedded.Matrices {
		logger.Info("built embedding matrix",
			zap.String("name", m.Name),
			zap.Int("rows", m.Rows()),
			zap.Int("dims", m.Dims()),
			zap.Int("missing", len(m.Missing)))
	}

	var aux *AuxFeatures
	if config.UseAux {
		fallback := config.AuxFallback
		if fallback == "" {
			fallback = DefaultAuxFallback
		}

		if aux, err = EncodeAux(raw, fallback); err != nil {
			return nil, err
		}
		logger.Info("encoded auxiliary labels", zap.Strings("columns", aux.Columns))
	}

	return Finish(raw, embedded, aux), nil
}

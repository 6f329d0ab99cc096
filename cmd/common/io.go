// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"bufio"
	"io"
	"os"

	"github.com/danieldk/go2vec"
	"github.com/danieldk/proppynn"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/cheggaaa/pb.v1"
)

func CreateFileProgress(f *os.File) (*pb.ProgressBar, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	bar := pb.New64(fi.Size())
	bar.SetUnits(pb.U_BYTES)
	bar.Output = os.Stderr
	return bar, nil
}

func ExitIfError(prefix string, err error) {
	if err != nil {
		Logger.Fatal(prefix+err.Error(), zap.Error(err))
	}
}

// ProcessFile opens a file and calls fun with a reader that reports
// reading progress.
func ProcessFile(filename string, fun func(r io.Reader) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	bar, err := CreateFileProgress(f)
	if err != nil {
		return err
	}
	bar.Start()
	defer bar.Finish()

	return fun(bar.NewProxyReader(f))
}

func readSplit(filename, auxFilename string) (proppynn.RawSplit, error) {
	var split proppynn.RawSplit
	err := ProcessFile(filename, func(r io.Reader) (err error) {
		split, err = proppynn.ReadSplit(r)
		return
	})
	if err != nil {
		return split, errors.Wrapf(err, "cannot read %s", filename)
	}

	if auxFilename != "" {
		err = ProcessFile(auxFilename, func(r io.Reader) (err error) {
			split.Aux, err = proppynn.ReadAuxLabels(r)
			return
		})
		if err != nil {
			return split, errors.Wrapf(err, "cannot read %s", auxFilename)
		}
	}

	return split, nil
}

// MustReadSplits reads the splits of a preset. The dev split is only
// read when it is configured.
func MustReadSplits(data Data) *proppynn.RawSplits {
	var (
		raw proppynn.RawSplits
		err error
	)

	raw.Train, err = readSplit(data.Train, data.AuxTrain)
	ExitIfError("Cannot read train split: ", err)

	raw.Test, err = readSplit(data.Test, data.AuxTest)
	ExitIfError("Cannot read test split: ", err)

	if data.Dev != "" {
		dev, err := readSplit(data.Dev, data.AuxDev)
		ExitIfError("Cannot read dev split: ", err)
		raw.Dev = &dev
	}

	fields := []zap.Field{
		zap.String("train", humanize.Comma(int64(raw.Train.Len()))),
		zap.String("test", humanize.Comma(int64(raw.Test.Len()))),
	}
	if raw.Dev != nil {
		fields = append(fields, zap.String("dev", humanize.Comma(int64(raw.Dev.Len()))))
	}
	Logger.Info("read splits", fields...)

	return &raw
}

// MustReadEmbeddings reads embeddings in the word2vec binary or the
// text format.
func MustReadEmbeddings(config Embedding) *go2vec.Embeddings {
	if config.Filename == "" {
		ExitIfError("Cannot read vectors: ", errors.New("no embedding filename configured"))
	}

	Logger.Info("reading embeddings",
		zap.String("filename", config.Filename),
		zap.String("format", config.Format),
		zap.Bool("normalize", config.Normalize))

	var embeds *go2vec.Embeddings
	err := ProcessFile(config.Filename, func(r io.Reader) (err error) {
		switch config.Format {
		case "", "word2vec":
			embeds, err = go2vec.ReadWord2VecBinary(bufio.NewReader(r), config.Normalize)
		case "text":
			embeds, err = proppynn.ReadTextEmbeddings(bufio.NewReader(r))
		default:
			err = errors.Errorf("unknown embedding format: %s", config.Format)
		}
		return
	})
	ExitIfError("Cannot read vectors: ", err)

	Logger.Info("read embeddings",
		zap.String("words", humanize.Comma(int64(embeds.Size()))),
		zap.Int("dims", embeds.EmbeddingSize()))

	return embeds
}

// MustReadSources reads the embedding sources of a preset. With Both,
// GloVe and fastText matrices are built; otherwise a single matrix of
// the configured type.
func MustReadSources(config Embeddings) []proppynn.NamedSource {
	if config.Both {
		return []proppynn.NamedSource{
			mustReadSource("embeddings_glove", config.GloVe),
			mustReadSource("embeddings_fasttext", config.FastText),
		}
	}

	var embedding Embedding
	switch config.Type {
	case "glove":
		embedding = config.GloVe
	case "fasttext":
		embedding = config.FastText
	default:
		ExitIfError("", errors.Errorf("unknown embedding type: %s", config.Type))
	}

	return []proppynn.NamedSource{mustReadSource("embeddings", embedding)}
}

func mustReadSource(name string, config Embedding) proppynn.NamedSource {
	ExitIfError("", checkEmbedding(name, config))
	return proppynn.NamedSource{Name: name, Source: MustReadEmbeddings(config)}
}

// checkEmbedding fails when a preset needs embeddings without a file.
func checkEmbedding(name string, config Embedding) error {
	if config.Filename == "" {
		return errors.Errorf("no embedding file configured for %s", name)
	}
	return nil
}

func MustReadVocabulary(filename string) *proppynn.Vocabulary {
	f, err := os.Open(filename)
	ExitIfError("Could not open vocabulary file: ", err)
	defer f.Close()

	vocab, err := proppynn.ReadVocabulary(bufio.NewReader(f))
	ExitIfError("Could not read vocabulary file: ", err)

	return vocab
}

func MustWriteVocabulary(vocab *proppynn.Vocabulary, filename string) {
	f, err := os.Create(filename)
	ExitIfError("Could not create vocabulary file: ", err)
	defer f.Close()

	w := bufio.NewWriter(f)
	err = vocab.Write(w)
	ExitIfError("Could not write vocabulary: ", err)
	ExitIfError("Could not write vocabulary: ", w.Flush())
}

// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckEmbedding(t *testing.T) {
	config, err := ParseConfig(strings.NewReader(`
[both-embeddings.embeddings.fasttext]
filename = ""
`))
	require.NoError(t, err)

	preset, err := config.Preset("both-embeddings")
	require.NoError(t, err)
	assert.NoError(t, checkEmbedding("embeddings_glove", preset.Embeddings.GloVe))

	err = checkEmbedding("embeddings_fasttext", preset.Embeddings.FastText)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embeddings_fasttext")
}

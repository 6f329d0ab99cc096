// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proppynn

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemapLabel(t *testing.T) {
	for _, tt := range []struct{ in, want int }{{-1, 0}, {0, 0}, {1, 1}} {
		got, err := RemapLabel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)

		// Remapping is idempotent.
		again, err := RemapLabel(got)
		require.NoError(t, err)
		assert.Equal(t, got, again)
	}

	_, err := RemapLabel(2)
	assert.Error(t, err)
}

func TestReadSplit(t *testing.T) {
	tsv := "id\ttext\tlabel\n" +
		"1\tThe senate \"voted\"\t-1\n" +
		"2\tIt's a hoax!\t1\n" +
		"3\tWeather today\t0\n"

	split, err := ReadSplit(strings.NewReader(tsv))
	require.NoError(t, err)

	assert.Equal(t, 3, split.Len())
	assert.Equal(t, []string{"The senate \"voted\"", "It's a hoax!", "Weather today"}, split.Texts)
	assert.Equal(t, []int{0, 1, 0}, split.Labels)
	assert.Nil(t, split.Aux)

	assert.Equal(t, []OneHot{{1, 0}, {0, 1}, {1, 0}}, split.OneHot())
}

func TestReadSplitInvalidLabel(t *testing.T) {
	_, err := ReadSplit(strings.NewReader("text\tlabel\nhello\t3\n"))
	assert.Error(t, err)
}

func TestOneHotClass(t *testing.T) {
	assert.Equal(t, 0, OneHot{1, 0}.Class())
	assert.Equal(t, 1, OneHot{0, 1}.Class())
}

func TestRawSplitsEach(t *testing.T) {
	raw := RawSplits{}

	var kinds []SplitKind
	require.NoError(t, raw.Each(func(kind SplitKind, _ *RawSplit) error {
		kinds = append(kinds, kind)
		return nil
	}))
	assert.Equal(t, []SplitKind{Train, Test}, kinds, "absent dev split is skipped")

	raw.Dev = &RawSplit{}
	kinds = nil
	require.NoError(t, raw.Each(func(kind SplitKind, _ *RawSplit) error {
		kinds = append(kinds, kind)
		return nil
	}))
	assert.Equal(t, []SplitKind{Train, Test, Dev}, kinds)
}

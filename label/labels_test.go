// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package label

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberer(t *testing.T) {
	l := NewNumberer()
	assert.Equal(t, 1, l.Number("propaganda"))
	assert.Equal(t, 2, l.Number("news"))
	assert.Equal(t, 1, l.Number("propaganda"))
	assert.Equal(t, 2, l.Size())

	label, ok := l.Label(2)
	assert.True(t, ok)
	assert.Equal(t, "news", label)

	_, ok = l.Label(0)
	assert.False(t, ok, "0 is reserved for padding")
	_, ok = l.Label(3)
	assert.False(t, ok)

	_, ok = l.Lookup("unseen")
	assert.False(t, ok)
	assert.Equal(t, 2, l.Size(), "Lookup must not add labels")
}

func TestNumbererRoundTrip(t *testing.T) {
	l := NewNumberer()
	for _, w := range []string{"the", "senate", "hoax"} {
		l.Number(w)
	}

	var buf bytes.Buffer
	require.NoError(t, l.Write(&buf))

	read := NewNumberer()
	require.NoError(t, read.Read(&buf))
	assert.Equal(t, l.Labels(), read.Labels())

	idx, ok := read.Lookup("hoax")
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
}

func TestNumbererReadDuplicate(t *testing.T) {
	l := NewNumberer()
	err := l.Read(strings.NewReader("a\nb\na\n"))
	assert.Error(t, err)
}

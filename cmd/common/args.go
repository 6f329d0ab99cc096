// Copyright 2016 The proppynn Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"io"
	"os"
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

// FileOrStdout creates the file at path for writing. When path is empty
// or "-", it returns os.Stdout, which is not closed by Close.
func FileOrStdout(path string) io.WriteCloser {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}
	}

	output, err := os.Create(path)
	ExitIfError("Cannot open file for writing: ", err)
	return output
}

//go:build !unix

package mmap

import (
	"os"

	"braces.dev/errtrace"
)

func mapFile(f *os.File, _ int64) (*File, error) {
	return errtrace.Wrap2(read(f))
}

func unmap([]byte) error { return nil }

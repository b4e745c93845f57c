//go:build unix

package mmap

import (
	"fmt"
	"math"
	"os"

	"braces.dev/errtrace"
	"golang.org/x/sys/unix"
)

func mapFile(f *os.File, size int64) (*File, error) {
	if size > math.MaxInt {
		return nil, errtrace.Wrap(fmt.Errorf("file %s is too large to map: %d bytes", f.Name(), size))
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, errtrace.Wrap(fmt.Errorf("mmap %s: %w", f.Name(), err))
	}
	// The reader scans the payload front to back.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	return &File{data: data, mapped: true}, nil
}

func unmap(data []byte) error {
	return errtrace.Wrap(unix.Munmap(data))
}

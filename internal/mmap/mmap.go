// Package mmap loads files as read-only byte slices, memory-mapping them where the platform allows.
package mmap

//go:generate go tool errtrace -w .

import (
	"io"
	"os"

	"braces.dev/errtrace"
)

// File is a file loaded into memory.
// The data must not be modified and must not be used after [File.Close].
type File struct {
	data   []byte
	mapped bool
}

// Open loads the file at path.
// Regular files are memory-mapped, other files (pipes, devices) are read into memory.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if !fi.Mode().IsRegular() || fi.Size() == 0 {
		return errtrace.Wrap2(read(f))
	}
	return errtrace.Wrap2(mapFile(f, fi.Size()))
}

// Read loads everything from r into memory.
func Read(r io.Reader) (*File, error) {
	return errtrace.Wrap2(read(r))
}

func read(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return &File{data: data}, nil
}

// Bytes returns the file contents.
func (f *File) Bytes() []byte {
	if f == nil {
		return nil
	}
	return f.data
}

// Mapped reports whether the contents are memory-mapped.
func (f *File) Mapped() bool { return f != nil && f.mapped }

// Close releases the file contents. It is safe to call Close more than once.
func (f *File) Close() error {
	if f == nil || f.data == nil {
		return nil
	}
	data, mapped := f.data, f.mapped
	f.data, f.mapped = nil, false
	if !mapped {
		return nil
	}
	return errtrace.Wrap(unmap(data))
}

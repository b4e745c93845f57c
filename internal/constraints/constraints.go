// Package constraints provides type constraints shared by the multipart packages.
package constraints

// Byteseq is a byte string: either string or []byte based.
type Byteseq interface {
	~string | ~[]byte
}

package ntat

import (
	"io"
	"sync"

	"golang.org/x/crypto/sha3"
)

// DeterministicReader is an io.Reader producing a SHAKE256 stream keyed by a
// seed. It reproduces protocol runs byte for byte in tests and benchmarks and
// must never stand in for crypto/rand in production.
type DeterministicReader struct {
	mu   sync.Mutex
	xof  sha3.ShakeHash
	read uint64
}

var _ io.Reader = (*DeterministicReader)(nil)

// NewDeterministicReader creates a reader whose output depends only on seed and label
func NewDeterministicReader(seed []byte, label string) *DeterministicReader {
	xof := sha3.NewShake256()
	xof.Write(frame(nil, "ntat-deterministic-reader"))
	xof.Write(frame(nil, label))
	xof.Write(seed)
	return &DeterministicReader{xof: xof}
}

// Read fills p with the next bytes of the stream; it never fails.
func (r *DeterministicReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, err := r.xof.Read(p)
	r.read += uint64(n)
	return n, err
}

// BytesRead reports how much of the stream has been consumed
func (r *DeterministicReader) BytesRead() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read
}

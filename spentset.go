package ntat

import (
	"context"
	"encoding/hex"
	"sync"
)

// SpentSet records redeemed tokens. CheckAndMark must be linearizable per key:
// of any number of concurrent calls with the same key, exactly one reports
// fresh.
type SpentSet interface {
	// Contains reports whether key has been marked
	Contains(ctx context.Context, key []byte) (bool, error)
	// CheckAndMark atomically marks key and reports whether it was unmarked before
	CheckAndMark(ctx context.Context, key []byte) (fresh bool, err error)
}

// MemorySpentSet is an in-process SpentSet. Its contents live as long as the
// process does.
type MemorySpentSet struct {
	mu    sync.Mutex
	spent map[string]struct{}
}

var _ SpentSet = (*MemorySpentSet)(nil)

// NewMemorySpentSet creates an empty spent set
func NewMemorySpentSet() *MemorySpentSet {
	return &MemorySpentSet{spent: make(map[string]struct{})}
}

func (m *MemorySpentSet) Contains(ctx context.Context, key []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, ErrSpentSetFailure.WithCause(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.spent[hex.EncodeToString(key)]
	return ok, nil
}

func (m *MemorySpentSet) CheckAndMark(ctx context.Context, key []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, ErrSpentSetFailure.WithCause(err)
	}
	k := hex.EncodeToString(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.spent[k]; ok {
		return false, nil
	}
	m.spent[k] = struct{}{}
	return true, nil
}

// Len reports how many keys are marked
func (m *MemorySpentSet) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spent)
}

// doubleSpendKey derives the spent-set key of a token from its serial
func doubleSpendKey(pp *PublicParams, serial Scalar) ([]byte, error) {
	t := NewTranscript(pp.Hash, pp.Suite.Name(), "double-spend-key")
	t.AppendScalar("serial", serial)
	return pp.Hash.Expand("ntat-spent", t.Bytes())
}

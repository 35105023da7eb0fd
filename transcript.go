package ntat

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"

	"github.com/tchajed/marshal"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// ProtocolVersion is absorbed first into every transcript. Changing it, or any
// encoding that feeds a transcript, changes every challenge.
const ProtocolVersion = "ntat/v1"

// uniformSize is the width hash outputs are reduced from
const uniformSize = 64

// HashAlgorithm specifies which hash expands transcripts and derives keys
type HashAlgorithm int

const (
	// HashSHA256 uses HKDF-SHA256 expansion
	HashSHA256 HashAlgorithm = iota
	// HashBLAKE2b uses BLAKE2b-512
	HashBLAKE2b
	// HashSHAKE256 uses the SHAKE256 XOF
	HashSHAKE256
	// HashBLAKE3 uses BLAKE3 in extendable output mode
	HashBLAKE3
)

var hashAlgorithmNames = map[HashAlgorithm]string{
	HashSHA256:   "sha256",
	HashBLAKE2b:  "blake2b",
	HashSHAKE256: "shake256",
	HashBLAKE3:   "blake3",
}

func (h HashAlgorithm) String() string {
	if name, ok := hashAlgorithmNames[h]; ok {
		return name
	}
	return fmt.Sprintf("HashAlgorithm(%d)", int(h))
}

// ParseHashAlgorithm maps a configuration name to a HashAlgorithm
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for alg, n := range hashAlgorithmNames {
		if n == name {
			return alg, nil
		}
	}
	return 0, ErrUnsupportedHash.WithContext("hash", name)
}

// Expand hashes data under a domain label into 64 uniform bytes.
func (h HashAlgorithm) Expand(domain string, data []byte) ([]byte, error) {
	out := make([]byte, uniformSize)
	switch h {
	case HashSHA256:
		r := hkdf.New(sha256.New, data, nil, []byte(domain))
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, ErrHashComputation.WithCause(err)
		}
	case HashBLAKE2b:
		hasher, err := blake2b.New512([]byte(nil))
		if err != nil {
			return nil, ErrHashComputation.WithCause(err)
		}
		hasher.Write(frame(nil, domain))
		hasher.Write(data)
		out = hasher.Sum(out[:0])
	case HashSHAKE256:
		shake := sha3.NewShake256()
		shake.Write(frame(nil, domain))
		shake.Write(data)
		shake.Read(out)
	case HashBLAKE3:
		hasher := blake3.New()
		hasher.Write(frame(nil, domain))
		hasher.Write(data)
		if _, err := hasher.Digest().Read(out); err != nil {
			return nil, ErrHashComputation.WithCause(err)
		}
	default:
		return nil, ErrUnsupportedHash.WithContext("hash", h.String())
	}
	return out, nil
}

// frame appends a length-prefixed field
func frame(b []byte, s string) []byte {
	b = marshal.WriteInt(b, uint64(len(s)))
	return marshal.WriteBytes(b, []byte(s))
}

// Transcript is a Fiat-Shamir transcript. Every entry is framed as
// len(label) ‖ label ‖ len(value) ‖ value, so no two differently shaped
// sequences of entries encode to the same bytes.
type Transcript struct {
	hash HashAlgorithm
	buf  []byte
}

// NewTranscript starts a transcript bound to the protocol version, the suite
// and a per-proof domain label.
func NewTranscript(hash HashAlgorithm, suite string, domain string) *Transcript {
	t := &Transcript{hash: hash}
	t.Append("version", []byte(ProtocolVersion))
	t.Append("suite", []byte(suite))
	t.Append("domain", []byte(domain))
	return t
}

// Append absorbs a labelled value
func (t *Transcript) Append(label string, value []byte) {
	t.buf = frame(t.buf, label)
	t.buf = marshal.WriteInt(t.buf, uint64(len(value)))
	t.buf = marshal.WriteBytes(t.buf, value)
}

// AppendPoint absorbs the canonical encoding of p
func (t *Transcript) AppendPoint(label string, p Point) {
	t.Append(label, p.Bytes())
}

// AppendScalar absorbs the canonical encoding of s
func (t *Transcript) AppendScalar(label string, s Scalar) {
	t.Append(label, s.Bytes())
}

// Clone returns an independent copy, so a shared prefix can be reused.
func (t *Transcript) Clone() *Transcript {
	buf := make([]byte, len(t.buf))
	copy(buf, t.buf)
	return &Transcript{hash: t.hash, buf: buf}
}

// Bytes returns the framed transcript
func (t *Transcript) Bytes() []byte {
	return t.buf
}

// ChallengeScalar reduces the transcript to a scalar of g
func (t *Transcript) ChallengeScalar(g Group) (Scalar, error) {
	digest, err := t.hash.Expand("ntat-challenge", t.buf)
	if err != nil {
		return nil, err
	}
	return g.ScalarFromUniformBytes(digest)
}

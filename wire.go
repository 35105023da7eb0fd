package ntat

import (
	"github.com/pkg/errors"
	"github.com/tchajed/marshal"
)

// WireVersion is the first field of every encoded message
const WireVersion uint64 = 1

// messageKind tags an encoding so a Query can never be decoded as a Response
type messageKind byte

const (
	kindParams messageKind = iota + 1
	kindQuery
	kindResponse
	kindToken
	kindRedemption1
	kindRedemption2
)

func (k messageKind) String() string {
	switch k {
	case kindParams:
		return "params"
	case kindQuery:
		return "query"
	case kindResponse:
		return "response"
	case kindToken:
		return "token"
	case kindRedemption1:
		return "redemption1"
	case kindRedemption2:
		return "redemption2"
	default:
		return "unknown"
	}
}

func writeSlice(b, data []byte) []byte {
	b = marshal.WriteInt(b, uint64(len(data)))
	return marshal.WriteBytes(b, data)
}

func writeHeader(b []byte, suite string, kind messageKind) []byte {
	b = marshal.WriteInt(b, WireVersion)
	b = writeSlice(b, []byte(suite))
	return marshal.WriteBytes(b, []byte{byte(kind)})
}

// decoder walks an encoding, checking lengths before every read. The first
// failure sticks and later reads are no-ops.
type decoder struct {
	rem []byte
	err error
}

func (d *decoder) fail(format string, args ...interface{}) {
	if d.err == nil {
		d.err = errors.Errorf(format, args...)
	}
}

func (d *decoder) readInt() uint64 {
	if d.err != nil {
		return 0
	}
	if uint64(len(d.rem)) < 8 {
		d.fail("truncated integer")
		return 0
	}
	var v uint64
	v, d.rem = marshal.ReadInt(d.rem)
	return v
}

func (d *decoder) readByte() byte {
	if d.err != nil {
		return 0
	}
	if len(d.rem) < 1 {
		d.fail("truncated byte")
		return 0
	}
	var b []byte
	b, d.rem = marshal.ReadBytes(d.rem, 1)
	return b[0]
}

func (d *decoder) readSlice() []byte {
	n := d.readInt()
	if d.err != nil {
		return nil
	}
	if uint64(len(d.rem)) < n {
		d.fail("field of %d bytes overruns message", n)
		return nil
	}
	var b []byte
	b, d.rem = marshal.ReadBytesCopy(d.rem, n)
	return b
}

func (d *decoder) point(g Group, field string) Point {
	b := d.readSlice()
	if d.err != nil {
		return nil
	}
	p, err := g.PointFromBytes(b)
	if err != nil {
		d.err = errors.Wrapf(err, "field %s", field)
		return nil
	}
	return p
}

func (d *decoder) scalar(g Group, field string) Scalar {
	b := d.readSlice()
	if d.err != nil {
		return nil
	}
	s, err := g.ScalarFromBytes(b)
	if err != nil {
		d.err = errors.Wrapf(err, "field %s", field)
		return nil
	}
	return s
}

// header consumes the common prefix and returns the suite name it carries
func (d *decoder) header(kind messageKind) string {
	if v := d.readInt(); d.err == nil && v != WireVersion {
		d.fail("unsupported wire version %d", v)
	}
	suite := string(d.readSlice())
	if k := messageKind(d.readByte()); d.err == nil && k != kind {
		d.fail("expected %s message, got %s", kind, k)
	}
	return suite
}

func (d *decoder) expectSuite(kind messageKind, pp *PublicParams) {
	suite := d.header(kind)
	if d.err == nil && suite != pp.Suite.Name() {
		d.fail("message for suite %q, params are %q", suite, pp.Suite.Name())
	}
}

func (d *decoder) finish(kind messageKind) error {
	if d.err == nil && len(d.rem) != 0 {
		d.fail("%d trailing bytes", len(d.rem))
	}
	if d.err != nil {
		return ErrMalformedMessage.WithContext("message", kind.String()).WithCause(d.err)
	}
	return nil
}

// EncodePublicParams serialises pp, including its suite and transcript hash
func EncodePublicParams(pp *PublicParams) []byte {
	b := writeHeader(nil, pp.Suite.Name(), kindParams)
	b = writeSlice(b, []byte(pp.Hash.String()))
	for _, g := range []Point{pp.G1, pp.G2, pp.G3, pp.G4} {
		b = writeSlice(b, g.Bytes())
	}
	return b
}

// DecodePublicParams parses and validates parameters produced by EncodePublicParams
func DecodePublicParams(data []byte) (*PublicParams, error) {
	d := &decoder{rem: data}
	name := d.header(kindParams)
	hashName := string(d.readSlice())
	if d.err != nil {
		return nil, d.finish(kindParams)
	}
	suite, err := NewSuite(SuiteType(name))
	if err != nil {
		return nil, err
	}
	hash, err := ParseHashAlgorithm(hashName)
	if err != nil {
		return nil, err
	}
	pp := &PublicParams{
		Suite: suite,
		Hash:  hash,
		G1:    d.point(suite.Issuance(), "g1"),
		G2:    d.point(suite.Key(), "g2"),
		G3:    d.point(suite.Issuance(), "g3"),
		G4:    d.point(suite.Issuance(), "g4"),
	}
	if err := d.finish(kindParams); err != nil {
		return nil, err
	}
	if err := pp.Validate(); err != nil {
		return nil, err
	}
	return pp, nil
}

// EncodeQuery serialises a query
func EncodeQuery(pp *PublicParams, q *Query) []byte {
	b := writeHeader(nil, pp.Suite.Name(), kindQuery)
	b = writeSlice(b, q.T.Bytes())
	b = writeSlice(b, q.Proof.Challenge.Bytes())
	b = writeSlice(b, q.Proof.Z1.Bytes())
	b = writeSlice(b, q.Proof.Z2.Bytes())
	return writeSlice(b, q.Proof.Z3.Bytes())
}

// DecodeQuery parses a query for pp's suite
func DecodeQuery(pp *PublicParams, data []byte) (*Query, error) {
	g, sg := pp.Suite.Issuance(), pp.scalars()
	d := &decoder{rem: data}
	d.expectSuite(kindQuery, pp)
	q := &Query{T: d.point(g, "T"), Proof: &REP3Proof{
		Challenge: d.scalar(sg, "challenge"),
		Z1:        d.scalar(sg, "z1"),
		Z2:        d.scalar(sg, "z2"),
		Z3:        d.scalar(sg, "z3"),
	}}
	if err := d.finish(kindQuery); err != nil {
		return nil, err
	}
	return q, nil
}

// EncodeResponse serialises an issuer response
func EncodeResponse(pp *PublicParams, r *Response) []byte {
	b := writeHeader(nil, pp.Suite.Name(), kindResponse)
	b = writeSlice(b, r.Tweak.Bytes())
	b = writeSlice(b, r.S.Bytes())
	b = writeSlice(b, r.Proof.Challenge.Bytes())
	return writeSlice(b, r.Proof.Z.Bytes())
}

// DecodeResponse parses an issuer response for pp's suite
func DecodeResponse(pp *PublicParams, data []byte) (*Response, error) {
	g, sg := pp.Suite.Issuance(), pp.scalars()
	d := &decoder{rem: data}
	d.expectSuite(kindResponse, pp)
	r := &Response{
		Tweak: d.scalar(sg, "tweak"),
		S:     d.point(g, "S"),
	}
	r.Proof = &DLEQProof{Challenge: d.scalar(sg, "challenge"), Z: d.scalar(sg, "z")}
	if err := d.finish(kindResponse); err != nil {
		return nil, err
	}
	return r, nil
}

// EncodeToken serialises a finalized token for storage by its holder. The
// encoding contains the token secrets.
func EncodeToken(pp *PublicParams, t *Token) []byte {
	b := writeHeader(nil, pp.Suite.Name(), kindToken)
	b = writeSlice(b, t.Sigma.Bytes())
	b = writeSlice(b, t.Serial.Bytes())
	return writeSlice(b, t.Tweak.Bytes())
}

// DecodeToken parses a stored token for pp's suite
func DecodeToken(pp *PublicParams, data []byte) (*Token, error) {
	g, sg := pp.Suite.Issuance(), pp.scalars()
	d := &decoder{rem: data}
	d.expectSuite(kindToken, pp)
	t := &Token{
		Sigma:  d.point(g, "sigma"),
		Serial: d.scalar(sg, "serial"),
		Tweak:  d.scalar(sg, "tweak"),
	}
	if err := d.finish(kindToken); err != nil {
		return nil, err
	}
	return t, nil
}

// EncodeRedemption1 serialises the first redemption message
func EncodeRedemption1(pp *PublicParams, p *RedemptionProof1) []byte {
	b := writeHeader(nil, pp.Suite.Name(), kindRedemption1)
	b = writeSlice(b, p.SigmaPrime.Bytes())
	b = writeSlice(b, p.Serial.Bytes())
	return writeSlice(b, p.Commitment.Bytes())
}

// DecodeRedemption1 parses the first redemption message for pp's suite
func DecodeRedemption1(pp *PublicParams, data []byte) (*RedemptionProof1, error) {
	g, sg := pp.Suite.Issuance(), pp.scalars()
	d := &decoder{rem: data}
	d.expectSuite(kindRedemption1, pp)
	p := &RedemptionProof1{
		SigmaPrime: d.point(g, "sigma'"),
		Serial:     d.scalar(sg, "serial"),
		Commitment: d.scalar(sg, "commitment"),
	}
	if err := d.finish(kindRedemption1); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodeRedemption2 serialises the second redemption message
func EncodeRedemption2(pp *PublicParams, p *RedemptionProof2) []byte {
	b := writeHeader(nil, pp.Suite.Name(), kindRedemption2)
	for _, s := range []Scalar{p.V0, p.V1, p.V2, p.Rho} {
		b = writeSlice(b, s.Bytes())
	}
	return b
}

// DecodeRedemption2 parses the second redemption message for pp's suite
func DecodeRedemption2(pp *PublicParams, data []byte) (*RedemptionProof2, error) {
	sg := pp.scalars()
	d := &decoder{rem: data}
	d.expectSuite(kindRedemption2, pp)
	p := &RedemptionProof2{
		V0:  d.scalar(sg, "v0"),
		V1:  d.scalar(sg, "v1"),
		V2:  d.scalar(sg, "v2"),
		Rho: d.scalar(sg, "rho"),
	}
	if err := d.finish(kindRedemption2); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodeScalar serialises a bare scalar such as the redemption challenge
func EncodeScalar(s Scalar) []byte {
	return writeSlice(nil, s.Bytes())
}

// DecodeScalar parses a scalar written by EncodeScalar
func DecodeScalar(pp *PublicParams, data []byte) (Scalar, error) {
	d := &decoder{rem: data}
	s := d.scalar(pp.scalars(), "scalar")
	if d.err == nil && len(d.rem) != 0 {
		d.fail("%d trailing bytes", len(d.rem))
	}
	if d.err != nil {
		return nil, ErrMalformedMessage.WithCause(d.err)
	}
	return s, nil
}

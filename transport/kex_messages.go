package transport

import "math/big"

// msgKexDHInitMsg / msgKexDHReplyMsg cover both the classic
// diffie-hellman-group*-sha* exchanges (e field is an mpint) and the
// elliptic-curve/X25519 families (e field is the raw public key octet
// string, per RFC 5656 §4 / draft-curve25519-sha256 §4) — the codec is
// byte-identical (a length-prefixed string), only interpretation
// differs, which kex.go handles per negotiated algorithm.
type msgKexDHInitMsg struct {
	e []byte
}

func (m *msgKexDHInitMsg) msgType() byte   { return msgKexDHInit }
func (m *msgKexDHInitMsg) marshal() []byte { return marshalString([]byte{msgKexDHInit}, m.e) }
func (m *msgKexDHInitMsg) unmarshal(p []byte) error {
	if len(p) < 1 {
		return errTruncated
	}
	e, _, err := unmarshalString(p[1:])
	m.e = e
	return err
}

func (m *msgKexDHInitMsg) eAsInt() *big.Int { return new(big.Int).SetBytes(m.e) }

type msgKexDHReplyMsg struct {
	hostKey   []byte
	f         []byte
	signature []byte
}

func (m *msgKexDHReplyMsg) msgType() byte { return msgKexDHReply }
func (m *msgKexDHReplyMsg) marshal() []byte {
	buf := []byte{msgKexDHReply}
	buf = marshalString(buf, m.hostKey)
	buf = marshalString(buf, m.f)
	buf = marshalString(buf, m.signature)
	return buf
}
func (m *msgKexDHReplyMsg) unmarshal(p []byte) (err error) {
	if len(p) < 1 {
		return errTruncated
	}
	rest := p[1:]
	m.hostKey, rest, err = unmarshalString(rest)
	if err != nil {
		return err
	}
	m.f, rest, err = unmarshalString(rest)
	if err != nil {
		return err
	}
	m.signature, _, err = unmarshalString(rest)
	return err
}

// msgGroupExchangeRequestMsg/msgGroupExchangeGroupMsg hold the fields
// of RFC 4419's GEX_REQUEST/GEX_GROUP messages; they have no wire codec
// and no KEX path sends or reads them.
type msgGroupExchangeRequestMsg struct {
	min, n, max uint32
}

type msgGroupExchangeGroupMsg struct {
	p, g *big.Int
}

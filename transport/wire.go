// Package transport implements the SSH-2 Binary Packet Protocol, key
// exchange, and channel multiplexing layers that sit beneath the
// gossh client surface.
//
// golang implementation in the style of blitter.com/go/xs, generalized
// from that project's custom framing/KEX scheme to RFC 4253/4254/4251.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// MaxPayload bounds any single BPP payload this implementation will
// allocate for. RFC 4253 does not mandate a hard ceiling, but every
// interoperable implementation enforces one to avoid a malicious peer
// forcing unbounded allocation; the teacher's xsnet.Conn.Read applies
// the same discipline against its own length prefix.
const MaxPayload = 1 << 20 // 1 MiB

var errTruncated = errors.New("transport: buffer truncated")

// marshalUint32 appends a big-endian uint32 per RFC 4251 §5.
func marshalUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func unmarshalUint32(buf []byte) (uint32, []byte, error) {
	if len(buf) < 4 {
		return 0, nil, errTruncated
	}
	return binary.BigEndian.Uint32(buf), buf[4:], nil
}

// marshalString appends an RFC 4251 §5 string: uint32 length + raw bytes.
func marshalString(buf []byte, s []byte) []byte {
	buf = marshalUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func unmarshalString(buf []byte) ([]byte, []byte, error) {
	n, rest, err := unmarshalUint32(buf)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(rest)) < uint64(n) {
		return nil, nil, errTruncated
	}
	return rest[:n], rest[n:], nil
}

func marshalBool(buf []byte, b bool) []byte {
	if b {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func unmarshalBool(buf []byte) (bool, []byte, error) {
	if len(buf) < 1 {
		return false, nil, errTruncated
	}
	return buf[0] != 0, buf[1:], nil
}

// marshalNameList appends an RFC 4251 §5 name-list: a comma-separated
// string of ASCII names, length-prefixed as a whole.
func marshalNameList(buf []byte, names []string) []byte {
	joined := joinNames(names)
	return marshalString(buf, []byte(joined))
}

func unmarshalNameList(buf []byte) ([]string, []byte, error) {
	s, rest, err := unmarshalString(buf)
	if err != nil {
		return nil, nil, err
	}
	if len(s) == 0 {
		return nil, rest, nil
	}
	return splitNames(string(s)), rest, nil
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}

func splitNames(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// marshalMpint appends an RFC 4251 §5 mpint: a two's-complement,
// minimal-length, big-endian integer, length-prefixed. A leading zero
// byte is inserted when the high bit of the first non-zero byte would
// otherwise flip the sign of a non-negative value.
func marshalMpint(buf []byte, n *big.Int) []byte {
	if n.Sign() == 0 {
		return marshalUint32(buf, 0)
	}
	b := n.Bytes()
	if b[0]&0x80 != 0 {
		b = append([]byte{0}, b...)
	}
	return marshalString(buf, b)
}

func unmarshalMpint(buf []byte) (*big.Int, []byte, error) {
	b, rest, err := unmarshalString(buf)
	if err != nil {
		return nil, nil, err
	}
	return new(big.Int).SetBytes(b), rest, nil
}

// firstNameListMatch picks the first name in `client` also present in
// `server`, per RFC 4253 §7.1's negotiation rule (client preference
// order wins on a tie).
func firstNameListMatch(client, server []string) (string, error) {
	for _, c := range client {
		for _, s := range server {
			if c == s {
				return c, nil
			}
		}
	}
	return "", fmt.Errorf("transport: no common algorithm between %v and %v", client, server)
}

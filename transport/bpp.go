package transport

// Binary Packet Protocol framing, RFC 4253 §6. Shape follows
// blitter.com/go/xs's xsnet.Conn.Read/Write: a length-prefixed frame,
// random padding, and a trailing integrity tag computed over the
// frame — generalized from the teacher's truncated 4-byte HMAC and
// fixed 32-byte pad to the real wire format (full-size MAC or AEAD
// tag, pad length derived from block size and RFC 4253's >=4-byte /
// multiple-of-8 rule).

import (
	"encoding/binary"
	"fmt"
	"io"
)

const minPaddingLength = 4

// direction holds the per-direction cipher/MAC state and sequence
// counter a bppCodec advances on every packet, matching the teacher's
// separate encode/decode cipher.Stream + hash.Hash pairs in
// xsnet.Conn but keyed by direction instead of being single-stream.
type direction struct {
	seq      uint32
	cipher   cipherSuite
	mac      *macAlgorithm
	macKey   []byte
	stream   cipherStreamer
	compress compressor
}

// cipherStreamer abstracts the OFB/CTR keystream a non-AEAD suite
// drives; AEAD suites leave this nil and use cipher.seal/open instead.
type cipherStreamer interface {
	XORKeyStream(dst, src []byte)
}

func newDirection() *direction { return &direction{compress: noneCompressor{}} }

// bppCodec reads/writes whole packets on a single net.Conn. Exactly
// one goroutine may call readPacket (the Session's recvLoop); writes
// are serialized by the Session's send mutex, not by bppCodec itself —
// matching the teacher's single sync.Mutex guarding Conn.Write while
// Read has no such lock because only one reader ever exists.
type bppCodec struct {
	rw  io.ReadWriter
	tx  *direction
	rx  *direction

	strictKex   bool
	seenNewKeys bool
}

func newBPPCodec(rw io.ReadWriter) *bppCodec {
	return &bppCodec{rw: rw, tx: newDirection(), rx: newDirection()}
}

// writePacket frames and sends one SSH message payload. Returns the
// sequence number this packet was sent under (checked by the tests;
// Session's callers discard it).
func (c *bppCodec) writePacket(payload []byte) (uint32, error) {
	seq := c.tx.seq
	blockSize := 8
	if c.tx.cipher != nil {
		if bs := c.tx.cipher.ivSize(); bs > blockSize {
			blockSize = bs
		}
	}

	payload, err := c.tx.compress.compress(payload)
	if err != nil {
		return 0, err
	}

	// packet_length + padding_length + payload + padding must be a
	// multiple of blockSize (or 8, whichever is larger), RFC 4253 §6.
	padLen := blockSize - (5+len(payload))%blockSize
	if padLen < minPaddingLength {
		padLen += blockSize
	}
	padding := make([]byte, padLen)
	if _, err := io.ReadFull(cryptoRandReader, padding); err != nil {
		return 0, err
	}

	packetLen := uint32(1 + len(payload) + padLen)
	frame := make([]byte, 0, 4+packetLen)
	frame = marshalUint32(frame, packetLen)
	frame = append(frame, byte(padLen))
	frame = append(frame, payload...)
	frame = append(frame, padding...)

	if c.tx.cipher != nil && c.tx.cipher.isAEAD() {
		aad := frame[:4]
		sealed := c.tx.cipher.seal(seq, aad, frame[4:])
		out := append(append([]byte{}, aad...), sealed...)
		if _, err := c.rw.Write(out); err != nil {
			return 0, err
		}
	} else {
		ciphertext := append([]byte{}, frame...)
		if c.tx.stream != nil {
			c.tx.stream.XORKeyStream(ciphertext[4:], frame[4:])
		}
		if c.tx.mac != nil {
			mac := computeMAC(c.tx.mac, c.tx.macKey, seq, frame)
			ciphertext = append(ciphertext, mac...)
		}
		if _, err := c.rw.Write(ciphertext); err != nil {
			return 0, err
		}
	}

	c.tx.seq++
	if c.strictKex && !c.seenNewKeys && len(payload) > 0 && payload[0] == msgNewKeys {
		c.tx.seq = 0
	}
	return seq, nil
}

// readPacket blocks for exactly one framed message and returns its
// decoded payload (opcode byte included, matching decodeMessage's
// expectation). Only the Session's single receive goroutine calls this.
func (c *bppCodec) readPacket() ([]byte, error) {
	seq := c.rx.seq
	aeadMode := c.rx.cipher != nil && c.rx.cipher.isAEAD()

	lenField := make([]byte, 4)
	if _, err := io.ReadFull(c.rw, lenField); err != nil {
		return nil, err
	}
	packetLen := binary.BigEndian.Uint32(lenField)
	if packetLen == 0 || packetLen > MaxPayload {
		return nil, fmt.Errorf("transport: implausible packet length %d", packetLen)
	}

	rest := make([]byte, int(packetLen))
	if _, err := io.ReadFull(c.rw, rest); err != nil {
		return nil, err
	}

	var tag []byte
	if aeadMode {
		// Poly1305/GCM tag, sent after the packet_length bytes just as
		// writePacket appends it.
		tag = make([]byte, 16)
		if _, err := io.ReadFull(c.rw, tag); err != nil {
			return nil, err
		}
	} else if c.rx.mac != nil {
		tagSize := c.rx.mac.size
		total := make([]byte, 4+len(rest)+tagSize)
		copy(total, lenField)
		copy(total[4:], rest)
		if _, err := io.ReadFull(c.rw, total[4+len(rest):]); err != nil {
			return nil, err
		}
		tag = total[4+len(rest):]
		rest = total[4 : 4+len(rest)]
	}

	var plain []byte
	if aeadMode {
		aad := lenField
		p, err := c.rx.cipher.open(seq, aad, append(append([]byte{}, rest...), tag...))
		if err != nil {
			return nil, &ProtocolError{Reason: DisconnectMacError, Msg: "AEAD authentication failed"}
		}
		plain = p
	} else {
		plain = append([]byte{}, rest...)
		if c.rx.stream != nil {
			c.rx.stream.XORKeyStream(plain, rest)
		}
		if c.rx.mac != nil {
			frame := append(append([]byte{}, lenField...), plain...)
			want := computeMAC(c.rx.mac, c.rx.macKey, seq, frame)
			if !hmacEqual(want, tag) {
				return nil, &ProtocolError{Reason: DisconnectMacError, Msg: "MAC verification failed"}
			}
		}
	}

	if len(plain) < 1 {
		return nil, errTruncated
	}
	padLen := int(plain[0])
	if padLen+1 > len(plain) {
		return nil, errTruncated
	}
	payload := plain[1 : len(plain)-padLen]
	payload, err := c.rx.compress.decompress(payload)
	if err != nil {
		return nil, err
	}

	c.rx.seq++
	if c.strictKex && !c.seenNewKeys && len(payload) > 0 && payload[0] == msgNewKeys {
		c.rx.seq = 0
		c.seenNewKeys = true
	}
	return payload, nil
}

func computeMAC(alg *macAlgorithm, key []byte, seq uint32, frame []byte) []byte {
	_, h, _ := macByName(alg.algName, key)
	h.Write(uint32Bytes(seq))
	h.Write(frame)
	return h.Sum(nil)
}

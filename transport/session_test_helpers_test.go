package transport

import (
	"net"
	"testing"
)

// newTestSessionPair wires two Sessions over an in-memory net.Pipe with
// plaintext bppCodecs (no cipher negotiated) — enough to exercise
// SendMessage/readPacket without a full KEX handshake.
func newTestSessionPair(t *testing.T) (client, server *Session) {
	t.Helper()
	a, b := net.Pipe()
	client = &Session{
		conn:   a,
		codec:  newBPPCodec(a),
		config: &Config{},
		chans:  make(map[uint32]*Channel),
		closed: make(chan struct{}),
	}
	server = &Session{
		conn:   b,
		codec:  newBPPCodec(b),
		config: &Config{},
		chans:  make(map[uint32]*Channel),
		closed: make(chan struct{}),
	}
	t.Cleanup(func() {
		close(client.closed)
		close(server.closed)
	})
	return client, server
}

// readTestMessage reads and decodes exactly one packet sent by the
// peer of s (s.codec.readPacket blocks until one arrives).
func readTestMessage(t *testing.T, s *Session) (message, error) {
	t.Helper()
	payload, err := s.codec.readPacket()
	if err != nil {
		return nil, err
	}
	return decodeMessage(payload)
}

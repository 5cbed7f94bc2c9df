package transport

import (
	"bytes"
	"testing"
)

func TestBPPRoundTripPlaintext(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := newBPPCodec(buf)
	reader := newBPPCodec(buf)

	payload := []byte{msgIgnore, 'h', 'i'}
	if _, err := writer.writePacket(payload); err != nil {
		t.Fatal(err)
	}
	got, err := reader.readPacket()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %v want %v", got, payload)
	}
}

func TestBPPSequenceIncrementsPerPacket(t *testing.T) {
	buf := &bytes.Buffer{}
	codec := newBPPCodec(buf)
	for i := 0; i < 3; i++ {
		seq, err := codec.writePacket([]byte{msgIgnore})
		if err != nil {
			t.Fatal(err)
		}
		if seq != uint32(i) {
			t.Fatalf("packet %d: got seq %d", i, seq)
		}
	}
}

func TestBPPStrictKexResetsSequenceOnNewKeys(t *testing.T) {
	buf := &bytes.Buffer{}
	codec := newBPPCodec(buf)
	codec.strictKex = true
	if _, err := codec.writePacket([]byte{msgIgnore}); err != nil {
		t.Fatal(err)
	}
	if _, err := codec.writePacket([]byte{msgNewKeys}); err != nil {
		t.Fatal(err)
	}
	if codec.tx.seq != 0 {
		t.Fatalf("expected tx sequence reset to 0 after NEWKEYS under strict kex, got %d", codec.tx.seq)
	}
}

func TestBPPRoundTripWithCompressionInstalled(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := newBPPCodec(buf)
	reader := newBPPCodec(buf)
	writer.tx.compress = newZlibCompressor()
	reader.rx.compress = newZlibCompressor()

	payload := append([]byte{msgIgnore}, bytes.Repeat([]byte("x"), 200)...)
	if _, err := writer.writePacket(payload); err != nil {
		t.Fatal(err)
	}
	got, err := reader.readPacket()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %v want %v", got, payload)
	}
}

func TestBPPRejectsImplausiblePacketLength(t *testing.T) {
	buf := &bytes.Buffer{}
	buf.Write(marshalUint32(nil, MaxPayload+1))
	codec := newBPPCodec(buf)
	if _, err := codec.readPacket(); err == nil {
		t.Fatal("expected error on oversized packet length")
	}
}

package gossh

import (
	"bytes"
	"crypto/ed25519"
	"testing"
)

func TestEd25519SignerPublicKeyBlob(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	signer := Ed25519Signer{Public: pub, Private: priv}
	if got := signer.Algorithm(); got != "ssh-ed25519" {
		t.Fatalf("got algorithm %q, want ssh-ed25519", got)
	}

	blob := signer.PublicKeyBlob()
	alg, rest := unmarshalTestString(t, blob)
	if alg != "ssh-ed25519" {
		t.Fatalf("blob algorithm = %q, want ssh-ed25519", alg)
	}
	key, _ := unmarshalTestBytes(t, rest)
	if !bytes.Equal(key, pub) {
		t.Fatalf("blob key bytes don't match the public key")
	}
}

func TestEd25519SignerSignVerifies(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	signer := Ed25519Signer{Public: pub, Private: priv}

	data := []byte("exchange hash stand-in")
	sigBlob, err := signer.Sign(data)
	if err != nil {
		t.Fatal(err)
	}

	alg, rest := unmarshalTestString(t, sigBlob)
	if alg != "ssh-ed25519" {
		t.Fatalf("signature algorithm = %q, want ssh-ed25519", alg)
	}
	sig, _ := unmarshalTestBytes(t, rest)
	if !ed25519.Verify(pub, data, sig) {
		t.Fatal("signature produced by Sign does not verify")
	}
}

func TestSshStringRoundTrip(t *testing.T) {
	buf := sshString(nil, []byte("hello"))
	s, rest := unmarshalTestString(t, buf)
	if s != "hello" {
		t.Fatalf("got %q, want hello", s)
	}
	if len(rest) != 0 {
		t.Fatalf("unexpected trailing bytes: %d", len(rest))
	}

	// two fields back to back, as PublicKeyBlob builds them
	buf = sshString(sshString(nil, []byte("ssh-ed25519")), []byte("keybytes"))
	first, rest := unmarshalTestString(t, buf)
	second, rest := unmarshalTestString(t, rest)
	if first != "ssh-ed25519" || second != "keybytes" {
		t.Fatalf("got %q/%q, want ssh-ed25519/keybytes", first, second)
	}
	if len(rest) != 0 {
		t.Fatalf("unexpected trailing bytes: %d", len(rest))
	}
}

// unmarshalTestString/unmarshalTestBytes decode one RFC 4251 string
// field without importing the unexported transport codec, since
// auth.go's own wire helpers are write-only (sshString has no paired
// reader in this package).
func unmarshalTestString(t *testing.T, buf []byte) (string, []byte) {
	t.Helper()
	b, rest := unmarshalTestBytes(t, buf)
	return string(b), rest
}

func unmarshalTestBytes(t *testing.T, buf []byte) ([]byte, []byte) {
	t.Helper()
	if len(buf) < 4 {
		t.Fatalf("buffer too short for a length-prefixed field: %d bytes", len(buf))
	}
	n := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	if uint32(len(buf)-4) < n {
		t.Fatalf("field claims %d bytes, only %d available", n, len(buf)-4)
	}
	return buf[4 : 4+n], buf[4+n:]
}

package transport

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"math/big"
	"testing"
)

func TestVerifyHostKeySignatureEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	H := []byte("exchange hash")

	keyBlob := marshalString(marshalString(nil, []byte("ssh-ed25519")), pub)
	sig := ed25519.Sign(priv, H)
	sigBlob := marshalString(marshalString(nil, []byte("ssh-ed25519")), sig)

	if err := verifyHostKeySignature(keyBlob, sigBlob, H); err != nil {
		t.Fatalf("expected a valid signature to verify, got %v", err)
	}
}

func TestVerifyHostKeySignatureEd25519Tampered(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	H := []byte("exchange hash")
	otherH := []byte("different hash")

	keyBlob := marshalString(marshalString(nil, []byte("ssh-ed25519")), pub)
	sig := ed25519.Sign(priv, H)
	sigBlob := marshalString(marshalString(nil, []byte("ssh-ed25519")), sig)

	if err := verifyHostKeySignature(keyBlob, sigBlob, otherH); err == nil {
		t.Fatal("expected a signature over a different H to fail verification")
	}
}

func TestVerifyHostKeySignatureRSA(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	H := []byte("exchange hash")
	digest := sha256.Sum256(H)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatal(err)
	}

	keyBlob := marshalString(nil, []byte("ssh-rsa"))
	keyBlob = marshalMpint(keyBlob, big.NewInt(int64(priv.PublicKey.E)))
	keyBlob = marshalMpint(keyBlob, priv.PublicKey.N)

	sigBlob := marshalString(marshalString(nil, []byte("rsa-sha2-256")), sig)

	if err := verifyHostKeySignature(keyBlob, sigBlob, H); err != nil {
		t.Fatalf("expected a valid rsa-sha2-256 signature to verify, got %v", err)
	}
}

func TestVerifyHostKeySignatureECDSAP256(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	H := []byte("exchange hash")
	digest := sha256.Sum256(H)
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	if err != nil {
		t.Fatal(err)
	}

	point := marshalECPoint(priv.PublicKey.X, priv.PublicKey.Y, elliptic.P256())
	keyBlob := marshalString(nil, []byte("ecdsa-sha2-nistp256"))
	keyBlob = marshalString(keyBlob, []byte("nistp256"))
	keyBlob = marshalString(keyBlob, point)

	sigBody := marshalMpint(nil, r)
	sigBody = marshalMpint(sigBody, s)
	sigBlob := marshalString(marshalString(nil, []byte("ecdsa-sha2-nistp256")), sigBody)

	if err := verifyHostKeySignature(keyBlob, sigBlob, H); err != nil {
		t.Fatalf("expected a valid ecdsa-sha2-nistp256 signature to verify, got %v", err)
	}
}

func TestVerifyHostKeySignatureRejectsUnsupportedAlgorithm(t *testing.T) {
	keyBlob := marshalString(nil, []byte("ssh-dss"))
	sigBlob := marshalString(marshalString(nil, []byte("ssh-dss")), []byte("sig"))
	if err := verifyHostKeySignature(keyBlob, sigBlob, []byte("H")); err == nil {
		t.Fatal("expected an unsupported host key algorithm to be rejected")
	}
}

// marshalECPoint builds the RFC 5656 §3.1 uncompressed point encoding
// that unmarshalECPoint (hostkey.go) decodes.
func marshalECPoint(x, y *big.Int, curve elliptic.Curve) []byte {
	byteLen := (curve.Params().BitSize + 7) / 8
	buf := make([]byte, 1+2*byteLen)
	buf[0] = 0x04
	x.FillBytes(buf[1 : 1+byteLen])
	y.FillBytes(buf[1+byteLen:])
	return buf
}

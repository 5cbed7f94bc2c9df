package transport

import (
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"testing"

	kyber "git.schwanenlied.me/yawning/kyber.git"
)

func TestCurve25519KexAgreement(t *testing.T) {
	client, err := newCurve25519Kex()
	if err != nil {
		t.Fatal(err)
	}
	server, err := newCurve25519Kex()
	if err != nil {
		t.Fatal(err)
	}
	clientPub, _ := client.clientInit()
	serverPub, _ := server.clientInit()

	clientSecret, err := client.clientFinish(serverPub)
	if err != nil {
		t.Fatal(err)
	}
	serverSecret, err := server.clientFinish(clientPub)
	if err != nil {
		t.Fatal(err)
	}
	if clientSecret.Cmp(serverSecret) != 0 {
		t.Fatalf("shared secrets disagree: %s vs %s", clientSecret, serverSecret)
	}
}

// TestKyberX25519KexAgreement simulates the peer's side by hand (this
// build only ever plays the decapsulating/client role) to confirm the
// client recovers the same combined secret the peer independently
// derives via KEMEncrypt.
func TestKyberX25519KexAgreement(t *testing.T) {
	client, err := newKyberX25519Kex()
	if err != nil {
		t.Fatal(err)
	}
	clientBlob, err := client.clientInit()
	if err != nil {
		t.Fatal(err)
	}
	clientECDHPub, rest, err := unmarshalString(clientBlob)
	if err != nil {
		t.Fatal(err)
	}
	clientKEMPubBytes, _, err := unmarshalString(rest)
	if err != nil {
		t.Fatal(err)
	}

	serverECDH, err := newCurve25519Kex()
	if err != nil {
		t.Fatal(err)
	}
	serverECDHPub, err := serverECDH.clientInit()
	if err != nil {
		t.Fatal(err)
	}
	serverECDHSecret, err := serverECDH.clientFinish(clientECDHPub)
	if err != nil {
		t.Fatal(err)
	}

	clientKEMPub, err := kyber.Kyber768.PublicKeyFromBytes(clientKEMPubBytes)
	if err != nil {
		t.Fatal(err)
	}
	ciphertext, serverKEMSecret, err := clientKEMPub.KEMEncrypt(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	serverBlob := marshalString(marshalString(nil, serverECDHPub), ciphertext)
	clientSecret, err := client.clientFinish(serverBlob)
	if err != nil {
		t.Fatal(err)
	}

	wantSecret := new(big.Int).SetBytes(append(mpintBytes(serverECDHSecret), serverKEMSecret...))
	if clientSecret.Cmp(wantSecret) != 0 {
		t.Fatalf("client and server disagree on combined hybrid secret")
	}
}

func TestDHGroupKexAgreement(t *testing.T) {
	client, err := newDHGroupKex("diffie-hellman-group14-sha256")
	if err != nil {
		t.Fatal(err)
	}
	server, err := newDHGroupKex("diffie-hellman-group14-sha256")
	if err != nil {
		t.Fatal(err)
	}
	clientPub, _ := client.clientInit()
	serverPub, _ := server.clientInit()

	clientSecret, err := client.clientFinish(serverPub)
	if err != nil {
		t.Fatal(err)
	}
	serverSecret, err := server.clientFinish(clientPub)
	if err != nil {
		t.Fatal(err)
	}
	if clientSecret.Cmp(serverSecret) != 0 {
		t.Fatalf("shared secrets disagree")
	}
}

func TestDHGroupKexRejectsOutOfRangePublicValue(t *testing.T) {
	client, err := newDHGroupKex("diffie-hellman-group14-sha256")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.clientFinish([]byte{0}); err == nil {
		t.Fatal("expected rejection of zero public value")
	}
}

func TestKeyScheduleExpandsPastOneDigest(t *testing.T) {
	K := group14Generator // any *big.Int works as a stand-in shared secret
	H := []byte("exchange-hash")
	sessionID := []byte("session-id")
	key := keySchedule(sha256.New, K, H, sessionID, keyLetterEncClientToServer, 96)
	if len(key) != 96 {
		t.Fatalf("got %d bytes, want 96", len(key))
	}
}

func TestAdvertisedKexAlgorithmNamesAddsPseudoAlgOnlyOnInitialStrictHandshake(t *testing.T) {
	base := []string{"curve25519-sha256"}

	got := advertisedKexAlgorithmNames(base, true, true)
	if !nameListContains(got, kexStrictClientExtension) {
		t.Fatalf("initial+strict handshake should advertise %s, got %v", kexStrictClientExtension, got)
	}

	if got := advertisedKexAlgorithmNames(base, false, true); nameListContains(got, kexStrictClientExtension) {
		t.Fatalf("a re-key must never re-advertise %s, got %v", kexStrictClientExtension, got)
	}

	if got := advertisedKexAlgorithmNames(base, true, false); nameListContains(got, kexStrictClientExtension) {
		t.Fatalf("StrictKex=false must never advertise %s, got %v", kexStrictClientExtension, got)
	}
}

func TestAdvertisedKexAlgorithmNamesDoesNotMutateBase(t *testing.T) {
	base := []string{"curve25519-sha256"}
	_ = advertisedKexAlgorithmNames(base, true, true)
	if len(base) != 1 {
		t.Fatalf("base slice was mutated: %v", base)
	}
}

func TestNameListContains(t *testing.T) {
	list := []string{"a", "b", "c"}
	if !nameListContains(list, "b") {
		t.Fatal("expected b to be found")
	}
	if nameListContains(list, "z") {
		t.Fatal("expected z to not be found")
	}
}

func TestFirstNameListMatchUsedForCompressionNegotiation(t *testing.T) {
	got, err := firstNameListMatch(compressionPreference([]string{"zlib@openssh.com", "none"}), []string{"none", "zlib@openssh.com"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "zlib@openssh.com" {
		t.Fatalf("got %q, want zlib@openssh.com (client's top preference present on server side)", got)
	}
}

func TestFirstNameListMatchUsedForKexNegotiation(t *testing.T) {
	got, err := firstNameListMatch(defaultKexOrder, []string{"diffie-hellman-group14-sha256", "curve25519-sha256"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "curve25519-sha256" {
		t.Fatalf("got %q, want curve25519-sha256 (client's top preference present on server side)", got)
	}
}

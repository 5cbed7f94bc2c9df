package transport

import (
	"math/big"
	"testing"
)

func TestMarshalUint32RoundTrip(t *testing.T) {
	buf := marshalUint32(nil, 0xdeadbeef)
	got, rest, err := unmarshalUint32(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xdeadbeef || len(rest) != 0 {
		t.Fatalf("got %x rest %v", got, rest)
	}
}

func TestMarshalStringRoundTrip(t *testing.T) {
	buf := marshalString(nil, []byte("ssh-connection"))
	got, rest, err := unmarshalString(buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ssh-connection" || len(rest) != 0 {
		t.Fatalf("got %q rest %v", got, rest)
	}
}

func TestUnmarshalStringTruncated(t *testing.T) {
	buf := marshalUint32(nil, 10)
	if _, _, err := unmarshalString(buf); err == nil {
		t.Fatal("expected truncation error")
	}
}

func TestNameListRoundTrip(t *testing.T) {
	names := []string{"curve25519-sha256", "diffie-hellman-group14-sha256"}
	buf := marshalNameList(nil, names)
	got, rest, err := unmarshalNameList(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != names[0] || got[1] != names[1] || len(rest) != 0 {
		t.Fatalf("got %v rest %v", got, rest)
	}
}

func TestNameListEmpty(t *testing.T) {
	buf := marshalNameList(nil, nil)
	got, _, err := unmarshalNameList(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty name-list, got %v", got)
	}
}

func TestMarshalMpintHighBitPadding(t *testing.T) {
	// 0xFF alone would look negative in two's-complement; RFC 4251
	// requires a leading zero byte to keep it non-negative.
	n := big.NewInt(0xff)
	buf := marshalMpint(nil, n)
	got, _, err := unmarshalMpint(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(n) != 0 {
		t.Fatalf("got %s want %s", got, n)
	}
	length, _, _ := unmarshalUint32(buf)
	if length != 2 {
		t.Fatalf("expected 2-byte mpint body (zero pad + 0xff), got %d", length)
	}
}

func TestMarshalMpintZero(t *testing.T) {
	buf := marshalMpint(nil, big.NewInt(0))
	length, _, _ := unmarshalUint32(buf)
	if length != 0 {
		t.Fatalf("expected zero-length mpint for zero value, got %d", length)
	}
}

func TestFirstNameListMatchPrefersClientOrder(t *testing.T) {
	client := []string{"a", "b", "c"}
	server := []string{"c", "b"}
	got, err := firstNameListMatch(client, server)
	if err != nil {
		t.Fatal(err)
	}
	if got != "b" {
		t.Fatalf("got %q want %q", got, "b")
	}
}

func TestFirstNameListMatchNoOverlap(t *testing.T) {
	if _, err := firstNameListMatch([]string{"x"}, []string{"y"}); err == nil {
		t.Fatal("expected error on no overlap")
	}
}

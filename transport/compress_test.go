package transport

import "testing"

func TestNoneCompressorRoundTrips(t *testing.T) {
	c := noneCompressor{}
	in := []byte("hello world")
	out, err := c.compress(in)
	if err != nil {
		t.Fatal(err)
	}
	back, err := c.decompress(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(back) != string(in) {
		t.Fatalf("got %q, want %q", back, in)
	}
}

func TestZlibCompressorRoundTripsAcrossMultiplePackets(t *testing.T) {
	tx := newZlibCompressor()
	rx := newZlibCompressor()

	payloads := [][]byte{
		[]byte("the quick brown fox jumps over the lazy dog"),
		[]byte("the quick brown fox jumps over the lazy dog again"),
		[]byte(""),
		[]byte("a third, unrelated payload entirely"),
	}
	for i, p := range payloads {
		compressed, err := tx.compress(p)
		if err != nil {
			t.Fatalf("packet %d: compress: %v", i, err)
		}
		got, err := rx.decompress(compressed)
		if err != nil {
			t.Fatalf("packet %d: decompress: %v", i, err)
		}
		if string(got) != string(p) {
			t.Fatalf("packet %d: got %q, want %q", i, got, p)
		}
	}
}

func TestZlibCompressorActuallyShrinksRepetitiveData(t *testing.T) {
	tx := newZlibCompressor()
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = 'a'
	}
	compressed, err := tx.compress(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(compressed) >= len(payload) {
		t.Fatalf("compressed size %d not smaller than original %d", len(compressed), len(payload))
	}
}

func TestDeferredCompressorPassesThroughUntilActivated(t *testing.T) {
	tx := newDeferredCompressor()
	in := []byte("some payload bytes")

	out, err := tx.compress(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != string(in) {
		t.Fatalf("expected pass-through before activation, got %q", out)
	}

	tx.activate()
	compressed, err := tx.compress(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(compressed) == string(in) {
		t.Fatal("expected zlib framing once activated")
	}
}

func TestNewCompressorKnowsEveryNegotiableName(t *testing.T) {
	for _, name := range []string{"none", "", "zlib", "zlib@openssh.com"} {
		if _, err := newCompressor(name); err != nil {
			t.Fatalf("newCompressor(%q): %v", name, err)
		}
	}
	if _, err := newCompressor("bzip2"); err == nil {
		t.Fatal("expected an error for an unimplemented algorithm")
	}
}

func TestCompressionPreferenceAlwaysContainsNone(t *testing.T) {
	got := compressionPreference([]string{"zlib"})
	if !nameListContains(got, "none") {
		t.Fatalf("compressionPreference(%v) = %v, missing required \"none\"", []string{"zlib"}, got)
	}

	got = compressionPreference([]string{"zlib", "none"})
	if len(got) != 2 {
		t.Fatalf("compressionPreference should not duplicate an already-present \"none\", got %v", got)
	}
}

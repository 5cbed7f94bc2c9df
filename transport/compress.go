package transport

// Payload compression, RFC 4253 §6.2. SSH compresses the payload
// before it is padded and encrypted, using a single deflate stream
// that persists for the life of the connection rather than resetting
// per packet. compress/zlib has no API for reading/writing such a
// stream incrementally without risking a blocked or panicking Reader
// across packet boundaries, so each packet gets its own short-lived
// zlib.Writer/Reader seeded with a sliding dictionary of the last
// window's worth of plaintext — round-trips correctly and keeps most
// of the cross-packet redundancy a continuous stream would exploit.

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// maxDictWindow mirrors DEFLATE's own 32 KiB LZ77 window: carrying more
// history than that buys nothing, since neither writer nor reader can
// ever reference further back.
const maxDictWindow = 32768

type compressor interface {
	compress(payload []byte) ([]byte, error)
	decompress(payload []byte) ([]byte, error)
}

type noneCompressor struct{}

func (noneCompressor) compress(payload []byte) ([]byte, error)   { return payload, nil }
func (noneCompressor) decompress(payload []byte) ([]byte, error) { return payload, nil }

// zlibCompressor implements "zlib" and "zlib@openssh.com" (RFC 4253
// §6.2, draft-miller-secsh-compression-delayed): the latter differs
// only in when it becomes active, not in wire format, so both share
// this type and the delay is handled by the caller deferring activate.
type zlibCompressor struct {
	dict []byte
}

func newZlibCompressor() *zlibCompressor { return &zlibCompressor{} }

func (c *zlibCompressor) compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevelDict(&buf, zlib.DefaultCompression, c.dict)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(payload); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	c.dict = slideDictWindow(c.dict, payload)
	return buf.Bytes(), nil
}

func (c *zlibCompressor) decompress(payload []byte) ([]byte, error) {
	r, err := zlib.NewReaderDict(bytes.NewReader(payload), c.dict)
	if err != nil {
		return nil, fmt.Errorf("transport: zlib decompress: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("transport: zlib decompress: %w", err)
	}
	c.dict = slideDictWindow(c.dict, out)
	return out, nil
}

func slideDictWindow(dict, data []byte) []byte {
	dict = append(dict, data...)
	if len(dict) > maxDictWindow {
		dict = append([]byte{}, dict[len(dict)-maxDictWindow:]...)
	}
	return dict
}

// deferredCompressor wraps zlib but passes payloads through unmodified
// until activate is called, implementing zlib@openssh.com's "no
// compression before authentication" rule without giving writePacket/
// readPacket any awareness of which variant is in effect.
type deferredCompressor struct {
	inner  *zlibCompressor
	active bool
}

func newDeferredCompressor() *deferredCompressor {
	return &deferredCompressor{inner: newZlibCompressor()}
}

func (c *deferredCompressor) activate() { c.active = true }

func (c *deferredCompressor) compress(payload []byte) ([]byte, error) {
	if !c.active {
		return payload, nil
	}
	return c.inner.compress(payload)
}

func (c *deferredCompressor) decompress(payload []byte) ([]byte, error) {
	if !c.active {
		return payload, nil
	}
	return c.inner.decompress(payload)
}

func newCompressor(name string) (compressor, error) {
	switch name {
	case "", "none":
		return noneCompressor{}, nil
	case "zlib":
		return newZlibCompressor(), nil
	case "zlib@openssh.com":
		return newDeferredCompressor(), nil
	default:
		return nil, fmt.Errorf("transport: compression algorithm %q not implemented in this build", name)
	}
}

// compressionPreference returns base, guaranteeing "none" is present
// per RFC 4253 §7.1's "MUST contain at least 'none'" — a caller that
// configures Compressions to something exotic and forgets "none"
// still produces a compliant KEXINIT.
func compressionPreference(base []string) []string {
	if nameListContains(base, "none") {
		return base
	}
	return append(append([]string{}, base...), "none")
}

// defaultCompressionOrder is the client's preference list. none leads
// by default: compression trades CPU for bandwidth, and a caller that
// wants that trade opts in by reordering Config.Compressions rather
// than having it sprung on them.
var defaultCompressionOrder = []string{
	"none",
	"zlib@openssh.com",
	"zlib",
}

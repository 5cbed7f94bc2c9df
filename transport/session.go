package transport

// Session is the transport-layer state machine: one per TCP (or
// alternate net.Conn) connection, owning the BPP codec, the single
// receive goroutine, and the registry of open channels. Its
// receive-loop-plus-waiters shape is the generalization of
// blitter.com/go/xs's xsnet.Conn, which assumes exactly one goroutine
// ever calls Read() on a connection; here that assumption is made
// explicit as recvLoop, and every blocking caller (KEX completion,
// auth replies, channel opens) registers a one-shot waiter instead of
// calling Read itself.

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Config is the negotiation-relevant subset of gossh.ClientConfig
// transport needs; the root package builds one from its own public
// config type. Kept separate so transport has no import of gossh.
type Config struct {
	KexAlgorithms    []string
	HostKeyAlgorithms []string
	Ciphers          []string
	MACs             []string
	Compressions     []string
	ClientVersion    string // e.g. "SSH-2.0-gossh_1.0"

	StrictKex bool

	RekeyBytes    int64
	RekeyInterval time.Duration

	KeepAliveInterval time.Duration

	HostKeyCallback func(hostname string, key []byte) error

	Trace func(direction string, msgType byte, payload []byte) // optional wire tracing hook, see gossh's logging.go
}

func DefaultConfig() *Config {
	return &Config{
		KexAlgorithms:     defaultKexOrder,
		HostKeyAlgorithms: defaultHostKeyOrder,
		Ciphers:           defaultCipherOrder,
		MACs:              defaultMACOrder,
		Compressions:      defaultCompressionOrder,
		ClientVersion:     "SSH-2.0-gossh_1.0",
		StrictKex:         true,
		RekeyBytes:        1 << 30, // 1 GiB, RFC 4253 §9 guidance
		RekeyInterval:     time.Hour,
	}
}

// waiter is a one-shot completion object a foreground caller parks on
// while recvLoop is the only goroutine reading the socket. Exactly the
// "receive loop + waiters" pattern from spec.md §9.
type waiter struct {
	ch  chan waiterResult
	once sync.Once
}

type waiterResult struct {
	msg message
	err error
}

func newWaiter() *waiter { return &waiter{ch: make(chan waiterResult, 1)} }

func (w *waiter) complete(msg message, err error) {
	w.once.Do(func() { w.ch <- waiterResult{msg, err} })
}

// Session is exported so gossh.Client can embed one; transport.Channel
// instances are obtained exclusively through Session.OpenChannel / the
// handler set with Session.SetForwardedChannelHandler, never
// constructed directly.
type Session struct {
	conn   net.Conn
	codec  *bppCodec
	config *Config

	sendMu sync.Mutex

	peerVersion []byte
	sessionID   []byte // immutable across re-keys, RFC 4253 §7.2

	bytesSinceRekey int64
	rekeyTimer      *time.Timer
	rekeyMu         sync.Mutex

	kexDone   chan struct{}
	kexWaiter *waiter

	authMu         sync.Mutex
	authWaiter     *waiter
	authExpectPKOK bool

	compressionActivated bool

	chansMu sync.Mutex
	chans   map[uint32]*Channel
	nextLocalID uint32

	globalReqMu sync.Mutex
	globalReqQueue []*waiter // FIFO, per spec.md §4.5 want_reply ordering

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error

	onDisconnect func(reasonCode uint32, description string)

	forwardedMu      sync.Mutex
	forwardedHandler func(typeSpecificData []byte) bool
	forwardedChans   chan *Channel

	keepAliveStop chan struct{}

	packetsSent, packetsRecv uint64
	metrics *Metrics
}

// NewSession wraps an already-dialed net.Conn (TCP, KCP, or anything
// else satisfying net.Conn) and drives the full handshake: version
// exchange, initial KEX, and returns once keys are installed and ready
// for SERVICE_REQUEST. The caller still owns conn's lifetime via Close.
func NewSession(ctx context.Context, conn net.Conn, config *Config) (*Session, error) {
	if config == nil {
		config = DefaultConfig()
	}
	s := &Session{
		conn:   conn,
		codec:  newBPPCodec(conn),
		config: config,
		chans:  make(map[uint32]*Channel),
		closed: make(chan struct{}),
	}
	if err := s.exchangeVersions(); err != nil {
		return nil, err
	}
	if err := s.performKex(ctx, true); err != nil {
		return nil, err
	}

	go s.recvLoop()

	if config.KeepAliveInterval > 0 {
		s.keepAliveStop = make(chan struct{})
		go s.keepAliveLoop(config.KeepAliveInterval)
	}
	return s, nil
}

// exchangeVersions implements RFC 4253 §4.2: each side sends a
// CR-LF-terminated identification line before any BPP framing begins.
func (s *Session) exchangeVersions() error {
	line := s.config.ClientVersion + "\r\n"
	if _, err := io.WriteString(s.conn, line); err != nil {
		return &ConnectionError{Op: "version exchange write", Err: err}
	}
	peer, err := readIdentificationLine(s.conn)
	if err != nil {
		return &ConnectionError{Op: "version exchange read", Err: err}
	}
	if len(peer) < 4 || string(peer[:4]) != "SSH-" {
		return &ProtocolError{Reason: DisconnectProtocolVersionNotSupported, Msg: "peer identification string malformed"}
	}
	s.peerVersion = peer
	return nil
}

func readIdentificationLine(r io.Reader) ([]byte, error) {
	var line []byte
	buf := make([]byte, 1)
	for i := 0; i < 255; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		if buf[0] == '\n' {
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			return line, nil
		}
		line = append(line, buf[0])
	}
	return nil, fmt.Errorf("transport: identification line too long")
}

// performKex runs one full KEXINIT exchange. initial distinguishes the
// first handshake (session_id is set from this run's H) from a re-key
// (session_id must never change, RFC 4253 §7.2).
func (s *Session) performKex(ctx context.Context, initial bool) error {
	advertisedKexAlgorithms := advertisedKexAlgorithmNames(s.config.KexAlgorithms, initial, s.config.StrictKex)
	myInit := &msgKexInitMsg{
		cookie:                    randomCookie(),
		kexAlgorithms:             advertisedKexAlgorithms,
		hostKeyAlgorithms:         s.config.HostKeyAlgorithms,
		ciphersClientToServer:     s.config.Ciphers,
		ciphersServerToClient:     s.config.Ciphers,
		macsClientToServer:        s.config.MACs,
		macsServerToClient:        s.config.MACs,
		compressionClientToServer: compressionPreference(s.config.Compressions),
		compressionServerToClient: compressionPreference(s.config.Compressions),
	}
	myInitBytes := myInit.marshal()
	if _, err := s.codec.writePacket(myInitBytes); err != nil {
		return err
	}

	peerPayload, err := s.codec.readPacket()
	if err != nil {
		return err
	}
	if len(peerPayload) < 1 || peerPayload[0] != msgKexInit {
		return &ProtocolError{Reason: DisconnectKeyExchangeFailed, Msg: "expected KEXINIT"}
	}
	peerInit := &msgKexInitMsg{}
	if err := peerInit.unmarshal(peerPayload); err != nil {
		return err
	}

	kexName, err := firstNameListMatch(s.config.KexAlgorithms, peerInit.kexAlgorithms)
	if err != nil {
		return &KexError{Msg: err.Error()}
	}

	// Strict KEX is a two-way negotiation, RFC-less but OpenSSH
	// convention: both the client's initial KEXINIT and the server's
	// must carry the matching pseudo-algorithm name before either side
	// may reset sequence numbers at NEWKEYS, and it is only ever
	// decided during the initial handshake (a re-key can't flip it).
	if initial {
		s.codec.strictKex = s.config.StrictKex && nameListContains(peerInit.kexAlgorithms, kexStrictServerExtension)
	}
	cipherName, err := firstNameListMatch(myInit.ciphersClientToServer, peerInit.ciphersClientToServer)
	if err != nil {
		return &KexError{Msg: err.Error()}
	}
	var macName string
	if !isAEADName(cipherName) {
		macName, err = firstNameListMatch(myInit.macsClientToServer, peerInit.macsClientToServer)
		if err != nil {
			return &KexError{Msg: err.Error()}
		}
	}
	compressionName, err := firstNameListMatch(myInit.compressionClientToServer, peerInit.compressionClientToServer)
	if err != nil {
		return &KexError{Msg: err.Error()}
	}

	kexAlg, err := newKexAlgorithm(kexName)
	if err != nil {
		return &KexError{Msg: err.Error()}
	}
	clientPub, err := kexAlg.clientInit()
	if err != nil {
		return err
	}
	if _, err := s.codec.writePacket((&msgKexDHInitMsg{e: clientPub}).marshal()); err != nil {
		return err
	}

	replyPayload, err := s.codec.readPacket()
	if err != nil {
		return err
	}
	if len(replyPayload) < 1 || replyPayload[0] != msgKexDHReply {
		return &ProtocolError{Reason: DisconnectKeyExchangeFailed, Msg: "expected KEX_DH_REPLY"}
	}
	reply := &msgKexDHReplyMsg{}
	if err := reply.unmarshal(replyPayload); err != nil {
		return err
	}

	if s.config.HostKeyCallback != nil {
		if err := s.config.HostKeyCallback("", reply.hostKey); err != nil {
			return &KexError{Msg: "host key rejected: " + err.Error()}
		}
	}

	K, err := kexAlg.clientFinish(reply.f)
	if err != nil {
		return &KexError{Msg: err.Error()}
	}

	hashFn := kexHash(kexName)
	H := exchangeHash(hashFn, []byte(s.config.ClientVersion), s.peerVersion, myInitBytes, peerPayload, reply.hostKey, clientPub, reply.f, K)

	if err := verifyHostKeySignature(reply.hostKey, reply.signature, H); err != nil {
		return err
	}

	if initial {
		s.sessionID = H
	}

	if _, err := s.codec.writePacket((&msgNewKeysMsg{}).marshal()); err != nil {
		return err
	}
	confirmPayload, err := s.codec.readPacket()
	if err != nil {
		return err
	}
	if len(confirmPayload) < 1 || confirmPayload[0] != msgNewKeys {
		return &ProtocolError{Reason: DisconnectKeyExchangeFailed, Msg: "expected NEWKEYS"}
	}

	return s.installKeys(hashFn, K, H, cipherName, macName, compressionName)
}

// addBytesTransferred tracks bytes sent through SendMessage for the
// rekey-by-volume trigger, spec.md §4.6; received bytes are not counted.
func (s *Session) addBytesTransferred(n int) {
	total := atomic.AddInt64(&s.bytesSinceRekey, int64(n))
	if s.config.RekeyBytes > 0 && total >= s.config.RekeyBytes {
		go s.triggerRekey()
	}
}

func (s *Session) triggerRekey() {
	s.rekeyMu.Lock()
	defer s.rekeyMu.Unlock()
	atomic.StoreInt64(&s.bytesSinceRekey, 0)
	if err := s.performKex(context.Background(), false); err == nil && s.metrics != nil {
		s.metrics.Rekeys.Inc()
	}
}

func (s *Session) keepAliveLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			pad := make([]byte, 1+randIntn(16))
			_, _ = rand.Read(pad[1:])
			pad[0] = msgIgnore
			_ = s.TrySendRaw(pad)
		case <-s.keepAliveStop:
			return
		case <-s.closed:
			return
		}
	}
}

func randIntn(n int) int {
	b := make([]byte, 1)
	_, _ = rand.Read(b)
	return int(b[0]) % n
}

// SendMessage writes one message, blocking until it is fully
// serialized onto the wire; it is the single atomic region spec.md §5
// describes (pad, cipher-advance, write, seq++) guarded by sendMu.
func (s *Session) SendMessage(payload []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	_, err := s.codec.writePacket(payload)
	if err == nil {
		s.addBytesTransferred(len(payload))
		if s.metrics != nil {
			s.metrics.PacketsSent.Inc()
		}
		if s.config.Trace != nil && len(payload) > 0 {
			s.config.Trace("send", payload[0], payload)
		}
	}
	return err
}

// TrySendRaw is SendMessage's non-blocking variant used only for
// keep-alive IGNORE traffic: if the send mutex is currently held by
// a real message, the keep-alive is simply skipped this tick rather
// than queuing, matching the teacher's chaffHelper's TrySend semantics.
func (s *Session) TrySendRaw(payload []byte) error {
	if !s.sendMu.TryLock() {
		return nil
	}
	defer s.sendMu.Unlock()
	_, err := s.codec.writePacket(payload)
	return err
}

// recvLoop is the sole goroutine that ever calls codec.readPacket.
// It dispatches decoded messages either to a waiting channel's inbox
// or to the relevant one-shot waiter (KEX, global request, auth).
func (s *Session) recvLoop() {
	defer close(s.closed)
	for {
		payload, err := s.codec.readPacket()
		if err != nil {
			s.closeErr = err
			return
		}
		atomic.AddUint64(&s.packetsRecv, 1)
		if s.metrics != nil {
			s.metrics.PacketsRecv.Inc()
		}
		if s.config.Trace != nil {
			s.config.Trace("recv", payload[0], payload)
		}
		if err := s.dispatch(payload); err != nil {
			s.closeErr = err
			return
		}
	}
}

func (s *Session) dispatch(payload []byte) error {
	switch payload[0] {
	case msgDisconnect:
		m := &msgDisconnectMsg{}
		_ = m.unmarshal(payload)
		if s.onDisconnect != nil {
			s.onDisconnect(m.reasonCode, m.description)
		}
		return fmt.Errorf("transport: peer disconnected (%d): %s", m.reasonCode, m.description)
	case msgIgnore, msgDebug, msgUnimplemented:
		return nil
	case msgKexInit:
		// Peer-initiated re-key: spec.md §4.3 requires any non-KEX
		// message during an in-flight KEX to be treated as fatal, but
		// a fresh KEXINIT arriving between re-keys is the normal
		// re-key-initiation path and is handled by performKex's own
		// read when triggerRekey is running concurrently; arriving
		// here (outside performKex) it must be answered in kind.
		go func() { _ = s.respondToPeerRekey(payload) }()
		return nil
	case msgChannelOpenConfirm, msgChannelOpenFailure, msgChannelWindowAdjust,
		msgChannelData, msgChannelExtendedData, msgChannelEOF, msgChannelClose,
		msgChannelRequest, msgChannelSuccess, msgChannelFailure, msgChannelOpen:
		return s.dispatchChannel(payload)
	case msgRequestSuccess, msgRequestFailure:
		return s.dispatchGlobalReply(payload)
	case msgGlobalRequest:
		return s.dispatchIncomingGlobalRequest(payload)
	default:
		return s.dispatchAuthOrUnknown(payload)
	}
}

func (s *Session) respondToPeerRekey(_ []byte) error {
	s.rekeyMu.Lock()
	defer s.rekeyMu.Unlock()
	return s.performKex(context.Background(), false)
}

// Close tears down the connection and every open channel exactly
// once, per spec.md's resource-lifecycle requirement.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.keepAliveStop != nil {
			close(s.keepAliveStop)
		}
		s.chansMu.Lock()
		for _, ch := range s.chans {
			ch.closeLocal()
		}
		s.chansMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.closed
	return s.closeErr
}

func (s *Session) SessionID() []byte { return s.sessionID }

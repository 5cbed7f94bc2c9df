package transport

// Channel multiplexing, RFC 4254 §5/§6. Window-based flow control and
// the half-close (EOF then CLOSE) model generalize the teacher's
// single-stream xsnet.Conn (which never multiplexed logical streams
// at all — one TCP connection was one logical session) into the real
// SSH model: many Channels share one Session's send mutex and receive
// loop, each with its own flow-controlled inbox.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

const (
	defaultWindowSize     = 1 << 20 // 1 MiB
	defaultMaxPacketSize  = 1 << 15 // 32 KiB, RFC 4254 §5.2 typical value
)

// ChannelRequest is a single named request/reply exchange on a
// channel (RFC 4254 §6.5/§6.7/§6.9/§6.10), e.g. "exec", "pty-req",
// "window-change", "exit-status".
type ChannelRequest struct {
	Type      string
	WantReply bool
	Payload   []byte
}

// Channel is the multiplexed logical stream. Reads/writes are safe
// for concurrent use by one reader and one writer goroutine (matching
// io.ReadWriteCloser conventions); channel requests (SendRequest) are
// separate from the data path, per spec.md §4.5.
type Channel struct {
	session *Session

	localID  uint32
	remoteID uint32

	localWindow  *windowCounter
	remoteWindow *windowCounter
	maxPacket    uint32

	incoming chan []byte
	incomingExt chan extendedData
	requests chan *ChannelRequest

	readBuf []byte

	mu         sync.Mutex
	eofSent    bool
	eofRecv    bool
	closeSent  bool
	closeRecv  bool
	closedCh   chan struct{}
	closeOnce  sync.Once

	exitStatus uint32
	hasExit    bool

	openWaiter   *waiter
	pendingReply *waiter

	// OpenData is the type-specific payload from the peer's
	// CHANNEL_OPEN (e.g. forwarded-tcpip's connected/originator
	// host+port, RFC 4254 §7), populated only for peer-initiated
	// channels delivered via Session.SetForwardedChannelHandler.
	OpenData []byte
}

type extendedData struct {
	typeCode uint32
	data     []byte
}

// windowCounter tracks one direction's flow-control window; spec.md
// §4.5 requires senders to block (not drop) when the window is
// exhausted, so reserve blocks until the peer raises the window again
// (add never blocks).
type windowCounter struct {
	mu   sync.Mutex
	cond *sync.Cond
	size uint32
}

func newWindowCounter(initial uint32) *windowCounter {
	w := &windowCounter{size: initial}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// reserve blocks until at least one byte of window is available or ctx
// is done, per spec.md §4.5's requirement that a blocked Write/OpenChannel
// be abandonable by its caller instead of hanging for the life of the
// process. sync.Cond has no native way to wake on a context, so a
// watcher goroutine broadcasts on cancellation to unstick the Wait; the
// woken loop then notices ctx's error and returns it instead of looping.
func (w *windowCounter) reserve(ctx context.Context, n uint32) (uint32, error) {
	if done := ctx.Done(); done != nil {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-done:
				w.cond.Broadcast()
			case <-stop:
			}
		}()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for w.size == 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		w.cond.Wait()
	}
	if n > w.size {
		n = w.size
	}
	w.size -= n
	return n, nil
}

func (w *windowCounter) add(n uint32) {
	w.mu.Lock()
	w.size += n
	w.mu.Unlock()
	w.cond.Broadcast()
}

// OpenChannel requests a new channel of the given type and blocks for
// the peer's OPEN_CONFIRMATION/OPEN_FAILURE, per RFC 4254 §5.1. The
// typeSpecificData is the per-type payload following the three
// standard fields (e.g. host/port for direct-tcpip). ctx governs only
// the wait for the peer's reply; a channel already opened by the time
// ctx is done is left open, not torn down.
func (s *Session) OpenChannel(ctx context.Context, channelType string, typeSpecificData []byte) (*Channel, error) {
	s.chansMu.Lock()
	localID := s.nextLocalID
	s.nextLocalID++
	ch := &Channel{
		session:      s,
		localID:      localID,
		localWindow:  newWindowCounter(defaultWindowSize),
		maxPacket:    defaultMaxPacketSize,
		incoming:     make(chan []byte, 16),
		incomingExt:  make(chan extendedData, 4),
		requests:     make(chan *ChannelRequest, 4),
		closedCh:     make(chan struct{}),
		openWaiter:   newWaiter(),
	}
	s.chans[localID] = ch
	s.chansMu.Unlock()

	open := &msgChannelOpenMsg{
		channelType:       channelType,
		senderChannel:     localID,
		initialWindowSize: defaultWindowSize,
		maximumPacketSize: defaultMaxPacketSize,
		typeSpecificData:  typeSpecificData,
	}
	if err := s.SendMessage(open.marshal()); err != nil {
		return nil, err
	}

	var res waiterResult
	select {
	case res = <-ch.openWaiter.ch:
	case <-ctx.Done():
		s.chansMu.Lock()
		delete(s.chans, localID)
		s.chansMu.Unlock()
		return nil, ctx.Err()
	}
	if res.err != nil {
		s.chansMu.Lock()
		delete(s.chans, localID)
		s.chansMu.Unlock()
		return nil, res.err
	}
	confirm := res.msg.(*msgChannelOpenConfirmMsg)
	ch.remoteID = confirm.senderChannel
	ch.remoteWindow = newWindowCounter(confirm.initialWindowSize)
	if confirm.maximumPacketSize < ch.maxPacket {
		ch.maxPacket = confirm.maximumPacketSize
	}
	return ch, nil
}

func (s *Session) dispatchChannel(payload []byte) error {
	msg, err := decodeMessage(payload)
	if err != nil {
		return err
	}
	var id uint32
	switch m := msg.(type) {
	case *msgChannelOpenConfirmMsg:
		id = m.recipientChannel
	case *msgChannelOpenFailureMsg:
		id = m.recipientChannel
	case *msgChannelWindowAdjustMsg:
		id = m.recipientChannel
	case *msgChannelDataMsg:
		id = m.recipientChannel
	case *msgChannelExtendedDataMsg:
		id = m.recipientChannel
	case *msgChannelEOFMsg:
		id = m.recipientChannel
	case *msgChannelCloseMsg:
		id = m.recipientChannel
	case *msgChannelRequestMsg:
		id = m.recipientChannel
	case *msgChannelSuccessMsg:
		id = m.recipientChannel
	case *msgChannelFailureMsg:
		id = m.recipientChannel
	case *msgChannelOpenMsg:
		return s.handlePeerChannelOpen(m)
	default:
		return fmt.Errorf("transport: unexpected channel message type")
	}

	s.chansMu.Lock()
	ch, ok := s.chans[id]
	s.chansMu.Unlock()
	if !ok {
		return nil // already closed locally; peer's trailing frames are not fatal
	}
	return ch.handle(msg)
}

// SetForwardedChannelHandler installs the predicate consulted for
// every peer-initiated "forwarded-tcpip" channel open (used for remote
// port forwarding, spec.md §4.5 supplement): returning true accepts
// the channel, which then arrives on the returned Go channel for the
// caller (forward.go's remote-forward listener) to Read/Write like any
// other Channel. Only one handler may be installed at a time; this
// mirrors blitter.com/go/xs's hkextun.go accepting exactly one style
// of inbound tunnel data per connection.
func (s *Session) SetForwardedChannelHandler(h func(typeSpecificData []byte) bool) <-chan *Channel {
	s.forwardedMu.Lock()
	s.forwardedHandler = h
	s.forwardedChans = make(chan *Channel, 8)
	ch := s.forwardedChans
	s.forwardedMu.Unlock()
	return ch
}

// handlePeerChannelOpen answers a server-initiated channel; anything
// other than an accepted "forwarded-tcpip" is refused per RFC 4254
// §5.1.
func (s *Session) handlePeerChannelOpen(m *msgChannelOpenMsg) error {
	s.forwardedMu.Lock()
	handler := s.forwardedHandler
	deliver := s.forwardedChans
	s.forwardedMu.Unlock()

	accepted := handler != nil && m.channelType == "forwarded-tcpip" && handler(m.typeSpecificData)
	if !accepted {
		fail := &msgChannelOpenFailureMsg{
			recipientChannel: m.senderChannel,
			reasonCode:       ChannelOpenUnknownChannelType,
			description:      "channel type not accepted",
		}
		return s.SendMessage(fail.marshal())
	}

	s.chansMu.Lock()
	localID := s.nextLocalID
	s.nextLocalID++
	ch := &Channel{
		session:      s,
		localID:      localID,
		remoteID:     m.senderChannel,
		localWindow:  newWindowCounter(defaultWindowSize),
		remoteWindow: newWindowCounter(m.initialWindowSize),
		maxPacket:    defaultMaxPacketSize,
		incoming:     make(chan []byte, 16),
		incomingExt:  make(chan extendedData, 4),
		requests:     make(chan *ChannelRequest, 4),
		closedCh:     make(chan struct{}),
		openWaiter:   newWaiter(),
		OpenData:     m.typeSpecificData,
	}
	if m.maximumPacketSize < ch.maxPacket {
		ch.maxPacket = m.maximumPacketSize
	}
	s.chans[localID] = ch
	s.chansMu.Unlock()

	confirm := &msgChannelOpenConfirmMsg{
		recipientChannel:  m.senderChannel,
		senderChannel:     localID,
		initialWindowSize: defaultWindowSize,
		maximumPacketSize: defaultMaxPacketSize,
	}
	if err := s.SendMessage(confirm.marshal()); err != nil {
		return err
	}
	deliver <- ch
	return nil
}

func (ch *Channel) handle(msg message) error {
	switch m := msg.(type) {
	case *msgChannelOpenConfirmMsg:
		ch.openWaiter.complete(m, nil)
	case *msgChannelOpenFailureMsg:
		ch.openWaiter.complete(nil, fmt.Errorf("transport: channel open failed (%d): %s", m.reasonCode, m.description))
	case *msgChannelWindowAdjustMsg:
		ch.remoteWindow.add(m.bytesToAdd)
	case *msgChannelDataMsg:
		n := uint32(len(m.data))
		ch.localWindow.mu.Lock()
		if n > ch.localWindow.size {
			ch.localWindow.mu.Unlock()
			return &ChannelError{ChannelID: ch.localID, Msg: "peer exceeded advertised window"}
		}
		ch.localWindow.size -= n
		ch.localWindow.mu.Unlock()
		select {
		case ch.incoming <- m.data:
		case <-ch.closedCh:
		}
	case *msgChannelExtendedDataMsg:
		select {
		case ch.incomingExt <- extendedData{m.dataTypeCode, m.data}:
		case <-ch.closedCh:
		}
	case *msgChannelEOFMsg:
		ch.mu.Lock()
		ch.eofRecv = true
		ch.mu.Unlock()
		close(ch.incoming)
	case *msgChannelCloseMsg:
		ch.mu.Lock()
		wasSent := ch.closeSent
		ch.closeRecv = true
		ch.mu.Unlock()
		if !wasSent {
			_ = ch.session.SendMessage((&msgChannelCloseMsg{recipientChannel: ch.remoteID}).marshal())
		}
		ch.closeLocal()
	case *msgChannelRequestMsg:
		if m.requestType == "exit-status" && len(m.data) >= 4 {
			status, _, _ := unmarshalUint32(m.data)
			ch.mu.Lock()
			ch.exitStatus, ch.hasExit = status, true
			ch.mu.Unlock()
		}
		select {
		case ch.requests <- &ChannelRequest{Type: m.requestType, WantReply: m.wantReply, Payload: m.data}:
		default:
		}
	case *msgChannelSuccessMsg:
		ch.mu.Lock()
		w := ch.pendingReply
		ch.pendingReply = nil
		ch.mu.Unlock()
		if w != nil {
			w.complete(m, nil)
		}
	case *msgChannelFailureMsg:
		ch.mu.Lock()
		w := ch.pendingReply
		ch.pendingReply = nil
		ch.mu.Unlock()
		if w != nil {
			w.complete(nil, fmt.Errorf("transport: channel request refused"))
		}
	}
	return nil
}

// Write sends data on the channel, blocking on flow control as needed
// and fragmenting to the peer's maxPacket, per RFC 4254 §5.2. It
// satisfies io.Writer (forward.go relies on io.Copy(ch, conn)) and
// cannot be cancelled; callers that need to abandon a blocked write,
// e.g. on caller-side timeout, should use WriteContext instead.
func (ch *Channel) Write(p []byte) (int, error) {
	return ch.WriteContext(context.Background(), p)
}

// WriteContext is Write with a context governing the flow-control wait:
// if ctx is done before the peer raises its window, WriteContext
// returns having sent only the bytes already written.
func (ch *Channel) WriteContext(ctx context.Context, p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		chunk := p
		if uint32(len(chunk)) > ch.maxPacket {
			chunk = chunk[:ch.maxPacket]
		}
		n, err := ch.remoteWindow.reserve(ctx, uint32(len(chunk)))
		if err != nil {
			return total, err
		}
		chunk = chunk[:n]
		msg := &msgChannelDataMsg{recipientChannel: ch.remoteID, data: chunk}
		if err := ch.session.SendMessage(msg.marshal()); err != nil {
			return total, err
		}
		total += len(chunk)
		p = p[len(chunk):]
	}
	return total, nil
}

// Read returns received channel data, returning io.EOF once the peer
// has sent CHANNEL_EOF and all buffered data is drained.
func (ch *Channel) Read(p []byte) (int, error) {
	for len(ch.readBuf) == 0 {
		data, ok := <-ch.incoming
		if !ok {
			return 0, io.EOF
		}
		ch.readBuf = data
	}
	n := copy(p, ch.readBuf)
	ch.readBuf = ch.readBuf[n:]
	if n > 0 {
		ch.localWindow.add(uint32(n))
	}
	return n, nil
}

// SendEOF half-closes the write side, RFC 4254 §5.3.
func (ch *Channel) SendEOF() error {
	ch.mu.Lock()
	if ch.eofSent {
		ch.mu.Unlock()
		return nil
	}
	ch.eofSent = true
	ch.mu.Unlock()
	return ch.session.SendMessage((&msgChannelEOFMsg{recipientChannel: ch.remoteID}).marshal())
}

// Close requests full channel close; the local channel number is not
// reused until both CLOSE messages have crossed (handle() above
// answers in kind on first receipt), per RFC 4254 §5.3.
func (ch *Channel) Close() error {
	ch.mu.Lock()
	alreadySent := ch.closeSent
	ch.closeSent = true
	ch.mu.Unlock()
	if alreadySent {
		return nil
	}
	return ch.session.SendMessage((&msgChannelCloseMsg{recipientChannel: ch.remoteID}).marshal())
}

func (ch *Channel) closeLocal() {
	ch.closeOnce.Do(func() {
		close(ch.closedCh)
		ch.session.chansMu.Lock()
		delete(ch.session.chans, ch.localID)
		ch.session.chansMu.Unlock()
	})
}

// SendRequest issues a channel request and, if wantReply is set,
// blocks for SUCCESS/FAILURE — FIFO per spec.md §4.5 because only one
// request-with-reply may be outstanding on a channel at a time in this
// implementation (matching RFC 4254 §4's ordering requirement).
func (ch *Channel) SendRequest(reqType string, wantReply bool, payload []byte) (bool, error) {
	msg := &msgChannelRequestMsg{recipientChannel: ch.remoteID, requestType: reqType, wantReply: wantReply, data: payload}
	if !wantReply {
		return false, ch.session.SendMessage(msg.marshal())
	}
	w := newWaiter()
	ch.mu.Lock()
	ch.pendingReply = w
	ch.mu.Unlock()
	if err := ch.session.SendMessage(msg.marshal()); err != nil {
		return false, err
	}
	res := <-w.ch
	return res.msg != nil, res.err
}

// ExitStatus returns the remote command's reported exit status and
// whether one has arrived yet (it may never arrive for a signalled
// process, RFC 4254 §6.10).
func (ch *Channel) ExitStatus() (status uint32, ok bool) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.exitStatus, ch.hasExit
}

var errChannelClosed = errors.New("transport: channel closed")

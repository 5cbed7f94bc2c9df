package transport

// Global requests, RFC 4254 §4: requests not scoped to any channel
// ("tcpip-forward", "cancel-tcpip-forward", ...). Replies are
// correlated FIFO since RFC 4254 requires replies in request order
// and carries no request ID of its own — the same want_reply ordering
// rule spec.md §4.5 calls out for channel requests.

import "fmt"

// SendGlobalRequest issues a global request and, if wantReply is set,
// blocks for the matching SUCCESS/FAILURE in FIFO order.
func (s *Session) SendGlobalRequest(name string, wantReply bool, data []byte) ([]byte, error) {
	msg := &msgGlobalRequestMsg{requestName: name, wantReply: wantReply, data: data}
	if !wantReply {
		return nil, s.SendMessage(msg.marshal())
	}
	w := newWaiter()
	s.globalReqMu.Lock()
	s.globalReqQueue = append(s.globalReqQueue, w)
	s.globalReqMu.Unlock()
	if err := s.SendMessage(msg.marshal()); err != nil {
		return nil, err
	}
	res := <-w.ch
	if res.err != nil {
		return nil, res.err
	}
	if success, ok := res.msg.(*msgRequestSuccessMsg); ok {
		return success.data, nil
	}
	return nil, nil
}

// dispatchIncomingGlobalRequest answers a peer-initiated GLOBAL_REQUEST
// (RFC 4254 §4). This client recognizes none (it only ever sends
// "tcpip-forward"/"cancel-tcpip-forward" itself, never serves them),
// so every request fails — but per RFC 4254 §4 and spec.md §4.5 that
// failure must be an explicit REQUEST_FAILURE when want_reply is set,
// not UNIMPLEMENTED or silence; want_reply unset means no reply at all.
func (s *Session) dispatchIncomingGlobalRequest(payload []byte) error {
	m := &msgGlobalRequestMsg{}
	if err := m.unmarshal(payload); err != nil {
		return err
	}
	if !m.wantReply {
		return nil
	}
	fail := &msgRequestFailureMsg{}
	return s.SendMessage(fail.marshal())
}

func (s *Session) dispatchGlobalReply(payload []byte) error {
	msg, err := decodeMessage(payload)
	if err != nil {
		return err
	}
	s.globalReqMu.Lock()
	if len(s.globalReqQueue) == 0 {
		s.globalReqMu.Unlock()
		return fmt.Errorf("transport: unexpected global request reply with no outstanding request")
	}
	w := s.globalReqQueue[0]
	s.globalReqQueue = s.globalReqQueue[1:]
	s.globalReqMu.Unlock()

	switch payload[0] {
	case msgRequestSuccess:
		w.complete(msg, nil)
	case msgRequestFailure:
		w.complete(nil, fmt.Errorf("transport: global request refused"))
	}
	return nil
}

// dispatchAuthOrUnknown handles RFC 4252 authentication replies and the
// SERVICE_ACCEPT that precedes them (the auth package in gossh drives
// the request side; Session only routes the responses to whichever
// waiter auth.go registered) and anything
// else this build doesn't recognize, which becomes UNIMPLEMENTED per
// RFC 4253 §11.4 rather than a fatal error.
func (s *Session) dispatchAuthOrUnknown(payload []byte) error {
	switch payload[0] {
	case msgServiceAccept, msgUserAuthFailure, msgUserAuthSuccess, msgUserAuthBanner,
		msgUserAuthInfoRequest:
		s.authMu.Lock()
		w := s.authWaiter
		pkok := s.authExpectPKOK
		s.authWaiter = nil
		s.authMu.Unlock()
		if w == nil {
			return nil
		}
		// RFC 4252 §7 and RFC 4256 §3.2 both claim message number 60;
		// which one a reply actually is depends on which method the
		// pending request used, not on the byte itself, so the auth
		// driver tells us via SetExpectPKOK before sending a publickey
		// probe.
		if payload[0] == msgUserAuthInfoRequest && pkok {
			w.complete(&rawMessage{t: msgUserAuthPKOK, body: payload[1:]}, nil)
			return nil
		}
		msg, err := decodeMessage(payload)
		w.complete(msg, err)
		return nil
	default:
		unimpl := marshalUint32([]byte{msgUnimplemented}, s.codec.rx.seq-1)
		return s.SendMessage(unimpl)
	}
}

// SetExpectPKOK must be called (with true) immediately before sending
// a publickey probe request and (with false) before any other
// USERAUTH_REQUEST, so dispatchAuthOrUnknown can disambiguate message
// number 60 between PK_OK and an INFO_REQUEST.
func (s *Session) SetExpectPKOK(v bool) {
	s.authMu.Lock()
	s.authExpectPKOK = v
	s.authMu.Unlock()
}

// ActivateDeferredCompression must be called once USERAUTH_SUCCESS has
// been observed: it is the auth package's hook for turning on
// zlib@openssh.com compression, which RFC-draft convention holds off
// until authentication completes. A no-op under plain "zlib" or "none"
// (their compressors are never deferred) and idempotent across
// re-keys, since installKeys rebuilds compressor state from scratch on
// every NEWKEYS but remembers that this call already happened.
func (s *Session) ActivateDeferredCompression() {
	s.authMu.Lock()
	s.compressionActivated = true
	s.authMu.Unlock()
	if d, ok := s.codec.tx.compress.(*deferredCompressor); ok {
		d.activate()
	}
	if d, ok := s.codec.rx.compress.(*deferredCompressor); ok {
		d.activate()
	}
}

// SendAuthMessage is the auth package's hook into the shared receive
// loop: it sends a USERAUTH_REQUEST (or INFO_RESPONSE) and blocks for
// the single reply the protocol guarantees follows it.
func (s *Session) SendAuthMessage(payload []byte) (message, error) {
	w := newWaiter()
	s.authMu.Lock()
	s.authWaiter = w
	s.authMu.Unlock()
	if err := s.SendMessage(payload); err != nil {
		return nil, err
	}
	res := <-w.ch
	return res.msg, res.err
}

package transport

import "testing"

// net.Pipe is synchronous: a Write blocks until the peer's Read
// consumes it. handlePeerChannelOpen writes its reply before
// returning, so it must run concurrently with the read that consumes
// that reply rather than before it.

func TestHandlePeerChannelOpenRejectsWithoutHandler(t *testing.T) {
	client, server := newTestSessionPair(t)

	msg := &msgChannelOpenMsg{
		channelType:       "forwarded-tcpip",
		senderChannel:     7,
		initialWindowSize: defaultWindowSize,
		maximumPacketSize: defaultMaxPacketSize,
	}
	errc := make(chan error, 1)
	go func() { errc <- server.handlePeerChannelOpen(msg) }()

	got, err := readTestMessage(t, client)
	if err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}

	fail, ok := got.(*msgChannelOpenFailureMsg)
	if !ok {
		t.Fatalf("got %T, want *msgChannelOpenFailureMsg", got)
	}
	if fail.recipientChannel != 7 {
		t.Fatalf("recipientChannel = %d, want 7", fail.recipientChannel)
	}
}

func TestHandlePeerChannelOpenAcceptsForwardedTCPIP(t *testing.T) {
	client, server := newTestSessionPair(t)
	incoming := server.SetForwardedChannelHandler(func(data []byte) bool { return true })

	openData := []byte("forwarded-tcpip payload")
	msg := &msgChannelOpenMsg{
		channelType:       "forwarded-tcpip",
		senderChannel:     3,
		initialWindowSize: defaultWindowSize,
		maximumPacketSize: defaultMaxPacketSize,
		typeSpecificData:  openData,
	}
	errc := make(chan error, 1)
	go func() { errc <- server.handlePeerChannelOpen(msg) }()

	got, err := readTestMessage(t, client)
	if err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}

	confirm, ok := got.(*msgChannelOpenConfirmMsg)
	if !ok {
		t.Fatalf("got %T, want *msgChannelOpenConfirmMsg", got)
	}
	if confirm.recipientChannel != 3 {
		t.Fatalf("recipientChannel = %d, want 3", confirm.recipientChannel)
	}

	select {
	case ch := <-incoming:
		if string(ch.OpenData) != string(openData) {
			t.Fatalf("OpenData = %q, want %q", ch.OpenData, openData)
		}
	default:
		t.Fatal("expected the accepted channel to be delivered on the handler's channel")
	}
}

func TestHandlePeerChannelOpenRejectsUnrecognizedTypeEvenWithHandler(t *testing.T) {
	client, server := newTestSessionPair(t)
	server.SetForwardedChannelHandler(func(data []byte) bool { return true })

	msg := &msgChannelOpenMsg{
		channelType:       "session",
		senderChannel:     9,
		initialWindowSize: defaultWindowSize,
		maximumPacketSize: defaultMaxPacketSize,
	}
	errc := make(chan error, 1)
	go func() { errc <- server.handlePeerChannelOpen(msg) }()

	got, err := readTestMessage(t, client)
	if err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}

	if _, ok := got.(*msgChannelOpenFailureMsg); !ok {
		t.Fatalf("got %T, want *msgChannelOpenFailureMsg", got)
	}
}

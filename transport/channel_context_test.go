package transport

import (
	"context"
	"testing"
	"time"
)

// TestOpenChannelUnblocksOnContextCancel confirms a caller stuck waiting
// for OPEN_CONFIRMATION (e.g. a peer that accepted the TCP connection
// but never answers CHANNEL_OPEN) can abandon the call via ctx instead
// of hanging until the socket itself errors out.
func TestOpenChannelUnblocksOnContextCancel(t *testing.T) {
	client, server := newTestSessionPair(t)

	// Drain the CHANNEL_OPEN request so SendMessage doesn't block on the
	// net.Pipe write, then go silent — server never answers.
	go func() {
		_, _ = readTestMessage(t, server)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.OpenChannel(ctx, "session", nil)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("OpenChannel returned before the context was cancelled")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected OpenChannel to report the cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("OpenChannel never unblocked after context cancel")
	}

	if len(client.chans) != 0 {
		t.Fatalf("expected the abandoned channel to be removed from the registry, got %d entries", len(client.chans))
	}
}

// TestChannelWriteContextUnblocksOnContextCancel confirms a Write stuck
// on an exhausted flow-control window can be abandoned via WriteContext
// instead of hanging until the peer raises the window.
func TestChannelWriteContextUnblocksOnContextCancel(t *testing.T) {
	sess := &Session{chans: make(map[uint32]*Channel)}
	ch := &Channel{
		session:      sess,
		closedCh:     make(chan struct{}),
		remoteWindow: newWindowCounter(0),
		maxPacket:    defaultMaxPacketSize,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := ch.WriteContext(ctx, []byte("hello"))
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("WriteContext returned before the context was cancelled")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected WriteContext to report the cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("WriteContext never unblocked after context cancel")
	}
}

package transport

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestWindowCounterReserveBlocksUntilAdd(t *testing.T) {
	w := newWindowCounter(0)
	done := make(chan uint32, 1)
	go func() {
		n, err := w.reserve(context.Background(), 10)
		if err != nil {
			t.Error(err)
		}
		done <- n
	}()

	select {
	case <-done:
		t.Fatal("reserve returned before window was replenished")
	case <-time.After(20 * time.Millisecond):
	}

	w.add(10)
	select {
	case n := <-done:
		if n != 10 {
			t.Fatalf("got %d want 10", n)
		}
	case <-time.After(time.Second):
		t.Fatal("reserve never unblocked after add")
	}
}

func TestWindowCounterReserveCapsAtAvailable(t *testing.T) {
	w := newWindowCounter(5)
	n, err := w.reserve(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("got %d want 5", n)
	}
}

func TestWindowCounterReserveUnblocksOnContextCancel(t *testing.T) {
	w := newWindowCounter(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := w.reserve(ctx, 10)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("reserve returned before cancellation")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected reserve to report the cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("reserve never unblocked after context cancel")
	}
}

func TestChannelHandleExitStatus(t *testing.T) {
	ch := &Channel{
		closedCh: make(chan struct{}),
		requests: make(chan *ChannelRequest, 1),
	}
	payload := marshalUint32(nil, 42)
	msg := &msgChannelRequestMsg{requestType: "exit-status", data: payload}
	if err := ch.handle(msg); err != nil {
		t.Fatal(err)
	}
	status, ok := ch.ExitStatus()
	if !ok || status != 42 {
		t.Fatalf("got status=%d ok=%v want 42/true", status, ok)
	}
}

func TestChannelHandleWindowAdjust(t *testing.T) {
	ch := &Channel{
		closedCh:     make(chan struct{}),
		remoteWindow: newWindowCounter(0),
	}
	if err := ch.handle(&msgChannelWindowAdjustMsg{bytesToAdd: 100}); err != nil {
		t.Fatal(err)
	}
	n, err := ch.remoteWindow.reserve(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 100 {
		t.Fatalf("got %d want 100", n)
	}
}

func TestChannelCloseIsIdempotent(t *testing.T) {
	var wg sync.WaitGroup
	sess := &Session{chans: make(map[uint32]*Channel)}
	ch := &Channel{closedCh: make(chan struct{}), session: sess, localID: 1}
	sess.chans[1] = ch
	ch.closeLocal()
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch.closeLocal()
		}()
	}
	wg.Wait()
	select {
	case <-ch.closedCh:
	default:
		t.Fatal("expected closedCh to be closed")
	}
}

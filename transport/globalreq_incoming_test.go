package transport

import "testing"

// Acceptance scenario: an unrecognized incoming GLOBAL_REQUEST with
// want_reply=true gets exactly one REQUEST_FAILURE in response, never
// a disconnect and never UNIMPLEMENTED.
func TestDispatchIncomingGlobalRequestRepliesFailureWhenReplyWanted(t *testing.T) {
	client, server := newTestSessionPair(t)

	req := &msgGlobalRequestMsg{requestName: "something-unknown@example.com", wantReply: true}
	errc := make(chan error, 1)
	go func() { errc <- server.dispatch(req.marshal()) }()

	got, err := readTestMessage(t, client)
	if err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(*msgRequestFailureMsg); !ok {
		t.Fatalf("got %T, want *msgRequestFailureMsg", got)
	}
}

func TestDispatchIncomingGlobalRequestNoReplyWhenNotWanted(t *testing.T) {
	client, server := newTestSessionPair(t)
	_ = client

	req := &msgGlobalRequestMsg{requestName: "something-unknown@example.com", wantReply: false}
	if err := server.dispatch(req.marshal()); err != nil {
		t.Fatal(err)
	}
	// Nothing was sent: follow up with a request that does want a
	// reply and confirm that's the only message observed.
	req2 := &msgGlobalRequestMsg{requestName: "also-unknown@example.com", wantReply: true}
	errc := make(chan error, 1)
	go func() { errc <- server.dispatch(req2.marshal()) }()

	got, err := readTestMessage(t, client)
	if err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(*msgRequestFailureMsg); !ok {
		t.Fatalf("got %T, want *msgRequestFailureMsg", got)
	}
}

package gossh

import "testing"

func TestTerminalSizeFallsBackWhenNotATerminal(t *testing.T) {
	// A bogus fd is never a terminal in a headless test environment,
	// so TerminalSize must fall back to the same 80x24 default
	// ptyRequestPayload used before TerminalSize existed.
	const bogusFD = 999999
	if IsTerminal(bogusFD) {
		t.Fatal("expected a bogus fd to not be reported as a terminal")
	}
	w, h := TerminalSize(bogusFD)
	if w != 80 || h != 24 {
		t.Fatalf("got %dx%d, want the 80x24 fallback", w, h)
	}
}

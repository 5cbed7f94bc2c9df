package gossh

// Terminal-detection helpers for callers deciding whether to request a
// PTY at all (ExecRequest.PTY) and what size to ask for. Generalizes
// blitter.com/go/xs's xs/termsize_unix.go (a raw TIOCGWINSZ ioctl
// hand-rolled per build tag) to golang.org/x/term's already
// cross-platform GetSize, and uses go-isatty — a real dependency of
// the teacher's module never actually called from its own source —
// for the IsTerminal check GetSize needs before it's meaningful to
// call at all (a redirected pipe has no window size).

import (
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// IsTerminal reports whether fd refers to an interactive terminal,
// the precondition for both TerminalSize and ReadPassword being
// meaningful.
func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// TerminalSize returns fd's current width/height in characters, or
// 80x24 if fd is not a terminal or the ioctl fails — the same
// fallback ptyRequestPayload used before this existed.
func TerminalSize(fd uintptr) (width, height int) {
	if !IsTerminal(fd) {
		return 80, 24
	}
	w, h, err := term.GetSize(int(fd))
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

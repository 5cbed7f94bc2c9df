package gossh

import "testing"

func TestMessageNameKnownTypes(t *testing.T) {
	cases := map[byte]string{
		20: "KEXINIT",
		21: "NEWKEYS",
		50: "USERAUTH_REQUEST",
		94: "CHANNEL_DATA",
	}
	for id, want := range cases {
		if got := messageName(id); got != want {
			t.Fatalf("messageName(%d) = %q, want %q", id, got, want)
		}
	}
}

func TestMessageNameDualMeaningCodepoints(t *testing.T) {
	// 30/31 and 60 are deliberately ambiguous at the wire-format level;
	// messageName documents both possible meanings rather than guessing.
	if got := messageName(30); got != "KEXDH_INIT/KEX_HYBRID_INIT" {
		t.Fatalf("messageName(30) = %q", got)
	}
	if got := messageName(60); got != "USERAUTH_PK_OK/USERAUTH_INFO_REQUEST" {
		t.Fatalf("messageName(60) = %q", got)
	}
}

func TestMessageNameUnknownType(t *testing.T) {
	if got := messageName(255); got != "type-255" {
		t.Fatalf("messageName(255) = %q, want type-255", got)
	}
}

func TestSyslogTraceDoesNotPanicWithoutASyslogConnection(t *testing.T) {
	// logger.LogDebug no-ops when logger.New was never called, so
	// SyslogTrace must be safe to install even when a caller never
	// opens a real syslog writer.
	trace := SyslogTrace()
	trace("send", 20, []byte{1, 2, 3})
}

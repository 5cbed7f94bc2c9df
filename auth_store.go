package gossh

// CredentialStore is a local-secrets helper for building AuthMethod
// values from files on disk — it is never consulted by the wire
// protocol itself (auth.go drives RFC 4252 directly against whatever
// AuthMethod the caller supplies); it exists only so a CLI or test
// harness built on this package doesn't need to hand-roll the same
// bcrypt/passlib file parsing blitter.com/go/xs's auth.go did for its
// server-side AuthUserByPasswd/AuthUserByToken.
//
// The teacher's AuthCtx{reader, userlookup} dependency-injection
// pattern is kept verbatim in shape (a struct holding a swappable
// reader func, supplied by the caller) since it is exactly what makes
// AuthUserByPasswd/AuthUserByToken-style code testable without a real
// filesystem or /etc/passwd, which this package's own test style
// (hand-rolled testing.T, no assertion library) depends on just as
// much as the teacher's auth_test.go did.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/jameskeane/bcrypt"
	passlib "gopkg.in/hlandau/passlib.v1"
)

// CredentialStore reads a local secrets file in the xs.passwd format
// (username:salt:bcryptHash, one user per line) and a per-host token
// file in the .xs_id format (connhost:token, one host per line).
type CredentialStore struct {
	// reader is supplied by NewCredentialStore; with a nil reader every
	// lookup returns an error.
	reader func(path string) ([]byte, error)
}

// NewCredentialStore returns a store that reads files through reader
// (os.ReadFile for the real filesystem, a fake in tests).
func NewCredentialStore(reader func(path string) ([]byte, error)) *CredentialStore {
	return &CredentialStore{reader: reader}
}

// PasswordFor looks up username's bcrypt-hashed line in fname and
// verifies candidate against it, the client-side mirror of
// AuthUserByPasswd's verification step (this package never stores
// candidate itself, only confirms it matches before handing it to
// Password()).
func (s *CredentialStore) PasswordFor(username, candidate, fname string) (bool, error) {
	if s.reader == nil {
		return false, errors.New("gossh: CredentialStore has no reader configured")
	}
	b, err := s.reader(fname)
	if err != nil {
		return false, err
	}
	defer scrub(b)

	r := csv.NewReader(bytes.NewReader(b))
	r.Comma = ':'
	r.Comment = '#'
	r.FieldsPerRecord = 3
	for {
		record, err := r.Read()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if record[0] != username {
			continue
		}
		hashed, err := bcrypt.Hash(candidate, record[1])
		if err != nil {
			return false, err
		}
		return hashed == record[2], nil
	}
}

// TokenFor looks up connhost's saved token in fname (the .xs_id
// format: connhost:token per line) for hosts where the caller wants to
// reuse a previously issued token instead of prompting again.
func (s *CredentialStore) TokenFor(connhost, fname string) (string, error) {
	if s.reader == nil {
		return "", errors.New("gossh: CredentialStore has no reader configured")
	}
	b, err := s.reader(fname)
	if err != nil {
		return "", err
	}
	defer scrub(b)

	r := csv.NewReader(bytes.NewReader(b))
	r.Comma = ':'
	r.Comment = '#'
	r.FieldsPerRecord = 2
	for {
		record, err := r.Read()
		if err == io.EOF {
			return "", errors.New("gossh: no token recorded for host " + connhost)
		}
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(record[0]) == connhost {
			return strings.TrimSpace(record[1]), nil
		}
	}
}

// VerifyLocalPassphrase checks candidate against a passlib hash
// (RFC-independent — used to gate unlocking a local private key
// passphrase, not wire auth), the client-side analogue of VerifyPass's
// passlib.VerifyNoUpgrade call against a system shadow entry.
func VerifyLocalPassphrase(candidate, hash string) (bool, error) {
	passlib.UseDefaults(passlib.Defaults20180601)
	if err := passlib.VerifyNoUpgrade(candidate, hash); err != nil {
		return false, err
	}
	return true, nil
}

func scrub(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

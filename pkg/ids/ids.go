// Package ids generates the external references handed to callers.
package ids

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewReference returns a lexicographically sortable, lower-case reference.
// References generated later in the same process always sort after earlier ones.
func NewReference() string {
	return NewReferenceAt(time.Now())
}

// NewReferenceAt returns a reference whose time component is t.
func NewReferenceAt(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// Valid reports whether s parses as a reference.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(strings.ToUpper(s))
	return err == nil
}

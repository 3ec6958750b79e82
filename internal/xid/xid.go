// Package xid generates opaque, time-derived identifiers for ledger records.
// Ids sort roughly by creation time and are never reused.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// New returns an id of the form prefix-<base36 unix nanos>-<random hex>.
func New(prefix string) string {
	ts := strconv.FormatInt(time.Now().UnixNano(), 36)
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// Timestamp alone still satisfies uniqueness for a single process.
		return prefix + "-" + ts
	}
	return prefix + "-" + ts + "-" + hex.EncodeToString(buf)
}

package order

import (
	"crypto/rand"
	"encoding/base32"
	"time"
)

// NumberFunc produces a human-readable order number for the given time.
type NumberFunc func(now time.Time) string

var numberEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewOrderNumber returns ORD-YYYYMMDD-XXXXXX: the UTC day followed by six
// random base-32 characters.
func NewOrderNumber(now time.Time) string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return "ORD-" + now.UTC().Format("20060102") + "-" + numberEncoding.EncodeToString(b[:])[:6]
}

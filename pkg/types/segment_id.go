package types

import (
	"bytes"
	"crypto/rand"
	"errors"
	"sync"
	"time"
)

// SegmentID is a ULID: 48 bits of millisecond timestamp followed by 80 random
// bits. Segment identifiers sort lexicographically in creation order, so the
// on-disk spool and the upload catalog stay time-ordered for free.
type SegmentID [16]byte

var (
	ErrInvalidSegmentIDLength    = errors.New("segment id must be 26 characters")
	ErrInvalidSegmentIDCharacter = errors.New("segment id contains invalid character")
)

// Crockford's Base32 alphabet (no I, L, O, U).
const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// SegmentIDGenerator produces time-ordered segment identifiers. Identifiers
// generated within the same millisecond are monotonically increasing.
type SegmentIDGenerator struct {
	mu       sync.Mutex
	lastMs   uint64
	lastRand [10]byte
}

// NewSegmentIDGenerator creates a new generator.
func NewSegmentIDGenerator() *SegmentIDGenerator {
	return &SegmentIDGenerator{}
}

// Generate creates a new identifier stamped with the current time.
func (g *SegmentIDGenerator) Generate() (SegmentID, error) {
	return g.GenerateWithTime(time.Now())
}

// GenerateWithTime creates a new identifier stamped with the given time.
func (g *SegmentIDGenerator) GenerateWithTime(t time.Time) (SegmentID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := uint64(t.UnixMilli())

	var id SegmentID
	for i := 0; i < 6; i++ {
		id[i] = byte(ms >> (40 - 8*i))
	}

	if ms == g.lastMs {
		// Same millisecond: bump the random tail so ordering holds.
		for i := 9; i >= 0; i-- {
			g.lastRand[i]++
			if g.lastRand[i] != 0 {
				break
			}
		}
	} else {
		if _, err := rand.Read(g.lastRand[:]); err != nil {
			return SegmentID{}, err
		}
		g.lastMs = ms
	}
	copy(id[6:], g.lastRand[:])

	return id, nil
}

// Timestamp returns the embedded timestamp as unix milliseconds.
func (id SegmentID) Timestamp() uint64 {
	var ms uint64
	for i := 0; i < 6; i++ {
		ms = ms<<8 | uint64(id[i])
	}
	return ms
}

// Time returns the embedded timestamp as a time.Time.
func (id SegmentID) Time() time.Time {
	return time.UnixMilli(int64(id.Timestamp()))
}

// Compare orders two identifiers lexicographically.
func (id SegmentID) Compare(other SegmentID) int {
	return bytes.Compare(id[:], other[:])
}

// String encodes the identifier as a 26-character Crockford Base32 string:
// 10 characters of timestamp, 16 of randomness.
func (id SegmentID) String() string {
	var buf [26]byte

	ts := id.Timestamp()
	for i := 9; i >= 0; i-- {
		buf[i] = crockfordBase32[ts&31]
		ts >>= 5
	}

	// The 80 random bits as a two-word big-endian value.
	var hi, lo uint64
	for _, b := range id[6:8] {
		hi = hi<<8 | uint64(b)
	}
	for _, b := range id[8:16] {
		lo = lo<<8 | uint64(b)
	}
	for i := 25; i >= 10; i-- {
		buf[i] = crockfordBase32[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}

	return string(buf[:])
}

// ParseSegmentID decodes a 26-character Crockford Base32 string.
func ParseSegmentID(s string) (SegmentID, error) {
	if len(s) != 26 {
		return SegmentID{}, ErrInvalidSegmentIDLength
	}

	var digits [26]byte
	for i := 0; i < 26; i++ {
		d := decodeCrockford(s[i])
		if d == 0xFF {
			return SegmentID{}, ErrInvalidSegmentIDCharacter
		}
		digits[i] = d
	}

	var id SegmentID

	var ts uint64
	for i := 0; i < 10; i++ {
		ts = ts<<5 | uint64(digits[i])
	}
	for i := 0; i < 6; i++ {
		id[i] = byte(ts >> (40 - 8*i))
	}

	var hi, lo uint64
	for i := 10; i < 26; i++ {
		hi = hi<<5 | lo>>59
		lo = lo<<5 | uint64(digits[i])
	}
	id[6] = byte(hi >> 8)
	id[7] = byte(hi)
	for i := 0; i < 8; i++ {
		id[8+i] = byte(lo >> (56 - 8*i))
	}

	return id, nil
}

// decodeCrockford maps one Base32 character to its value, 0xFF if invalid.
// Lowercase is accepted; the confusable letters I, L, O, U are not.
func decodeCrockford(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'z':
		c -= 'a' - 'A'
	}
	switch {
	case c >= 'A' && c <= 'H':
		return c - 'A' + 10
	case c == 'J' || c == 'K':
		return c - 'J' + 18
	case c == 'M' || c == 'N':
		return c - 'M' + 20
	case c >= 'P' && c <= 'T':
		return c - 'P' + 22
	case c >= 'V' && c <= 'Z':
		return c - 'V' + 27
	default:
		return 0xFF
	}
}

package uuid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	googleuuid "github.com/google/uuid"
)

// generator hands out UUIDv7 values that sort in creation order even when
// several are produced within the same millisecond. The 12-bit rand_a field
// carries a counter that is reseeded whenever the clock advances (RFC 9562,
// section 6.2, method 1).
type generator struct {
	mu      sync.Mutex
	lastMS  uint64
	counter uint16
	now     func() time.Time
}

var defaultGenerator = &generator{now: time.Now}

// New generates a new time-ordered UUIDv7 string.
//
// Layout:
//   - 48 bits: Unix timestamp in milliseconds
//   - 4 bits: version (0111)
//   - 12 bits: monotonic counter
//   - 2 bits: variant (10)
//   - 62 bits: random data
func New() string {
	return defaultGenerator.next()
}

func (g *generator) next() string {
	var u [16]byte
	if _, err := rand.Read(u[8:]); err != nil {
		return googleuuid.New().String()
	}

	g.mu.Lock()
	ms := uint64(g.now().UnixMilli())
	switch {
	case ms > g.lastMS:
		g.lastMS = ms
		// Start low in the counter space so a burst has room to grow.
		g.counter = binary.BigEndian.Uint16(u[8:10]) & 0x01ff
	case g.counter < 0x0fff:
		g.counter++
	default:
		// Counter exhausted: borrow the next millisecond.
		g.lastMS++
		g.counter = 0
	}
	ms, seq := g.lastMS, g.counter
	g.mu.Unlock()

	binary.BigEndian.PutUint64(u[0:8], ms<<16)
	u[6] = 0x70 | byte(seq>>8)
	u[7] = byte(seq)
	u[8] = (u[8] & 0x3f) | 0x80

	return formatUUID(u)
}

// formatUUID formats a 16-byte array as a UUID string
func formatUUID(u [16]byte) string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		binary.BigEndian.Uint32(u[0:4]),
		binary.BigEndian.Uint16(u[4:6]),
		binary.BigEndian.Uint16(u[6:8]),
		binary.BigEndian.Uint16(u[8:10]),
		u[10:16],
	)
}

// Parse validates and normalizes a UUID string
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}

package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TraceIDLength is the length of a W3C-compliant trace ID (32 hex chars = 16 bytes)
const TraceIDLength = 16

// SpanIDLength is the length of a W3C-compliant span ID (16 hex chars = 8 bytes)
const SpanIDLength = 8

var (
	randReader = rand.Reader

	// spanIDPool reuses buffers for span ID generation (8 bytes)
	spanIDPool = sync.Pool{
		New: func() any {
			b := make([]byte, SpanIDLength)
			return &b
		},
	}
)

// NewTraceID generates a new W3C-compliant trace ID (32 hex characters)
// from a random UUID. A zero UUID is never returned.
func NewTraceID() string {
	u, err := uuid.NewRandomFromReader(randReader)
	if err != nil {
		// Fallback to time-based ID if random fails
		return fmt.Sprintf("%016x%016x", time.Now().UnixNano(), time.Now().UnixNano()|1)
	}
	return hex.EncodeToString(u[:])
}

// NewSpanID generates a new W3C-compliant span ID (16 hex characters)
func NewSpanID() string {
	bufPtr := spanIDPool.Get().(*[]byte)
	defer spanIDPool.Put(bufPtr)
	buf := *bufPtr

	if _, err := randReader.Read(buf); err != nil {
		// Fallback to time-based ID if random fails
		return fmt.Sprintf("%016x", time.Now().UnixNano()|1)
	}

	return hex.EncodeToString(buf)
}

// ValidateTraceID validates a trace ID format: 32 lowercase hex characters,
// not all zeros
func ValidateTraceID(id string) bool {
	return validateHex(id, 2*TraceIDLength)
}

// ValidateSpanID validates a span ID format: 16 lowercase hex characters,
// not all zeros
func ValidateSpanID(id string) bool {
	return validateHex(id, 2*SpanIDLength)
}

func validateHex(id string, n int) bool {
	if len(id) != n || id != strings.ToLower(id) {
		return false
	}
	if strings.Trim(id, "0") == "" {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

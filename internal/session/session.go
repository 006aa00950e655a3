// Package session generates the per-process chat session identity.
package session

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultPrefix marks sessions opened by the terminal client.
const DefaultPrefix = "tui_"

const suffixLen = 9

// Session scopes every chat request sent during one client lifetime.
type Session struct {
	ID        string
	CreatedAt time.Time
}

// New creates a session with DefaultPrefix.
func New() Session {
	return NewWithPrefix(DefaultPrefix)
}

// NewWithPrefix creates a session whose id is prefix + base-36 millisecond
// timestamp + a random base-36 suffix. Not suitable as a secret.
func NewWithPrefix(prefix string) Session {
	now := time.Now()
	return Session{
		ID:        prefix + strconv.FormatInt(now.UnixMilli(), 36) + randomSuffix(),
		CreatedAt: now,
	}
}

func randomSuffix() string {
	id := uuid.New()
	encoded := strconv.FormatUint(binary.BigEndian.Uint64(id[:8]), 36) +
		strconv.FormatUint(binary.BigEndian.Uint64(id[8:]), 36)
	if len(encoded) < suffixLen {
		encoded = strings.Repeat("0", suffixLen-len(encoded)) + encoded
	}
	return encoded[:suffixLen]
}

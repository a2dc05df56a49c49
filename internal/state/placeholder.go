package state

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

const placeholderPrefix = "local-"

var placeholderSeq uint64

// NewPlaceholderID returns a timestamp-derived identifier for an optimistic
// insert. The sequence suffix keeps two plants in the same millisecond apart.
func NewPlaceholderID(now time.Time) string {
	return fmt.Sprintf("%s%d-%d", placeholderPrefix, now.UnixMilli(), atomic.AddUint64(&placeholderSeq, 1))
}

// IsPlaceholderID reports whether id was minted by NewPlaceholderID.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

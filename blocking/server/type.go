// Package server implements the blocking variant's per-replica register: a
// keyed store like the ABD variant, plus a lock table that gates reads and
// writes. Locks are granted exclusively and reclaimed on timeout; the
// server never blocks a caller waiting for a lock to free up — AcquireLock
// always returns immediately with granted=true/false.
package server

import (
	"sync"
	"time"

	"github.com/averywhite/quorumreg/protocol"
	"github.com/averywhite/quorumreg/ts"
)

// LockTimeout is how long a replica honors an unreleased lock before it
// becomes reclaimable by another client.
const LockTimeout = 30 * time.Second

type entry struct {
	value []byte
	ts    int64
}

type lockEntry struct {
	owner      int32
	acquiredAt time.Time
}

// Server is one blocking-protocol replica.
type Server struct {
	ID   int32
	Self protocol.Connection

	mu    sync.Mutex
	store map[string]entry
	locks map[string]lockEntry
	clock *ts.ServerClock
}

// New returns a Server identified by id, listening (once Start is called) on
// self.
func New(id int32, self protocol.Connection) *Server {
	return &Server{
		ID:    id,
		Self:  self,
		store: make(map[string]entry),
		locks: make(map[string]lockEntry),
		clock: ts.NewServerClock(),
	}
}

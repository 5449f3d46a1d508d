// Package server implements the ABD variant's per-replica register: an
// in-memory keyed store of (value, ts) pairs that accepts unconditional
// reads and writes. Quorum orchestration and write-back live in abd/client;
// this package only has to keep one key's entry linearizable against itself.
package server

import (
	"sync"

	"github.com/averywhite/quorumreg/protocol"
	"github.com/averywhite/quorumreg/ts"
)

// entry is one key's stored (value, ts) pair.
type entry struct {
	value []byte
	ts    int64
}

// Server is one ABD replica.
type Server struct {
	ID   int32
	Self protocol.Connection

	mu    sync.Mutex
	store map[string]entry
	clock *ts.ServerClock
}

// New returns a Server identified by id, listening (once Start is called) on
// self.
func New(id int32, self protocol.Connection) *Server {
	return &Server{
		ID:    id,
		Self:  self,
		store: make(map[string]entry),
		clock: ts.NewServerClock(),
	}
}

// Package client implements the ABD client engine: a wait-free two-phase
// read (query quorum, write back the max) and a single-phase quorum write.
package client

import (
	"fmt"
	"time"

	"github.com/averywhite/quorumreg/protocol"
	"github.com/averywhite/quorumreg/ts"
)

// rpcTimeout is the per-RPC deadline applied to the ABD variant's read and
// write RPCs.
const rpcTimeout = 5 * time.Second

// Client is an ABD client engine bound to a fixed replica set and quorum
// sizes. State is flat: each Read/Write call is independent.
type Client struct {
	Servers []protocol.Connection
	R, W    int

	clock *ts.ClientClock
	pool  *protocol.Pool
}

// New returns a Client configured against servers with read quorum r and
// write quorum w. It rejects quorums that exceed the replica count.
func New(servers []protocol.Connection, r, w int) (*Client, error) {
	if r > len(servers) || w > len(servers) {
		return nil, fmt.Errorf("quorum (r=%d, w=%d) exceeds replica count %d", r, w, len(servers))
	}
	return &Client{
		Servers: servers,
		R:       r,
		W:       w,
		clock:   ts.NewClientClock(),
		pool:    protocol.NewPool(),
	}, nil
}

// CurrentTimestamp returns the client's logical clock value without
// mutating it, satisfying the register.Register façade.
func (c *Client) CurrentTimestamp() int64 {
	return c.clock.Peek()
}

// Close releases pooled connections.
func (c *Client) Close() {
	c.pool.Close()
}
